package categorizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAIClient struct {
	answer     string
	err        error
	calls      int
	categories []string
}

func (m *mockAIClient) SuggestCategory(_ context.Context, _ string, categories []string) (string, error) {
	m.calls++
	m.categories = categories
	return m.answer, m.err
}

var aiCategories = []models.Category{
	{ID: "c1", Name: "Groceries", Type: models.TypeExpense},
	{ID: "c2", Name: "Salary", Type: models.TypeIncome},
}

func TestAIStrategy_Categorize(t *testing.T) {
	client := &mockAIClient{answer: "salary"}
	s := NewAIStrategy(client, time.Second, logging.NewMockLogger())

	got, ok, err := s.Categorize(context.Background(), Input{UserID: "u1", Description: "ACME PAYROLL", Categories: aiCategories})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c2", *got.CategoryID)
	assert.Equal(t, "Salary", got.CategoryName)
	assert.Equal(t, models.TypeIncome, got.CategoryType)
	assert.Equal(t, AIConfidence, got.Confidence)
	assert.Equal(t, StrategyAI, got.Strategy)
	assert.Equal(t, []string{"Groceries", "Salary"}, client.categories)
}

func TestAIStrategy_NoMatch(t *testing.T) {
	tests := []struct {
		name      string
		client    *mockAIClient
		in        Input
		wantCalls int
	}{
		{"unknown category", &mockAIClient{answer: "Travel"}, Input{Description: "Hotel", Categories: aiCategories}, 1},
		{"empty answer", &mockAIClient{answer: ""}, Input{Description: "Hotel", Categories: aiCategories}, 1},
		{"client error", &mockAIClient{err: errors.New("quota exceeded")}, Input{Description: "Hotel", Categories: aiCategories}, 1},
		{"blank description", &mockAIClient{answer: "Salary"}, Input{Description: "  ", Categories: aiCategories}, 0},
		{"no categories", &mockAIClient{answer: "Salary"}, Input{Description: "Hotel"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAIStrategy(tt.client, 0, logging.NewMockLogger())
			_, ok, err := s.Categorize(context.Background(), tt.in)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, tt.wantCalls, tt.client.calls)
		})
	}
}

func TestAIStrategy_LogsClientFailure(t *testing.T) {
	logger := logging.NewMockLogger()
	s := NewAIStrategy(&mockAIClient{err: errors.New("boom")}, 0, logger)

	_, _, err := s.Categorize(context.Background(), Input{Description: "Hotel", Categories: aiCategories})
	require.NoError(t, err)
	assert.True(t, logger.HasEntry("WARN", "AI categorization failed"))
}

func TestExtractCategory(t *testing.T) {
	categories := []string{"Groceries", "Transport", "Salary"}

	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"structured", "Category: Groceries", "Groceries"},
		{"case and punctuation", "category: transport.", "Transport"},
		{"structured among other lines", "Reasoning: fuel\nCategory: **Transport**", "Transport"},
		{"structured unknown", "Category: Travel", ""},
		{"single mention", "This looks like a Salary payment", "Salary"},
		{"ambiguous mention", "Either Groceries or Transport", ""},
		{"nothing", "I don't know", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCategory(tt.response, categories))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("MIGROS BASEL", []string{"Groceries", "Transport"})
	assert.Contains(t, prompt, "MIGROS BASEL")
	assert.Contains(t, prompt, "Groceries")
	assert.Contains(t, prompt, "Transport")
}
