package categorizer

import (
	"context"
	"errors"
	"testing"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPattern(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
		wantErr     bool
	}{
		{"first three long tokens", "PAG*Padaria Sao Jose 123", "pagpadaria|sao|jose", false},
		{"short tokens dropped", "DB AG Ticket Zurich HB", "ticket|zurich", false},
		{"digits and punctuation removed", "UBER *TRIP 4411-22", "uber|trip", false},
		{"accented letters kept", "Café Crème Genève", "café|crème|genève", false},
		{"more than three tokens", "one two three four five", "one|two|three", false},
		{"only short tokens", "AB CD 12", "", true},
		{"digits only", "123456", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPattern(tt.description)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLearner_Learn(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	groceries := m.AddCategory(models.Category{Name: "Groceries", Type: models.TypeExpense, IsSystem: true})
	dining := m.AddCategory(models.Category{Name: "Dining", Type: models.TypeExpense, UserID: strPtr("u1")})
	logger := logging.NewMockLogger()
	l := NewLearner(m, logger)

	first, err := l.Learn(ctx, "u1", "Padaria Central 0042", groceries.ID)
	require.NoError(t, err)
	assert.Equal(t, "padaria|central", first.Pattern)
	assert.Equal(t, groceries.ID, first.CategoryID)
	assert.Equal(t, LearnedRulePriority, first.Priority)
	assert.True(t, first.IsActive)
	require.NotNil(t, first.UserID)
	assert.Equal(t, "u1", *first.UserID)
	assert.True(t, logger.HasEntry("INFO", "Learned categorization rule"))

	// same pattern again: updated in place
	second, err := l.Learn(ctx, "u1", "PADARIA CENTRAL 0099", dining.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, dining.ID, second.CategoryID)
	require.Len(t, m.Rules(), 1)

	// and the learned rule now drives categorization
	got, err := NewEngine(m, nil, nil).Categorize(ctx, "u1", "padaria central lisboa")
	require.NoError(t, err)
	require.True(t, got.Found())
	assert.Equal(t, dining.ID, *got.CategoryID)
}

func TestLearner_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	cat := m.AddCategory(models.Category{Name: "Transport", Type: models.TypeExpense, IsSystem: true})
	l := NewLearner(m, nil)

	for i := 0; i < 3; i++ {
		_, err := l.Learn(ctx, "u1", "SBB CFF FFS Ticket", cat.ID)
		require.NoError(t, err)
	}
	rules := m.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "sbb|cff|ffs", rules[0].Pattern)
}

func TestLearner_PerUser(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	cat := m.AddCategory(models.Category{Name: "Transport", Type: models.TypeExpense, IsSystem: true})
	l := NewLearner(m, nil)

	_, err := l.Learn(ctx, "u1", "Taxi Geneva", cat.ID)
	require.NoError(t, err)
	_, err = l.Learn(ctx, "u2", "Taxi Geneva", cat.ID)
	require.NoError(t, err)
	assert.Len(t, m.Rules(), 2)
}

func TestLearner_Errors(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	foreign := m.AddCategory(models.Category{Name: "Hobby", Type: models.TypeExpense, UserID: strPtr("u2")})
	l := NewLearner(m, nil)

	_, err := l.Learn(ctx, "u1", "Guitar Center", foreign.ID)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, err = l.Learn(ctx, "u1", "Guitar Center", "missing")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, err = l.Learn(ctx, "u1", "12 34", foreign.ID)
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
	assert.Empty(t, m.Rules())
}
