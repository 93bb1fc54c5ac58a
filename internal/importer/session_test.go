package importer

import (
	"context"
	"testing"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/categorizer"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statement = "Data;Descricao;Valor\n" +
	"01/03/2024;UBER TRIP;-25.50\n" +
	"02/03/2024;SALARY;3000.00\n" +
	"03/03/2024;COFFEE;-4.20\n" +
	"04/03/2024;BROKEN;n/a\n"

func newSessionFixture(t *testing.T) (*store.MemoryStore, *Session, models.Category) {
	t.Helper()
	m := newCommitStore()
	transport := m.AddCategory(models.Category{Name: "Transport", Type: models.TypeExpense, IsSystem: true})
	_, err := m.UpsertCategorizationRule(context.Background(), models.CategorizationRule{
		CategoryID: transport.ID, Pattern: "uber|taxi", Priority: 10, IsActive: true,
	})
	require.NoError(t, err)

	logger := logging.NewMockLogger()
	engine := categorizer.NewEngine(m, nil, logger)
	return m, NewSession(m, engine, DefaultMapperConfig(), DefaultBatchSize, logger), transport
}

func TestSession_PreviewAndCommit(t *testing.T) {
	ctx := context.Background()
	m, s, transport := newSessionFixture(t)
	seedExisting(m, march(3), "4.20", "COFFEE BAR CENTRAL")

	file := parse(t, statement)
	cfg := DefaultConfig("acc", file)
	preview, err := s.Preview(ctx, "u1", file, cfg)
	require.NoError(t, err)

	assert.Equal(t, PreviewStats{Total: 4, Valid: 3, Invalid: 1, Duplicates: 1, Suggested: 1, AutoSelected: 1}, preview.Stats)
	uber := preview.Rows[0]
	require.NotNil(t, uber.SuggestedCategoryID)
	assert.Equal(t, transport.ID, *uber.SuggestedCategoryID)
	assert.Equal(t, "Transport", *uber.SuggestedCategoryName)
	assert.True(t, uber.AutoSelected)
	assert.True(t, preview.Rows[2].IsDuplicate)

	selected := SelectDefault(preview.Rows)
	require.Len(t, selected, 2)

	result, err := s.Commit(ctx, "u1", "acc", selected)
	require.NoError(t, err)
	assert.Equal(t, CommitResult{Imported: 2}, result)
	assert.Len(t, m.Transactions(), 3)

	// re-importing the same file now flags everything valid as duplicate
	again, err := s.Preview(ctx, "u1", file, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Stats.Duplicates)
	assert.Empty(t, SelectDefault(again.Rows))
}

func TestSession_PreviewChecksOwnership(t *testing.T) {
	_, s, _ := newSessionFixture(t)
	file := parse(t, statement)

	_, err := s.Preview(context.Background(), "u1", file, DefaultConfig("foreign", file))
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = s.Preview(context.Background(), "u1", file, DefaultConfig("", file))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSession_PreviewWithoutEngine(t *testing.T) {
	m := newCommitStore()
	s := NewSession(m, nil, MapperConfig{}, 0, nil)
	file := parse(t, statement)

	preview, err := s.Preview(context.Background(), "u1", file, DefaultConfig("acc", file))
	require.NoError(t, err)
	assert.Zero(t, preview.Stats.Suggested)
	assert.Equal(t, 3, preview.Stats.Valid)
}

func TestStats(t *testing.T) {
	rows := []models.CandidateTransaction{
		{IsValid: true, IsDuplicate: true},
		{IsValid: true, SuggestedCategoryID: strPtr("c"), AutoSelected: true},
		{IsValid: true, SuggestedCategoryID: strPtr("c")},
		{IsValid: false, IsDuplicate: true},
	}
	assert.Equal(t, PreviewStats{Total: 4, Valid: 3, Invalid: 1, Duplicates: 1, Suggested: 2, AutoSelected: 1}, Stats(rows))
}
