package store

import (
	"context"
	"errors"
	"testing"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/models"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func day(d int) civil.Date { return civil.Date{Year: 2024, Month: 3, Day: d} }

func TestMemoryStore_Transactions(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	ids, err := m.InsertTransactions(ctx, []models.Transaction{
		{AccountID: "acc", UserID: "u1", Amount: decimal.NewFromInt(10), Date: day(1), Tags: []string{models.TagImported}},
		{AccountID: "acc", UserID: "u1", Amount: decimal.NewFromInt(20), Date: day(5)},
		{AccountID: "other", UserID: "u1", Amount: decimal.NewFromInt(30), Date: day(3)},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for _, id := range ids {
		assert.NotEmpty(t, id)
	}

	found, err := m.FindTransactions(ctx, "acc", day(1), day(4))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ids[0], found[0].ID)

	status := models.StatusConfirmed
	require.NoError(t, m.UpdateTransaction(ctx, ids[1], models.TransactionUpdate{CategoryID: strPtr("cat"), Status: &status}))
	got, err := m.GetTransaction(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "cat", *got.CategoryID)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	assert.ErrorIs(t, m.UpdateTransaction(ctx, "missing", models.TransactionUpdate{}), apperror.ErrNotFound)
	_, err = m.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMemoryStore_InjectFailure(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	boom := errors.New("boom")
	m.InjectFailure(OpInsertTransactions, func(call int) error {
		if call == 2 {
			return boom
		}
		return nil
	})

	tx := models.Transaction{AccountID: "acc", Date: day(1)}
	_, err := m.InsertTransactions(ctx, []models.Transaction{tx})
	require.NoError(t, err)
	_, err = m.InsertTransactions(ctx, []models.Transaction{tx, tx})
	assert.ErrorIs(t, err, boom)
	_, err = m.InsertTransactions(ctx, []models.Transaction{tx})
	require.NoError(t, err)

	assert.Len(t, m.Transactions(), 2, "failed call must not store anything")
	assert.Equal(t, 3, m.Calls(OpInsertTransactions))

	m.InjectFailure(OpInsertTransactions, nil)
	_, err = m.InsertTransactions(ctx, []models.Transaction{tx})
	assert.NoError(t, err)
}

func TestMemoryStore_Rules(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	food := m.AddCategory(models.Category{Name: "Food", Type: models.TypeExpense, IsSystem: true})

	sys, err := m.UpsertCategorizationRule(ctx, models.CategorizationRule{CategoryID: food.ID, Pattern: "grocery", Priority: 10, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "Food", sys.CategoryName)

	_, err = m.UpsertCategorizationRule(ctx, models.CategorizationRule{UserID: strPtr("u1"), CategoryID: food.ID, Pattern: "deli", IsActive: true})
	require.NoError(t, err)
	_, err = m.UpsertCategorizationRule(ctx, models.CategorizationRule{UserID: strPtr("u2"), CategoryID: food.ID, Pattern: "bakery", IsActive: true})
	require.NoError(t, err)
	_, err = m.UpsertCategorizationRule(ctx, models.CategorizationRule{UserID: strPtr("u1"), CategoryID: food.ID, Pattern: "off", IsActive: false})
	require.NoError(t, err)

	rules, err := m.FindCategorizationRules(ctx, "u1")
	require.NoError(t, err)
	patterns := make([]string, len(rules))
	for i, r := range rules {
		patterns[i] = r.Pattern
		assert.Equal(t, models.TypeExpense, r.CategoryType)
	}
	assert.ElementsMatch(t, []string{"grocery", "deli"}, patterns)

	r, err := m.FindRuleByPattern(ctx, "u1", "deli")
	require.NoError(t, err)
	require.NotNil(t, r)
	r.Priority = 100
	_, err = m.UpsertCategorizationRule(ctx, *r)
	require.NoError(t, err)
	assert.Len(t, m.Rules(), 4)

	none, err := m.FindRuleByPattern(ctx, "u1", "grocery")
	require.NoError(t, err)
	assert.Nil(t, none, "system rules are not returned by pattern lookup")
}

func TestMemoryStore_Recurring(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	later, _ := m.InsertRecurringDefinition(ctx, models.RecurringDefinition{UserID: "u1", NextOccurrence: day(20), IsActive: true})
	early, _ := m.InsertRecurringDefinition(ctx, models.RecurringDefinition{UserID: "u1", NextOccurrence: day(2), IsActive: true})
	_, _ = m.InsertRecurringDefinition(ctx, models.RecurringDefinition{UserID: "u1", NextOccurrence: day(1), IsActive: false})
	_, _ = m.InsertRecurringDefinition(ctx, models.RecurringDefinition{UserID: "u2", NextOccurrence: day(1), IsActive: true})

	all, err := m.FindRecurringDefinitions(ctx, "u1", models.RecurringFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cutoff := day(10)
	due, err := m.FindRecurringDefinitions(ctx, "u1", models.RecurringFilter{ActiveOnly: true, DueOnOrBefore: &cutoff})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, early, due[0].ID)

	active, err := m.FindRecurringDefinitions(ctx, "u1", models.RecurringFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, []string{early, later}, []string{active[0].ID, active[1].ID})

	next, inactive := day(27), false
	require.NoError(t, m.UpdateRecurringDefinition(ctx, later, models.RecurringUpdate{NextOccurrence: &next, IsActive: &inactive}))
	d, err := m.GetRecurringDefinition(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, next, d.NextOccurrence)
	assert.False(t, d.IsActive)
}

func TestOwnershipHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	acc := m.AddAccount(models.Account{UserID: "u1", Name: "Checking"})
	tx := m.AddTransaction(models.Transaction{UserID: "u1", AccountID: acc.ID})
	own := m.AddCategory(models.Category{UserID: strPtr("u1"), Name: "Mine", Type: models.TypeExpense})
	sys := m.AddCategory(models.Category{Name: "Shared", Type: models.TypeExpense, IsSystem: true})
	defID, _ := m.InsertRecurringDefinition(ctx, models.RecurringDefinition{UserID: "u1"})

	_, err := OwnedAccount(ctx, m, "u1", acc.ID)
	assert.NoError(t, err)
	_, err = OwnedAccount(ctx, m, "u2", acc.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = OwnedAccount(ctx, m, "u1", "missing")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = OwnedTransaction(ctx, m, "u2", tx.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = OwnedRecurringDefinition(ctx, m, "u1", defID)
	assert.NoError(t, err)
	_, err = OwnedRecurringDefinition(ctx, m, "u2", defID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = VisibleCategory(ctx, m, "u1", own.ID)
	assert.NoError(t, err)
	_, err = VisibleCategory(ctx, m, "u2", sys.ID)
	assert.NoError(t, err)
	_, err = VisibleCategory(ctx, m, "u2", own.ID)
	var authErr *apperror.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "category", authErr.Resource)
}
