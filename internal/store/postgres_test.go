package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db, logging.NewMockLogger()), mock
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockStore(t)
	for _, prefix := range []string{
		"CREATE TABLE IF NOT EXISTS accounts",
		"CREATE TABLE IF NOT EXISTS categories",
		"CREATE TABLE IF NOT EXISTS transactions",
		"CREATE INDEX IF NOT EXISTS idx_transactions_account_date",
		"CREATE TABLE IF NOT EXISTS recurring_transactions",
		"CREATE TABLE IF NOT EXISTS categorization_rules",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_rules_user_pattern",
	} {
		mock.ExpectExec(prefix).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertTransactions(t *testing.T) {
	s, mock := newMockStore(t)
	txs := []models.Transaction{
		{ID: "t1", UserID: "u1", AccountID: "acc", Type: models.TypeExpense, Amount: decimal.RequireFromString("25.50"), Date: day(1), Tags: []string{models.TagImported}, Status: models.StatusConfirmed},
		{UserID: "u1", AccountID: "acc", Type: models.TypeIncome, Amount: decimal.NewFromInt(3000), Date: day(2), Status: models.StatusConfirmed},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`COPY "transactions"`)
	prep.ExpectExec().WithArgs(append([]driver.Value{"t1", "u1", "acc"}, anyArgs(9)...)...).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(anyArgs(12)...).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ids, err := s.InsertTransactions(context.Background(), txs)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "t1", ids[0])
	assert.NotEmpty(t, ids[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertTransactions_RollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`COPY "transactions"`)
	prep.ExpectExec().WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	ids, err := s.InsertTransactions(context.Background(), []models.Transaction{{UserID: "u1", AccountID: "acc", Date: day(1)}})
	require.Error(t, err)
	assert.Nil(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertTransactions_Empty(t *testing.T) {
	s, mock := newMockStore(t)
	ids, err := s.InsertTransactions(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindTransactions(t *testing.T) {
	s, mock := newMockStore(t)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "account_id", "category_id", "type", "amount", "description", "date", "to_account_id", "recurring_id", "tags", "status"}).
		AddRow("t1", "u1", "acc", nil, "expense", "25.50", "UBER TRIP", date, nil, nil, "{imported}", "confirmed").
		AddRow("t2", "u1", "acc", "cat", "income", "3000.00", nil, date, nil, "rec", nil, "pending")
	mock.ExpectQuery("SELECT id, user_id, account_id").WithArgs("acc", sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnRows(rows)

	txs, err := s.FindTransactions(context.Background(), "acc", day(1), day(31))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, day(1), txs[0].Date)
	assert.Nil(t, txs[0].CategoryID)
	assert.Equal(t, "UBER TRIP", txs[0].DescriptionText())
	assert.True(t, decimal.RequireFromString("25.5").Equal(txs[0].Amount))
	assert.Equal(t, []string{models.TagImported}, txs[0].Tags)
	assert.Equal(t, models.StatusConfirmed, txs[0].Status)

	assert.Equal(t, "cat", *txs[1].CategoryID)
	assert.Nil(t, txs[1].Description)
	assert.Equal(t, "rec", *txs[1].RecurringID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAccount_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, user_id, name FROM accounts").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}))

	_, err := s.GetAccount(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	mock.ExpectQuery("SELECT id, user_id, name FROM accounts").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}))
	_, err = OwnedAccount(context.Background(), s, "u1", "nope")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindCategorizationRules(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "user_id", "category_id", "pattern", "priority", "is_active", "name", "type"}).
		AddRow("r1", "u1", "c1", "uber|taxi", 100, true, "Transport", "expense").
		AddRow("r2", nil, "c2", "salary", 50, true, "Salary", "income")
	mock.ExpectQuery("FROM categorization_rules r JOIN categories c").WithArgs("u1").WillReturnRows(rows)

	rules, err := s.FindCategorizationRules(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.False(t, rules[0].IsSystem())
	assert.Equal(t, "Transport", rules[0].CategoryName)
	assert.True(t, rules[1].IsSystem())
	assert.Equal(t, models.TypeIncome, rules[1].CategoryType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindRuleByPattern_None(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("WHERE r.user_id = ").WithArgs("u1", "uber|trip").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "category_id", "pattern", "priority", "is_active", "name", "type"}))

	r, err := s.FindRuleByPattern(context.Background(), "u1", "uber|trip")
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCategorizationRule(t *testing.T) {
	s, mock := newMockStore(t)
	user := "u1"
	mock.ExpectExec("INSERT INTO categorization_rules").
		WithArgs(sqlmock.AnyArg(), "u1", "cat", "uber|trip", 100, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rule, err := s.UpsertCategorizationRule(context.Background(), models.CategorizationRule{
		UserID: &user, CategoryID: "cat", Pattern: "uber|trip", Priority: 100, IsActive: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRecurringDefinition(t *testing.T) {
	s, mock := newMockStore(t)
	next, active := day(29), false

	mock.ExpectExec(`UPDATE recurring_transactions SET next_occurrence = \$1, is_active = \$2 WHERE id = \$3`).
		WithArgs(sqlmock.AnyArg(), false, "def").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.UpdateRecurringDefinition(context.Background(), "def", models.RecurringUpdate{NextOccurrence: &next, IsActive: &active}))

	mock.ExpectExec(`UPDATE recurring_transactions SET is_active = \$1 WHERE id = \$2`).
		WithArgs(false, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.UpdateRecurringDefinition(context.Background(), "gone", models.RecurringUpdate{IsActive: &active})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.NoError(t, s.UpdateRecurringDefinition(context.Background(), "noop", models.RecurringUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecurringDefinition(t *testing.T) {
	s, mock := newMockStore(t)
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "account_id", "to_account_id", "category_id", "type", "amount", "description", "frequency", "start_date", "end_date", "next_occurrence", "is_active"}).
		AddRow("def", "u1", "acc", nil, "cat", "expense", "1200.00", "Rent", "monthly", start, end, start, true)
	mock.ExpectQuery("FROM recurring_transactions WHERE id = ").WithArgs("def").WillReturnRows(rows)

	d, err := s.GetRecurringDefinition(context.Background(), "def")
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyMonthly, d.Frequency)
	assert.Equal(t, 31, d.NextOccurrence.Day)
	require.NotNil(t, d.EndDate)
	assert.Equal(t, 12, int(d.EndDate.Month))
	assert.Nil(t, d.ToAccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
