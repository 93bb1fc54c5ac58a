package transaction_test

import (
	"bytes"
	"context"
	"testing"

	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/cmd/transaction"
	"fjacquet/fintrack/internal/apperror"
	"fjacquet/fintrack/internal/config"
	"fjacquet/fintrack/internal/container"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func setup(t *testing.T) (*store.MemoryStore, models.Category, models.Transaction) {
	t.Helper()
	m := store.NewMemoryStore()
	streaming := m.AddCategory(models.Category{Name: "Streaming", Type: models.TypeExpense, IsSystem: true})
	tx := m.AddTransaction(models.Transaction{
		UserID:      "u1",
		AccountID:   "acc",
		Type:        models.TypeExpense,
		Amount:      decimal.RequireFromString("15.99"),
		Description: strPtr("NETFLIX.COM Subscription"),
		Date:        civil.Date{Year: 2024, Month: 3, Day: 5},
		Status:      models.StatusPending,
	})

	cfg := &config.Config{}
	cfg.Categorization.AutoLearn = true
	cfg.Recurring.Timezone = "UTC"
	app, err := container.NewContainerWithStore(context.Background(), cfg, m, logging.NewMockLogger())
	require.NoError(t, err)
	root.SetContainer(app)
	t.Cleanup(func() { root.SetContainer(nil) })

	original := root.SharedFlags.UserID
	root.SharedFlags.UserID = "u1"
	t.Cleanup(func() { root.SharedFlags.UserID = original })
	return m, streaming, tx
}

func TestTransactionCommand_Subcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range transaction.Cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"set-category", "confirm"}, names)
}

func TestSetCategory_LearnsRule(t *testing.T) {
	m, streaming, tx := setup(t)

	var out bytes.Buffer
	transaction.Cmd.SetOut(&out)
	transaction.Cmd.SetArgs([]string{"set-category", tx.ID, streaming.ID})
	require.NoError(t, transaction.Cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "category="+streaming.ID)

	stored := m.Transactions()
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].CategoryID)
	assert.Equal(t, streaming.ID, *stored[0].CategoryID)

	rules := m.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "netflixcom|subscription", rules[0].Pattern)
}

func TestConfirm(t *testing.T) {
	m, _, tx := setup(t)

	var out bytes.Buffer
	transaction.Cmd.SetOut(&out)
	transaction.Cmd.SetArgs([]string{"confirm", tx.ID})
	require.NoError(t, transaction.Cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "status=confirmed")
	assert.Equal(t, models.StatusConfirmed, m.Transactions()[0].Status)
}

func TestConfirm_OtherUser(t *testing.T) {
	_, _, tx := setup(t)
	root.SharedFlags.UserID = "u2"

	transaction.Cmd.SetArgs([]string{"confirm", tx.ID})
	err := transaction.Cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
