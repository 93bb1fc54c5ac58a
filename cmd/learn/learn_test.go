package learn_test

import (
	"bytes"
	"context"
	"testing"

	"fjacquet/fintrack/cmd/learn"
	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/internal/config"
	"fjacquet/fintrack/internal/container"
	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"
	"fjacquet/fintrack/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearnCommand_Flags(t *testing.T) {
	assert.Equal(t, "learn", learn.Cmd.Use)
	for name, shorthand := range map[string]string{"description": "d", "category": "c"} {
		flag := learn.Cmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, shorthand, flag.Shorthand)
	}
}

func TestLearnCommand_Execute(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()
	food := m.AddCategory(models.Category{Name: "Food", Type: models.TypeExpense, IsSystem: true})

	cfg := &config.Config{}
	cfg.Recurring.Timezone = "UTC"
	app, err := container.NewContainerWithStore(ctx, cfg, m, logging.NewMockLogger())
	require.NoError(t, err)
	root.SetContainer(app)
	defer root.SetContainer(nil)

	original := root.SharedFlags.UserID
	root.SharedFlags.UserID = "u1"
	defer func() { root.SharedFlags.UserID = original }()

	var out bytes.Buffer
	learn.Cmd.SetOut(&out)
	learn.Cmd.SetArgs([]string{"-d", "PAG*Padaria Sao Jose 123", "-c", food.ID})
	require.NoError(t, learn.Cmd.ExecuteContext(ctx))
	assert.Contains(t, out.String(), `"pagpadaria|sao|jose" -> `+food.ID)

	rules := m.Rules()
	require.Len(t, rules, 1)
	require.NotNil(t, rules[0].UserID)
	assert.Equal(t, "u1", *rules[0].UserID)

	learn.Cmd.SetArgs([]string{"-d", "12 34", "-c", food.ID})
	assert.Error(t, learn.Cmd.ExecuteContext(ctx))
}
