package root_test

import (
	"testing"

	"fjacquet/fintrack/cmd/root"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	root.Init()
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "fintrack", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "Import bank CSV exports")
	assert.NotNil(t, root.Cmd.RunE)
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRun)
}

func TestRootCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
	}{
		{"config", "c"},
		{"user", "u"},
		{"log-level", ""},
		{"log-format", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := root.Cmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestRequireUser(t *testing.T) {
	original := root.SharedFlags.UserID
	defer func() { root.SharedFlags.UserID = original }()

	root.SharedFlags.UserID = "  "
	_, err := root.RequireUser()
	assert.Error(t, err)

	root.SharedFlags.UserID = "u1"
	user, err := root.RequireUser()
	require.NoError(t, err)
	assert.Equal(t, "u1", user)
}

func TestClose_WithoutContainer(t *testing.T) {
	root.SetContainer(nil)
	assert.NoError(t, root.Close())
}
