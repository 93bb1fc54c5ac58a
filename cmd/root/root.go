// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fjacquet/fintrack/internal/config"
	"fjacquet/fintrack/internal/container"
	"fjacquet/fintrack/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to all commands
type CommonFlags struct {
	ConfigFile string
	UserID     string
	LogLevel   string
	LogFormat  string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// SharedFlags holds the persistent flags of the root command
	SharedFlags = CommonFlags{}

	appConfig *config.Config

	mu          sync.Mutex
	appInstance *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "fintrack",
		Short: "Import bank CSV exports, categorize transactions and process recurring ones.",
		Long: `fintrack imports bank statement CSV files of any layout into a PostgreSQL
ledger. It detects the delimiter and date format, suggests categories from
keyword rules (and optionally Gemini), flags duplicates, learns rules from
your corrections and materializes due recurring transactions.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if err := Close(); err != nil {
				Log.WithError(err).Warn("Failed to release resources")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default: config.yaml in $HOME/.fintrack, .fintrack or .)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.UserID, "user", "u", "", "ID of the user the command acts for")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format override (text, json)")
}

func setup(cmd *cobra.Command, args []string) error {
	config.LoadEnv(nil)

	cfg, err := config.InitializeConfigFromFile(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(SharedFlags.LogLevel)
	}
	if SharedFlags.LogFormat != "" {
		cfg.Log.Format = strings.ToLower(SharedFlags.LogFormat)
	}

	appConfig = cfg
	Log = config.NewLogger(cfg)
	return nil
}

// GetConfig returns the configuration loaded for the running command.
func GetConfig() *config.Config {
	return appConfig
}

// GetContainer returns the application container, creating it on first use.
func GetContainer(ctx context.Context) (*container.Container, error) {
	mu.Lock()
	defer mu.Unlock()
	if appInstance != nil {
		return appInstance, nil
	}
	if appConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	c, err := container.NewContainer(ctx, appConfig)
	if err != nil {
		return nil, err
	}
	appInstance = c
	return c, nil
}

// SetContainer installs c as the application container. Tests use it to
// run commands against an in-memory store.
func SetContainer(c *container.Container) {
	mu.Lock()
	defer mu.Unlock()
	appInstance = c
}

// Close releases the application container, if one was created.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if appInstance == nil {
		return nil
	}
	err := appInstance.Close()
	appInstance = nil
	return err
}

// RequireUser returns the --user flag value or an error when it is empty.
func RequireUser() (string, error) {
	user := strings.TrimSpace(SharedFlags.UserID)
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}
	return user, nil
}
