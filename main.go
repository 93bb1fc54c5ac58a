package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fjacquet/fintrack/cmd/categorize"
	importcmd "fjacquet/fintrack/cmd/import"
	"fjacquet/fintrack/cmd/learn"
	"fjacquet/fintrack/cmd/migrate"
	"fjacquet/fintrack/cmd/recurring"
	"fjacquet/fintrack/cmd/root"
	"fjacquet/fintrack/cmd/rules"
	"fjacquet/fintrack/cmd/seed"
	"fjacquet/fintrack/cmd/transaction"
	"fjacquet/fintrack/internal/logging"

	"github.com/sirupsen/logrus"
)

func init() {
	// Used until the config-driven logger replaces it in the root pre-run.
	root.Log = logging.NewLogrusAdapter(envLogLevel().String(), "text")

	root.Init()

	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(learn.Cmd)
	root.Cmd.AddCommand(transaction.Cmd)
	root.Cmd.AddCommand(recurring.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
	root.Cmd.AddCommand(seed.Cmd)
	root.Cmd.AddCommand(migrate.Cmd)
}

// envLogLevel reads FINTRACK_LOG_LEVEL, defaulting to info
func envLogLevel() logrus.Level {
	logLevelStr := os.Getenv("FINTRACK_LOG_LEVEL")
	if logLevelStr == "" {
		return logrus.InfoLevel
	}

	logLevel, err := logrus.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil {
		return logrus.InfoLevel
	}
	return logLevel
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Cmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}
