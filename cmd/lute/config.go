package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/franz/lute-composers/internal/dataset"
	"github.com/franz/lute-composers/internal/report"
	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (LUTE_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// bindFlags binds command-local flags to viper keys of the same name, so
// they can also come from the config file or LUTE_* variables.
func bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if f := cmd.Flags().Lookup(name); f != nil {
			viper.BindPFlag(name, f)
		}
	}
}

// dataPath resolves a data file name against --data-dir, leaving explicit
// paths untouched
func dataPath(value, defaultName string) string {
	if value != "" {
		return value
	}
	return filepath.Join(GetConfigString("data-dir", "."), defaultName)
}

// csvEncoding returns the encoding configured under key, or the global --encoding
func csvEncoding(key string) (dataset.Encoding, error) {
	value := viper.GetString(key)
	if value == "" {
		value = viper.GetString("encoding")
	}
	enc, err := dataset.ParseEncoding(value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return enc, nil
}

// newEventLogger opens the run's event log in the artifacts directory.
// Failure is not fatal: events are then dropped.
func newEventLogger() *report.EventLogger {
	level := report.LevelInfo
	if viper.GetBool("quiet") {
		level = report.LevelWarning
	} else if viper.GetBool("verbose") {
		level = report.LevelDebug
	}

	logger, err := report.NewEventLogger(GetConfigString("artifacts", "artifacts"), level)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	util.InfoLog("Event log: %s (run %s)", logger.Path(), logger.RunID())
	return logger
}

// failStage records err as a failure of the whole stage in the event log
// and returns it
func failStage(logger *report.EventLogger, stage, item string, err error) error {
	logger.LogError(stage, item, err)
	return err
}

// signalContext is cancelled on Ctrl-C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
