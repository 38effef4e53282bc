// Package main is the cachesim command line: a set-associative cache
// simulator with LRU replacement.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/internal/logging"
	"github.com/sarchlab/cachesim/report"
)

var errNoConfig = errors.New(
	"no configuration: pass --config or set the CACHESIM_* variables")

var (
	logLevel string
	envFile  string

	logger logrus.FieldLogger = logging.New("error", io.Discard)
)

// rootCmd runs the interactive menu when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "Simulate a set-associative cache with LRU replacement.",
	Long: `cachesim maps main memory addresses onto a set-associative cache ` +
		`and replaces lines with an aging-counter LRU policy. Without a ` +
		`subcommand it starts the interactive menu.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}

		logger = logging.New(logLevel, cmd.ErrOrStderr())

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: trace, debug, info, warn or error (default $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"Dotenv file with CACHESIM_* and LOG_LEVEL variables")

	rootCmd.RunE = runInteractive
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	// The first interrupt cancels ctx. The menu notices it after the next
	// line of input, so a second interrupt falls back to the default action.
	context.AfterFunc(ctx, stop)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadConfig reads path, or the environment when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	if config.HasEnv() {
		return config.FromEnv(nil)
	}

	return nil, errNoConfig
}

func newReporter(format string, w io.Writer) (report.Reporter, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return report.NewText(w), nil
	case "json":
		return report.NewJSON(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q: use text or json", format)
	}
}
