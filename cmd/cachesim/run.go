package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/recording"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/session"
	"github.com/sarchlab/cachesim/trace"
)

type runOptions struct {
	configPath string
	tracePath  string
	format     string
	recordPath string
	dump       bool
	verify     bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate every address of an address file.",
	Long: "`run --trace addresses.txt` simulates each address in order and " +
		"prints the statistics. The run stops at the first address outside " +
		"main memory.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBatch(cmd.Context(), runOpts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runOpts.configPath, "config", "",
		"Configuration file, .json or the two-line text format")
	runCmd.Flags().StringVar(&runOpts.tracePath, "trace", "",
		"Address file, decimal addresses separated by whitespace")
	runCmd.Flags().StringVar(&runOpts.format, "format", "text",
		"Output format: text or json")
	runCmd.Flags().StringVar(&runOpts.recordPath, "record", "",
		"Record every access to <name>.sqlite3")
	runCmd.Flags().BoolVar(&runOpts.dump, "dump", false,
		"Print the whole cache after the run")
	runCmd.Flags().BoolVar(&runOpts.verify, "verify", false,
		"Check the hit/miss outcomes against the reference model")

	_ = runCmd.MarkFlagRequired("trace")
}

func runBatch(ctx context.Context, opts runOptions, w io.Writer) error {
	c, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	reporter, err := newReporter(opts.format, w)
	if err != nil {
		return err
	}

	sessionOpts := []session.Option{session.WithLogger(logger)}

	if opts.recordPath != "" {
		recorder, err := recording.NewSQLite(opts.recordPath)
		if err != nil {
			return err
		}
		defer recorder.Close()

		recorder.SetLogger(logger)
		logger.WithField("file", recorder.Filename()).Info("recording accesses")
		sessionOpts = append(sessionOpts, session.WithRecorder(recorder))
	}

	s := session.New(reporter, sessionOpts...)
	if err := s.Configure(*c); err != nil {
		return err
	}

	if err := simulateFile(ctx, s, opts.tracePath); err != nil {
		return err
	}

	if opts.dump {
		if err := s.Dump(); err != nil {
			return err
		}
	}

	if err := s.ReportStats(); err != nil {
		return err
	}

	if err := report.Err(reporter); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := s.Flush(); err != nil {
		return err
	}

	if opts.verify {
		return verifyFile(c, opts.tracePath, w)
	}

	return nil
}

func simulateFile(ctx context.Context, s *session.Session, path string) error {
	r, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	n, err := s.Run(ctx, r, session.PolicyAbort)
	logger.WithField("accesses", n).Debug("address file done")
	if err != nil {
		return fmt.Errorf("stopped after %d accesses: %w", n, err)
	}

	return nil
}

func configOrDefault(path string) (*config.Config, error) {
	c, err := loadConfig(path)
	if errors.Is(err, errNoConfig) {
		return config.Default(), nil
	}

	return c, err
}
