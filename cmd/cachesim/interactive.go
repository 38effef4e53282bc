package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/session"
	"github.com/sarchlab/cachesim/trace"
)

var interactiveConfigPath string

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Start the interactive menu.",
	Args:  cobra.NoArgs,
	RunE:  runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)

	interactiveCmd.Flags().StringVar(&interactiveConfigPath, "config", "",
		"Configuration file to start with")
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	m := newMenu(cmd.InOrStdin(), cmd.OutOrStdout(), logger)

	if interactiveConfigPath != "" {
		m.defineFromFile(interactiveConfigPath)
	}

	return m.run(cmd.Context())
}

// menu reads options and answers from one word scanner, so a line may
// carry an option followed by its input.
type menu struct {
	in      *bufio.Scanner
	out     io.Writer
	logger  logrus.FieldLogger
	session *session.Session
}

func newMenu(r io.Reader, w io.Writer, logger logrus.FieldLogger) *menu {
	in := bufio.NewScanner(r)
	in.Split(bufio.ScanWords)

	return &menu{
		in:     in,
		out:    w,
		logger: logger,
		session: session.New(report.NewText(w),
			session.WithLogger(logger)),
	}
}

func (m *menu) run(ctx context.Context) error {
	fmt.Fprintln(m.out, "\t\tCache simulator - LRU")

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(m.out, "\nInterrupted.")
			m.finish()
			return nil
		}

		m.printOptions()

		if !m.in.Scan() {
			m.finish()
			return m.in.Err()
		}

		switch choice := m.in.Text(); choice {
		case "1":
			m.defineFromTerminal()
		case "2":
			m.askConfigFile()
		case "3":
			m.accessFromTerminal(ctx)
		case "4":
			m.accessFromFile(ctx)
		case "5":
			m.printCache()
		case "6":
			m.printConfig()
		case "9":
			fmt.Fprintln(m.out, "Exiting...")
			m.finish()
			return nil
		default:
			fmt.Fprintf(m.out, "Invalid option %q.\n", choice)
		}
	}
}

func (m *menu) printOptions() {
	fmt.Fprintln(m.out, "\nMain menu:")
	fmt.Fprintln(m.out, "\t1. Define memory and cache via terminal")
	fmt.Fprintln(m.out, "\t2. Define memory and cache via configuration file")
	fmt.Fprintln(m.out, "\t3. Access addresses via terminal (-1 ends)")
	fmt.Fprintln(m.out, "\t4. Access addresses via address file")
	fmt.Fprintln(m.out, "\t5. Print cache contents")
	fmt.Fprintln(m.out, "\t6. Print memory and cache configuration")
	fmt.Fprintln(m.out, "\t9. Quit")
	fmt.Fprint(m.out, "Option: ")
}

func (m *menu) defineFromTerminal() {
	c, err := config.Prompt(m.in, m.out)
	if err != nil {
		m.fail("Failed to read the configuration", err)
		return
	}

	if err := m.session.Configure(*c); err != nil {
		m.fail("Configuration rejected", err)
	}
}

func (m *menu) askConfigFile() {
	fmt.Fprint(m.out, "Configuration file: ")
	if !m.in.Scan() {
		return
	}

	m.defineFromFile(m.in.Text())
}

func (m *menu) defineFromFile(path string) {
	c, err := config.Load(path)
	if err != nil {
		m.fail("Failed to read the configuration file. Back to the main menu",
			err)
		return
	}

	if err := m.session.Configure(*c); err != nil {
		m.fail("Configuration rejected", err)
	}
}

func (m *menu) accessFromTerminal(ctx context.Context) {
	if !m.configured() {
		return
	}

	fmt.Fprintln(m.out, "Addresses (decimal, -1 ends):")

	r := trace.NewTerminalReader(trace.NewScannerReader(m.in))
	if _, err := m.session.Run(ctx, r, session.PolicyContinue); err != nil {
		m.fail("Address input stopped", err)
	}

	m.printStats()
}

func (m *menu) accessFromFile(ctx context.Context) {
	if !m.configured() {
		return
	}

	fmt.Fprint(m.out, "Address file: ")
	if !m.in.Scan() {
		return
	}

	r, err := trace.Open(m.in.Text())
	if err != nil {
		m.fail("Failed to read the address file. Back to the main menu", err)
		return
	}
	defer r.Close()

	if _, err := m.session.Run(ctx, r, session.PolicyAbort); err != nil {
		m.fail("Failed to read the address file. Back to the main menu", err)
		return
	}

	m.printStats()
}

func (m *menu) printCache() {
	if m.configured() {
		_ = m.session.Dump()
	}
}

func (m *menu) printConfig() {
	if m.configured() {
		_ = m.session.ReportConfig()
	}
}

func (m *menu) printStats() {
	_ = m.session.ReportStats()
}

func (m *menu) finish() {
	fmt.Fprintln(m.out, "\nFinal cache:")
	m.printCache()
}

func (m *menu) configured() bool {
	if m.session.Configured() {
		return true
	}

	fmt.Fprintf(m.out, "Error: %v. Use option 1 or 2 first.\n",
		session.ErrUnconfigured)

	return false
}

func (m *menu) fail(msg string, err error) {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = errors.New("input ended")
	}

	m.logger.WithError(err).Warn(msg)
	fmt.Fprintf(m.out, "%s: %v\n", msg, err)
}
