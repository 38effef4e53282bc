package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/report"
)

var geometryOpts struct {
	configPath string
	format     string
}

var geometryCmd = &cobra.Command{
	Use:   "geometry",
	Short: "Print the memory and cache layout and the address bit widths.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printGeometry(
			geometryOpts.configPath, geometryOpts.format, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(geometryCmd)

	geometryCmd.Flags().StringVar(&geometryOpts.configPath, "config", "",
		"Configuration file (default $CACHESIM_* or the built-in defaults)")
	geometryCmd.Flags().StringVar(&geometryOpts.format, "format", "text",
		"Output format: text or json")
}

func printGeometry(path, format string, w io.Writer) error {
	c, err := configOrDefault(path)
	if err != nil {
		return err
	}

	g, err := c.Geometry()
	if err != nil {
		return err
	}

	reporter, err := newReporter(format, w)
	if err != nil {
		return err
	}

	reporter.ReportConfig(*c, g)

	return report.Err(reporter)
}
