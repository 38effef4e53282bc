package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/config"
	"github.com/sarchlab/cachesim/reference"
	"github.com/sarchlab/cachesim/trace"
)

var errModelsDisagree = errors.New("engine and reference model disagree")

var verifyOpts struct {
	configPath string
	tracePath  string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare the simulator with Akita's LRU cache directory.",
	Long: "`verify --trace addresses.txt` replays the address file through " +
		"the simulator and through an Akita cache directory of the same " +
		"shape, and reports every access on which they disagree.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := configOrDefault(verifyOpts.configPath)
		if err != nil {
			return err
		}

		return verifyFile(c, verifyOpts.tracePath, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyOpts.configPath, "config", "",
		"Configuration file (default $CACHESIM_* or the built-in defaults)")
	verifyCmd.Flags().StringVar(&verifyOpts.tracePath, "trace", "",
		"Address file, decimal addresses separated by whitespace")

	_ = verifyCmd.MarkFlagRequired("trace")
}

func verifyFile(c *config.Config, path string, w io.Writer) error {
	g, err := c.Geometry()
	if err != nil {
		return err
	}

	r, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	raw, err := trace.ReadAll(r)
	if err != nil {
		return err
	}

	m := c.MainMemory()
	addrs := make([]uint64, 0, len(raw))
	for i, addr := range raw {
		if !m.Contains(addr) {
			return fmt.Errorf("address %d at position %d is outside 0-%d",
				addr, i, m.MaxAddress())
		}
		addrs = append(addrs, uint64(addr))
	}

	cmp := reference.Compare(g, addrs)

	fmt.Fprintf(w, "Engine:    %d accesses, %d hits, %d misses, %d evictions\n",
		cmp.Engine.Accesses, cmp.Engine.Hits, cmp.Engine.Misses, cmp.Engine.Evictions)
	fmt.Fprintf(w, "Reference: %d accesses, %d hits, %d misses, %d evictions\n",
		cmp.Reference.Accesses, cmp.Reference.Hits, cmp.Reference.Misses,
		cmp.Reference.Evictions)

	for _, mm := range cmp.Mismatches {
		fmt.Fprintf(w, "Mismatch at access %d (address %d): engine hit %t, reference hit %t\n",
			mm.Seq, mm.Address, mm.EngineHit, mm.ReferenceHit)
	}

	if !cmp.Agree() {
		logger.WithField("mismatches", len(cmp.Mismatches)).Error("verification failed")
		return errModelsDisagree
	}

	fmt.Fprintf(w, "Engine and reference agree on all %d accesses.\n", len(addrs))

	return nil
}
