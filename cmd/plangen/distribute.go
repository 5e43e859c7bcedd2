package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/cpagateway/internal/modules/generator"
)

type distributeOptions struct {
	total int
	count int
	min   int
	max   int
	seed  int64
}

func newDistributeCmd(root *rootOptions) *cobra.Command {
	opts := &distributeOptions{}

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Split a total into values near the mean within bounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", opts.count)
			}

			seed := opts.seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			values := generator.ConstrainedSum(rand.New(rand.NewSource(seed)), opts.total, opts.count, opts.min, opts.max)

			outOfBounds := 0
			for _, v := range values {
				if v < opts.min || v > opts.max {
					outOfBounds++
				}
			}
			if outOfBounds > 0 {
				root.log.Warn().
					Int("values", outOfBounds).
					Msg("Bounds too tight, some values fall outside [min, max]")
			}

			return writeJSON(cmd.OutOrStdout(), values)
		},
	}

	cmd.Flags().IntVar(&opts.total, "total", 0, "sum the values must reach")
	cmd.Flags().IntVar(&opts.count, "count", 0, "number of values")
	cmd.Flags().IntVar(&opts.min, "min", 0, "lower bound per value")
	cmd.Flags().IntVar(&opts.max, "max", 0, "upper bound per value")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 = clock)")
	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("count")
	_ = cmd.MarkFlagRequired("min")
	_ = cmd.MarkFlagRequired("max")
	return cmd
}
