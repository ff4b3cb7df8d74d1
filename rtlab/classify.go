package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
)

func newClassifyCmd(g *globalOpts) *cobra.Command {
	var (
		mode       string
		thresholds []uint
		fractions  []float32
		lo, hi     uint32
	)

	cmd := &cobra.Command{
		Use:   "classify VALUE...",
		Short: "Print the tier and duty the mapper assigns to each value",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}

			table := cfg.Mapper.Table
			flags := cmd.Flags()
			if flags.Changed("mode") {
				if table.Mode, err = actuate.ParseMode(mode); err != nil {
					return err
				}
			}
			if flags.Changed("thresholds") {
				table.Thresholds = make([]adc.Reading, len(thresholds))
				for i, th := range thresholds {
					table.Thresholds[i] = adc.Reading(th)
				}
			}
			if flags.Changed("fractions") {
				table.Fractions = fractions
			}
			if flags.Changed("min") {
				table.Min = adc.Reading(lo)
			}
			if flags.Changed("max") {
				table.Max = adc.Reading(hi)
			}
			if err := table.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				v, err := strconv.ParseUint(arg, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid value %q: %w", arg, err)
				}
				r := actuate.Classify(adc.Reading(v), table)
				fmt.Fprintf(out, "%d: tier %d, fraction %.3f, duty %d/%d\n",
					v, r.Tier, r.Fraction, r.Duty(cfg.Mapper.PWMTop), cfg.Mapper.PWMTop)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "mapping mode: stepped or linear")
	cmd.Flags().UintSliceVar(&thresholds, "thresholds", nil, "ascending tier boundaries")
	cmd.Flags().Float32SliceVar(&fractions, "fractions", nil, "duty fraction per tier (stepped)")
	cmd.Flags().Uint32Var(&lo, "min", 0, "lower clamp (linear)")
	cmd.Flags().Uint32Var(&hi, "max", 0, "upper clamp (linear)")
	return cmd
}
