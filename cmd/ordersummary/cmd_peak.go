package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ordersummary/processor"
	"ordersummary/writer"
)

func newPeakCmd(a *app) *cobra.Command {
	var (
		interval  int
		day       string
		showTable bool
	)
	cmd := &cobra.Command{
		Use:   "peak",
		Short: "Show the busiest interval of a day, or of every day",
		Example: `  ordersummary peak --day monday --interval 30
  ordersummary peak --orders s3://shop-orders/2024/week-01/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			length, err := a.intervalLength(cmd, interval, processor.DefaultIntervalLength)
			if err != nil {
				return err
			}
			m, err := a.buildMatrix(cmd.Context(), length)
			if err != nil {
				return err
			}

			if err := a.exportIfEnabled(cmd.Context(), m); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showTable {
				if err := writer.RenderTable(out, m); err != nil {
					return err
				}
			}

			if day != "" {
				res, err := processor.Peak(m, day)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, res.String())
				return nil
			}
			for _, res := range processor.WeeklyPeaks(m) {
				fmt.Fprintf(out, "%-9s %s\n", res.Day.String()+":", res.String())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 0, "Interval length in minutes; must divide 960 (default 60)")
	cmd.Flags().StringVar(&day, "day", "", "Day of the week; every day when empty")
	cmd.Flags().BoolVar(&showTable, "table", false, "Print the weekly table first")
	return cmd
}
