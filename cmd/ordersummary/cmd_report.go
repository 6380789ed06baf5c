package main

import (
	"github.com/spf13/cobra"

	"ordersummary/internal/session"
	"ordersummary/processor"
	"ordersummary/writer"
)

func newReportCmd(a *app) *cobra.Command {
	var interval int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the weekly table and answer peak queries interactively",
		Long: `Prints the weekly order summary, then repeatedly asks for a day and
shows its busiest interval. An empty answer ends the session.

Without --interval (or report.interval_length) the interval length is asked
for first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			length, err := a.intervalLength(cmd, interval, 0)
			if err != nil {
				return err
			}
			// Surface source errors before the first prompt.
			if _, err := a.orders(cmd.Context()); err != nil {
				return err
			}

			s := session.New(cmd.InOrStdin(), cmd.OutOrStdout(), session.Options{
				IntervalLength: length,
				Build: func(intervalLength int) (*processor.Matrix, error) {
					return a.buildMatrix(cmd.Context(), intervalLength)
				},
				Render: writer.RenderTable,
			})
			if err := s.Run(); err != nil {
				return err
			}
			return a.exportIfEnabled(cmd.Context(), s.Matrix())
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 0, "Interval length in minutes; must divide 960")
	return cmd
}
