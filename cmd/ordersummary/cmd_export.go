package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ordersummary/internal/s3client"
	"ordersummary/logger"
	"ordersummary/processor"
	"ordersummary/writer"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		interval int
		out      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the weekly matrix as a Parquet file locally and/or to S3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			length, err := a.intervalLength(cmd, interval, processor.DefaultIntervalLength)
			if err != nil {
				return err
			}
			m, err := a.buildMatrix(cmd.Context(), length)
			if err != nil {
				return err
			}

			res, err := a.export(cmd.Context(), m, out)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if res.Path != "" {
				fmt.Fprintf(w, "wrote %d cells to %s\n", res.Rows, res.Path)
			}
			if res.S3Key != "" {
				fmt.Fprintf(w, "uploaded %d cells to s3://%s/%s\n", res.Rows, res.S3Bucket, res.S3Key)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 0, "Interval length in minutes; must divide 960 (default 60)")
	cmd.Flags().StringVar(&out, "out", "", "Output file or directory (overrides export.path)")
	return cmd
}

// export writes m through the configured destinations; out overrides
// export.path.
func (a *app) export(ctx context.Context, m *processor.Matrix, out string) (writer.ExportResult, error) {
	var putter writer.ObjectPutter
	if a.cfg.Storage.S3.Enabled {
		client, err := s3client.New(ctx, a.cfg.Storage.S3)
		if err != nil {
			return writer.ExportResult{}, fmt.Errorf("create s3 client: %w", err)
		}
		putter = client
	}
	return writer.NewExporter(a.cfg, putter).Export(ctx, m, a.runID, out)
}

// exportIfEnabled is called by commands other than export once their matrix
// is built.
func (a *app) exportIfEnabled(ctx context.Context, m *processor.Matrix) error {
	if !a.cfg.Export.Enabled || m == nil {
		return nil
	}
	res, err := a.export(ctx, m, "")
	if err != nil {
		return err
	}
	a.log.WithRun(a.runID).WithFields(logger.Fields{
		"path":   res.Path,
		"s3_key": res.S3Key,
		"rows":   res.Rows,
	}).Info("matrix exported")
	return nil
}
