package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	appconfig "ordersummary/config"
	"ordersummary/logger"
	"ordersummary/models"
	"ordersummary/processor"
	"ordersummary/reader"
)

// flags shared by every command
type options struct {
	configPath string
	ordersPath string
	outOfHours string
}

// app carries the state of one invocation: configuration, run identity and
// the loaded order batch.
type app struct {
	opts    options
	cfg     *appconfig.Config
	log     *logger.Log
	runID   string
	started time.Time
	batch   *models.OrderBatch
}

func newRootCmd() *cobra.Command {
	a := &app{log: logger.GetLogger()}

	root := &cobra.Command{
		Use:   "ordersummary",
		Short: "Weekly order summary of a coffee shop's order log",
		Long: `ordersummary counts orders per weekday and time interval within the
shop's operating hours (06:00-22:00), prints the weekly table and reports the
busiest interval of any day.

Orders are read from a CSV or Parquet file, a directory of such files, or an
s3://bucket/prefix.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.finish(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", appconfig.DefaultConfigPath, "Path to configuration file")
	flags.StringVar(&a.opts.ordersPath, "orders", "", "Order log: file, directory or s3://bucket/prefix (overrides source.path)")
	flags.StringVar(&a.opts.outOfHours, "out-of-hours", "", "Orders outside 06:00-22:00: reject or skip (overrides report.out_of_hours)")

	root.AddCommand(newReportCmd(a), newPeakCmd(a), newExportCmd(a))
	return root
}

// setup loads configuration, applies flag overrides and configures logging
// and metrics.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.opts.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if a.opts.ordersPath != "" {
		cfg.Source.Path = a.opts.ordersPath
	}
	if a.opts.outOfHours != "" {
		cfg.Report.OutOfHours = a.opts.outOfHours
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := a.log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	a.cfg = cfg
	a.runID = uuid.NewString()
	a.started = time.Now()

	a.log.WithRun(a.runID).WithFields(logger.Fields{
		"service":     cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": appconfig.AppEnvironment(),
		"command":     cmd.Name(),
	}).Info("starting ordersummary")

	if cw := cfg.Metrics.CloudWatch; cw.Enabled {
		region := cw.Region
		if region == "" {
			region = cfg.Storage.S3.Region
		}
		logger.InitCloudWatch(cmd.Context(), region, cw.Namespace, cw.Dashboard)
	}
	return nil
}

// loadConfig reads the configuration file. An explicit --config is used as
// given; otherwise APP_ENV may select a variant and a missing default file
// falls back to built-in defaults.
func loadConfig(path string, explicit bool) (*appconfig.Config, error) {
	if explicit {
		return appconfig.LoadConfig(path)
	}
	resolved := appconfig.ResolveConfigPath(path)
	if resolved == appconfig.DefaultConfigPath {
		if _, err := os.Stat(resolved); errors.Is(err, os.ErrNotExist) {
			cfg := appconfig.Default()
			cfg.ApplyEnv()
			return cfg, nil
		}
	}
	return appconfig.LoadConfig(resolved)
}

func (a *app) finish(ctx context.Context) {
	if a.cfg == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger.LogRunReport(ctx, a.log, logger.SnapshotReport(a.runID, a.started))
}

// orders loads the order log once per invocation.
func (a *app) orders(ctx context.Context) ([]models.Order, error) {
	if a.batch != nil {
		return a.batch.Orders, nil
	}
	r, err := reader.New(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	batch, err := reader.Load(ctx, r, a.runID)
	if err != nil {
		return nil, err
	}
	a.batch = &batch
	return batch.Orders, nil
}

// buildMatrix composes the weekly matrix for intervalLength.
func (a *app) buildMatrix(ctx context.Context, intervalLength int) (*processor.Matrix, error) {
	orders, err := a.orders(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := processor.ParseOutOfHoursPolicy(a.cfg.Report.OutOfHours)
	if err != nil {
		return nil, err
	}
	m, stats, err := processor.Compose(orders, intervalLength, processor.ComposeOptions{
		OutOfHours: policy,
		Log:        a.log,
	})
	if err != nil {
		return nil, err
	}
	logger.AddOrdersCounted(stats.Counted)
	logger.AddOrdersSkipped(stats.Skipped)

	a.log.WithRun(a.runID).WithFields(logger.Fields{
		"interval_length": intervalLength,
		"intervals":       m.Intervals(),
		"counted":         stats.Counted,
		"skipped":         stats.Skipped,
	}).Info("weekly matrix built")
	return m, nil
}

// intervalLength returns the --interval flag when set, otherwise the
// configured length, otherwise fallback.
func (a *app) intervalLength(cmd *cobra.Command, flag, fallback int) (int, error) {
	n := a.cfg.Report.IntervalLength
	if cmd.Flags().Changed("interval") {
		if flag <= 0 {
			return 0, &processor.InputValidationError{Field: "interval length", Value: fmt.Sprint(flag), Reason: "must be positive"}
		}
		n = flag
	}
	if n == 0 {
		return fallback, nil
	}
	if err := processor.ValidateIntervalLength(n); err != nil {
		return 0, err
	}
	return n, nil
}
