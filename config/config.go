package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Operating window the interval length has to divide, in minutes (06:00-22:00).
const operatingWindow = 16 * 60

type Config struct {
	App     AppConfig     `yaml:"app"`
	Source  SourceConfig  `yaml:"source"`
	Report  ReportConfig  `yaml:"report"`
	Export  ExportConfig  `yaml:"export"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Version string `yaml:"version" validate:"required"`
}

// SourceConfig locates the order log. Path is a local file or an
// s3://bucket/prefix URI; every object under the prefix is loaded.
type SourceConfig struct {
	Path              string  `yaml:"path"`
	Format            string  `yaml:"format" validate:"oneof=auto csv parquet"`
	SkipHeader        bool    `yaml:"skip_header"`
	Delimiter         string  `yaml:"delimiter" validate:"len=1"`
	DateColumn        int     `yaml:"date_column" validate:"gte=0"`
	TimeColumn        int     `yaml:"time_column" validate:"gte=0,nefield=DateColumn"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

// ReportConfig holds the aggregation settings. IntervalLength 0 means the
// interval is asked for interactively.
type ReportConfig struct {
	IntervalLength int    `yaml:"interval_length" validate:"gte=0,lte=960"`
	OutOfHours     string `yaml:"out_of_hours" validate:"oneof=reject skip"`
}

type ExportConfig struct {
	Enabled      bool               `yaml:"enabled"`
	Path         string             `yaml:"path"`
	Compression  string             `yaml:"compression" validate:"oneof=none snappy gzip"`
	IncludeEmpty bool               `yaml:"include_empty"`
	Partitioning PartitioningConfig `yaml:"partitioning"`
}

type PartitioningConfig struct {
	Prefix     string `yaml:"prefix"`
	TimeFormat string `yaml:"time_format"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
	Dashboard string `yaml:"dashboard"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"oneof=json text"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age" validate:"gte=0"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "ordersummary",
			Version: "dev",
		},
		Source: SourceConfig{
			Format:            "auto",
			SkipHeader:        true,
			Delimiter:         ",",
			DateColumn:        0,
			TimeColumn:        1,
			RequestsPerSecond: 10,
			Burst:             1,
		},
		Report: ReportConfig{
			OutOfHours: "reject",
		},
		Export: ExportConfig{
			Compression: "snappy",
			Partitioning: PartitioningConfig{
				Prefix:     "order-summary",
				TimeFormat: "year={year}/month={month}/day={day}",
			},
		},
		Metrics: MetricsConfig{
			CloudWatch: CloudWatchConfig{Namespace: "OrderSummary"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ORDERS_PATH"); v != "" {
		c.Source.Path = strings.TrimSpace(v)
	}
	if v := os.Getenv("EXPORT_BUCKET"); v != "" {
		c.Storage.S3.Bucket = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Storage.S3.Region = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		c.Storage.S3.AccessKeyID = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		c.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
	}
	c.Storage.S3.Bucket = strings.TrimSpace(c.Storage.S3.Bucket)
}

var validate = validator.New()

// Validate checks field constraints and the rules spanning several fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.New(formatValidationErrors(verrs))
		}
		return err
	}

	if l := c.Report.IntervalLength; l != 0 && operatingWindow%l != 0 {
		return fmt.Errorf("report.interval_length %d must divide %d", l, operatingWindow)
	}

	if c.Storage.S3.Enabled {
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(c.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", c.Storage.S3.Bucket)
		}
	}

	if c.Export.Enabled && c.Export.Path == "" && !c.Storage.S3.Enabled {
		return fmt.Errorf("export.enabled needs export.path or storage.s3.enabled")
	}

	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "gte", "lte", "len":
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		case "nefield":
			msgs = append(msgs, fmt.Sprintf("%s must differ from %s", field, strings.ToLower(fe.Param())))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, ", ")
}

var bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if !bucketNameRe.MatchString(name) {
		return false
	}
	return !strings.Contains(name, "..")
}
