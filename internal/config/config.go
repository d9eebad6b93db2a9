package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultMaxWorkers       = 5
	DefaultOperationTimeout = 300 * time.Second
	DefaultLogFile          = "s3_to_b2_transfer.log"
)

// Source holds the S3 side settings.
type Source struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Destination holds the B2 side settings.
type Destination struct {
	Bucket           string
	ApplicationKeyID string
	ApplicationKey   string
}

// Transfer holds the engine policy settings.
type Transfer struct {
	DeleteFromS3     bool
	MaxWorkers       int
	VerifyChecksums  bool
	SkipExisting     bool
	OperationTimeout time.Duration
	Excludes         []string
}

// Log holds the logging settings.
type Log struct {
	Level string
	File  string
}

// Config is the resolved configuration for one run.
type Config struct {
	Source      Source
	Destination Destination
	Transfer    Transfer
	Log         Log
}

// Load resolves configuration from the environment. Extra env files are
// applied first, in order, then a .env in the working directory when
// present. Environment variables already set win over file contents.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_PREFIX", "")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("AWS_REGION", "")
	v.SetDefault("B2_BUCKET", "")
	v.SetDefault("B2_APPLICATION_KEY_ID", "")
	v.SetDefault("B2_APPLICATION_KEY", "")
	v.SetDefault("DELETE_FROM_S3", false)
	v.SetDefault("MAX_WORKERS", DefaultMaxWorkers)
	v.SetDefault("VERIFY_CHECKSUMS", true)
	v.SetDefault("SKIP_EXISTING", true)
	v.SetDefault("OPERATION_TIMEOUT", int(DefaultOperationTimeout/time.Second))
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", DefaultLogFile)
	v.AutomaticEnv()

	bucket, prefix, err := ParseBucketSpec(v.GetString("S3_BUCKET"))
	if err != nil {
		return nil, err
	}
	if p := v.GetString("S3_PREFIX"); p != "" {
		prefix = p
	}

	return &Config{
		Source: Source{
			Bucket:          bucket,
			Prefix:          prefix,
			Region:          v.GetString("AWS_REGION"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		},
		Destination: Destination{
			Bucket:           v.GetString("B2_BUCKET"),
			ApplicationKeyID: v.GetString("B2_APPLICATION_KEY_ID"),
			ApplicationKey:   v.GetString("B2_APPLICATION_KEY"),
		},
		Transfer: Transfer{
			DeleteFromS3:     v.GetBool("DELETE_FROM_S3"),
			MaxWorkers:       v.GetInt("MAX_WORKERS"),
			VerifyChecksums:  v.GetBool("VERIFY_CHECKSUMS"),
			SkipExisting:     v.GetBool("SKIP_EXISTING"),
			OperationTimeout: time.Duration(v.GetInt("OPERATION_TIMEOUT")) * time.Second,
		},
		Log: Log{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
	}, nil
}

// Validate checks the required fields, collecting every missing variable
// into one error so the operator can fix them in a single pass.
func (c *Config) Validate() error {
	var missing []string
	if c.Source.Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if c.Destination.Bucket == "" {
		missing = append(missing, "B2_BUCKET")
	}
	if c.Destination.ApplicationKeyID == "" {
		missing = append(missing, "B2_APPLICATION_KEY_ID")
	}
	if c.Destination.ApplicationKey == "" {
		missing = append(missing, "B2_APPLICATION_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Transfer.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be at least 1, got %d", c.Transfer.MaxWorkers)
	}

	return nil
}

// Fields returns the resolved settings for startup logging. Credentials
// and application keys are left out.
func (c *Config) Fields() map[string]interface{} {
	region := c.Source.Region
	if region == "" {
		region = "auto"
	}

	fields := map[string]interface{}{
		"s3_bucket":        c.Source.Bucket,
		"s3_prefix":        c.Source.Prefix,
		"aws_region":       region,
		"b2_bucket":        c.Destination.Bucket,
		"delete_from_s3":   c.Transfer.DeleteFromS3,
		"max_workers":      c.Transfer.MaxWorkers,
		"verify_checksums": c.Transfer.VerifyChecksums,
		"skip_existing":    c.Transfer.SkipExisting,
	}
	if len(c.Transfer.Excludes) > 0 {
		fields["excludes"] = c.Transfer.Excludes
	}
	return fields
}

// ParseBucketSpec accepts either a bare bucket name or an s3://bucket/prefix
// URI and splits it into bucket and prefix.
func ParseBucketSpec(spec string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(spec, "s3://") {
		return spec, "", nil
	}

	trimmed := strings.TrimPrefix(spec, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 bucket spec %q: missing bucket name", spec)
	}

	bucket = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix, nil
}
