package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/s3-to-b2/internal/b2store"
	"github.com/yuya-takeyama/s3-to-b2/internal/config"
	"github.com/yuya-takeyama/s3-to-b2/internal/inventory"
	"github.com/yuya-takeyama/s3-to-b2/internal/logging"
	"github.com/yuya-takeyama/s3-to-b2/internal/s3store"
	"github.com/yuya-takeyama/s3-to-b2/internal/store"
	"github.com/yuya-takeyama/s3-to-b2/internal/transfer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

var (
	envFile  string
	excludes []string
	workers  int
	move     bool
	dryRun   bool
	quiet    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "s3-to-b2",
		Short: "Transfer objects from an S3 bucket to a Backblaze B2 bucket",
		Long: `s3-to-b2 copies or moves every object under an S3 prefix into a
Backblaze B2 bucket, skipping objects the destination already has.
Settings come from the environment; a .env file in the working
directory is honored.`,
		Version: fmt.Sprintf("%s (commit: %s, built at: %s by: %s)", version, commit, date, builtBy),
		Args:    cobra.NoArgs,
		RunE:    run,
	}

	rootCmd.Flags().StringVar(&envFile, "env-file", "", "Extra env file to load before .env")
	rootCmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Exclude object keys matching pattern (can be repeated)")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "Override MAX_WORKERS for this run")
	rootCmd.Flags().BoolVar(&move, "move", false, "Delete each object from S3 after a successful transfer")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be transferred without moving bytes")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("workers") {
		cfg.Transfer.MaxWorkers = workers
	}
	if move {
		cfg.Transfer.DeleteFromS3 = true
	}
	cfg.Transfer.Excludes = excludes

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := logging.Setup(cfg.Log.Level, quiet, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	return runTransfer(context.Background(), cfg, log)
}

func runTransfer(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	start := time.Now()

	log.Info().Fields(cfg.Fields()).Msg("starting transfer")

	src, err := s3store.New(ctx, s3store.Options{
		Bucket:          cfg.Source.Bucket,
		Region:          cfg.Source.Region,
		AccessKeyID:     cfg.Source.AccessKeyID,
		SecretAccessKey: cfg.Source.SecretAccessKey,
		Timeout:         cfg.Transfer.OperationTimeout,
	})
	if err != nil {
		return fmt.Errorf("create S3 client: %w", err)
	}
	log.Debug().Str("region", src.Region()).Msg("S3 region resolved")

	dst, err := b2store.New(ctx, b2store.Options{
		Bucket:           cfg.Destination.Bucket,
		ApplicationKeyID: cfg.Destination.ApplicationKeyID,
		ApplicationKey:   cfg.Destination.ApplicationKey,
		Timeout:          cfg.Transfer.OperationTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to B2: %w", err)
	}

	objects, err := inventory.Collect(ctx, src, cfg.Source.Prefix, cfg.Transfer.Excludes)
	if err != nil {
		return err
	}

	if len(objects) == 0 {
		log.Info().
			Str("bucket", cfg.Source.Bucket).
			Str("prefix", cfg.Source.Prefix).
			Msg("no objects found to transfer")
		return nil
	}

	log.Info().Int("count", len(objects)).Msg("collected source inventory")

	if dryRun {
		return printDryRun(ctx, dst, objects, cfg.Transfer.SkipExisting, log)
	}

	reporter := logging.NewReporter(log, quiet)
	policy := transfer.Policy{
		Workers:      cfg.Transfer.MaxWorkers,
		Move:         cfg.Transfer.DeleteFromS3,
		SkipExisting: cfg.Transfer.SkipExisting,
		Verify:       cfg.Transfer.VerifyChecksums,
	}

	outcomes := transfer.New(src, dst, policy, reporter).Run(ctx, objects)
	summary := transfer.Summarize(outcomes, policy.Move, time.Since(start))
	reporter.PrintSummary(summary)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d transfers failed", summary.Failed, summary.Total)
	}

	return nil
}

// printDryRun walks the inventory without moving bytes, probing the
// destination to show which objects a real run would skip.
func printDryRun(ctx context.Context, dst store.ObjectStore, objects []store.Object, skipExisting bool, log zerolog.Logger) error {
	var toTransfer, toSkip int

	for _, obj := range objects {
		exists := false
		if skipExisting {
			var err error
			exists, err = dst.Exists(ctx, obj.Key)
			if err != nil {
				log.Warn().Str("key", obj.Key).Err(err).Msg("existence check failed, counting as transfer")
				exists = false
			}
		}
		if exists {
			toSkip++
			fmt.Printf("(dry run) skip: %s\n", obj.Key)
		} else {
			toTransfer++
			fmt.Printf("(dry run) transfer: %s\n", obj.Key)
		}
	}

	log.Info().Int("transfer", toTransfer).Int("skip", toSkip).Msg("dry run complete")
	return nil
}
