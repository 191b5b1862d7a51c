package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/httpsfix/pkg/config"
	"github.com/walteh/httpsfix/pkg/log"
	"github.com/walteh/httpsfix/pkg/report"
	"github.com/walteh/httpsfix/pkg/rewrite"
)

// ErrFilesFailed is returned when --fail-on-error is set and a file could not be processed
var ErrFilesFailed = errors.Base("files failed")

// newRootCmd creates the root command. Flag defaults come from cfg, so
// flags override environment values.
func newRootCmd(cfg *config.Config, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "httpsfix [root]",
		Short: "Rewrite insecure http:// links to https:// in source files",
		Long: `httpsfix scans a directory tree for files with the given extension and
replaces insecure http://www.aspectsecurity.com references with https.
It will:
1. Find every matching file under the root
2. Apply the built-in rules to each file
3. Rewrite only the files whose content changed
4. Print a summary of the scanned and fixed files

Files are rewritten in place without backups.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Root = args[0]
			}
			cfg.Normalize()
			if err := cfg.Validate(); err != nil {
				return errors.Errorf("invalid configuration: %w", err)
			}

			ctx := setupLogging(cmd.Context(), cfg.Debug, stderr)
			return runScan(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	addRootFlags(cmd, cfg)
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// addRootFlags binds the command flags to cfg
func addRootFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	flags.StringVarP(&cfg.Root, "root", "r", cfg.Root, "directory to scan (env HTTPSFIX_ROOT)")
	flags.StringVarP(&cfg.Extension, "ext", "e", cfg.Extension, "file extension to scan (env HTTPSFIX_EXTENSION)")
	flags.StringSliceVar(&cfg.Excludes, "exclude", cfg.Excludes, "glob of relative paths to skip, repeatable (env HTTPSFIX_EXCLUDE)")
	flags.StringVar(&cfg.Encoding, "encoding", cfg.Encoding, "charset of the scanned files (env HTTPSFIX_ENCODING)")
	flags.StringVarP(&cfg.Format, "format", "f", cfg.Format, "summary format: text, json or yaml (env HTTPSFIX_FORMAT)")
	flags.BoolVarP(&cfg.DryRun, "dry-run", "n", cfg.DryRun, "report files that would be fixed without writing (env HTTPSFIX_DRY_RUN)")
	flags.BoolVar(&cfg.FailOnError, "fail-on-error", cfg.FailOnError, "exit non-zero if any file could not be processed (env HTTPSFIX_FAIL_ON_ERROR)")
	flags.BoolVarP(&cfg.Debug, "debug", "d", cfg.Debug, "enable debug logging (env HTTPSFIX_DEBUG)")
}

// setupLogging attaches a zerolog logger to ctx
func setupLogging(ctx context.Context, debug bool, w io.Writer) context.Context {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor}).
		Level(level).
		With().Timestamp().
		Logger()
	return logger.WithContext(ctx)
}

// runScan runs the rewriter over cfg.Root and writes the summary to stdout
func runScan(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	codec, err := cfg.Codec()
	if err != nil {
		return errors.Errorf("resolving encoding: %w", err)
	}

	// machine-readable summaries keep stdout clean
	console := stdout
	if cfg.Format != report.FormatText {
		console = stderr
	}

	userLogger := log.New(console, *zerolog.Ctx(ctx))
	userLogger.SetDryRun(cfg.DryRun)
	userLogger.Header(fmt.Sprintf("scanning %s", cfg))
	if cfg.DryRun {
		userLogger.Info("dry run, no files will be written")
	}

	rw, err := rewrite.NewRewriter(rewrite.Options{
		Extension: cfg.Extension,
		Excludes:  cfg.Excludes,
		Codec:     codec,
		DryRun:    cfg.DryRun,
		Reporter:  userLogger,
	})
	if err != nil {
		return errors.Errorf("creating rewriter: %w", err)
	}

	result, runErr := rw.Run(ctx, rewrite.NewOSFileSystem(cfg.Root))
	if result == nil {
		return errors.Errorf("scanning %s: %w", cfg.Root, runErr)
	}

	if err := report.Write(stdout, cfg.Format, result); err != nil {
		return errors.Errorf("writing summary: %w", err)
	}

	if runErr != nil {
		return errors.Errorf("scanning %s: %w", cfg.Root, runErr)
	}

	reportOutcome(userLogger, cfg, result)

	return checkFailures(cfg, result)
}

// reportOutcome prints a one-line verdict after the summary
func reportOutcome(l *log.Logger, cfg *config.Config, result *rewrite.ScanResult) {
	switch {
	case result.HasFailures():
		l.Warningf("%d file(s) could not be processed", len(result.Failed))
	case result.Scanned == 0:
		l.Warningf("no %s files found under %s", cfg.Extension, cfg.Root)
	case len(result.Fixed) == 0:
		l.Success("nothing to fix")
	case result.DryRun:
		l.Infof("%d file(s) would be fixed, rerun without --dry-run to write them", len(result.Fixed))
	default:
		l.Successf("fixed %d file(s)", len(result.Fixed))
	}
}

// checkFailures applies the --fail-on-error policy
func checkFailures(cfg *config.Config, result *rewrite.ScanResult) error {
	if !cfg.FailOnError || !result.HasFailures() {
		return nil
	}
	return errors.Errorf("%w: %d of %d file(s) could not be processed", ErrFilesFailed, len(result.Failed), result.Scanned)
}
