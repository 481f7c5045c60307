package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pagesaver/pkg/cache"
	"pagesaver/pkg/config"
	"pagesaver/pkg/errs"
	"pagesaver/pkg/fetch"
	"pagesaver/pkg/loader"
	"pagesaver/pkg/progress"
)

var (
	outputDir     string
	noProgress    bool
	logLevel      string
	configFile    string
	cacheDir      string
	respectRobots bool
)

func newRootCmd(log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagesaver <url>",
		Short: "Download a web page with its local resources for offline viewing",
		Long: `pagesaver fetches a single web page, downloads its same-host images,
scripts, stylesheets and canonical links, rewrites the markup to reference
the local copies, and saves everything under the output directory.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], log)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to save the page into (must exist)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the download progress bar")
	cmd.Flags().StringVar(&logLevel, "loglevel", "error", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&configFile, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory for the download-status cache (disabled when empty)")
	cmd.Flags().BoolVar(&respectRobots, "respect-robots", false, "Skip resources disallowed by robots.txt")
	return cmd
}

func run(ctx context.Context, pageURL string, log *logrus.Logger) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.Warnf("Invalid log level '%s', using 'error'", logLevel)
		level = logrus.ErrorLevel
	}
	log.SetLevel(level)

	cfg := config.Default()
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if respectRobots {
		cfg.RespectRobots = true
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	client := fetch.NewClient(cfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(client, cfg.UserAgent, log)

	opts := loader.Options{Log: log}
	if noProgress {
		opts.Runner = progress.SilentRunner{Limit: cfg.Concurrency}
	} else {
		opts.Runner = progress.BarRunner{Limit: cfg.Concurrency}
	}
	if cfg.RespectRobots {
		opts.Robots = fetch.NewRobotsHandler(fetcher, cfg.UserAgent, log.WithField("component", "robots"))
	}
	if cfg.CacheDir != "" {
		store, err := cache.NewBadgerStore(cfg.CacheDir, log.WithField("component", "cache"))
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	savedPath, err := loader.New(fetcher, opts).Load(ctx, pageURL, outputDir)
	if err != nil {
		return err
	}
	fmt.Println(savedPath)
	return nil
}

// renderError produces the one-line message shown on stderr for each of
// the closed failure kinds.
func renderError(err error) string {
	var statusErr *errs.TransferStatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("error: '%s' responded with status %d", statusErr.URL, statusErr.StatusCode)
	}
	var connErr *errs.ConnectivityError
	if errors.As(err, &connErr) {
		return fmt.Sprintf("error: could not reach '%s': %v", connErr.URL, connErr.Err)
	}
	var storeErr *errs.StorageError
	if errors.As(err, &storeErr) {
		return fmt.Sprintf("error: cannot write '%s': %v", storeErr.Path, storeErr.Err)
	}
	return fmt.Sprintf("error: %v", err)
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.ErrorLevel)

	if err := newRootCmd(log).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}
