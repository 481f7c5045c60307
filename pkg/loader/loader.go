// Package loader implements the page-saving pipeline: fetch one page,
// discover its same-host embedded resources, download them concurrently,
// rewrite the markup to reference the local copies, and persist everything
// under the output directory.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pagesaver/pkg/cache"
	"pagesaver/pkg/errs"
	"pagesaver/pkg/extract"
	"pagesaver/pkg/fetch"
	"pagesaver/pkg/naming"
	"pagesaver/pkg/progress"
)

// Options carries the optional collaborators of a Loader. The zero value
// is usable: downloads run as a silent concurrent join, logging is a
// no-op, robots.txt is not consulted, and no download cache is kept.
type Options struct {
	Runner progress.Runner      // Executes the download batch (default: silent join)
	Robots *fetch.RobotsHandler // When set, disallowed resources are skipped
	Store  cache.ResourceStore  // When set, successful downloads are reused across runs
	Log    *logrus.Logger       // Trace sink (default: discard)
}

// Loader sequences one page-load invocation.
type Loader struct {
	fetcher *fetch.Fetcher
	runner  progress.Runner
	robots  *fetch.RobotsHandler
	store   cache.ResourceStore
	log     *logrus.Logger
}

// New creates a Loader around the given Fetcher.
func New(fetcher *fetch.Fetcher, opts Options) *Loader {
	runner := opts.Runner
	if runner == nil {
		runner = progress.SilentRunner{}
	}
	log := opts.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Loader{
		fetcher: fetcher,
		runner:  runner,
		robots:  opts.Robots,
		store:   opts.Store,
		log:     log,
	}
}

// Load fetches pageURL, saves it with its local resources under outputDir,
// and returns the absolute path of the saved page. The output directory
// must already exist. The first failure encountered (page fetch, directory
// creation, any resource download, final write) aborts the whole
// operation; nothing is retried and partially written resource files are
// not rolled back.
func (l *Loader) Load(ctx context.Context, pageURL, outputDir string) (string, error) {
	runLog := l.log.WithFields(logrus.Fields{"run_id": uuid.NewString(), "page_url": pageURL})

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: parsing page URL '%s': %v", errs.ErrInvalidInput, pageURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("%w: page URL '%s' must use http or https", errs.ErrInvalidInput, pageURL)
	}
	if base.Host == "" {
		return "", fmt.Errorf("%w: page URL '%s' has no host", errs.ErrInvalidInput, pageURL)
	}

	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("%w: resolving output directory '%s': %v", errs.ErrInvalidInput, outputDir, err)
	}

	pageName, err := naming.PageFilename(pageURL)
	if err != nil {
		return "", err
	}
	dirName, err := naming.ResourcesDirName(pageURL)
	if err != nil {
		return "", err
	}

	runLog.Info("Fetching page...")
	body, err := l.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: parsing HTML of '%s': %v", errs.ErrInvalidInput, pageURL, err)
	}

	refs := extract.Resources(doc, base, runLog)

	// With no local resources the original bytes pass through untouched
	// and no resources directory is created.
	out := body
	if len(refs) > 0 {
		out, err = l.downloadResources(ctx, doc, base, refs, absOut, dirName, runLog)
		if err != nil {
			return "", err
		}
	}

	pagePath := filepath.Join(absOut, pageName)
	if err := os.WriteFile(pagePath, out, 0644); err != nil {
		return "", &errs.StorageError{Path: pagePath, Err: err}
	}
	runLog.WithField("path", pagePath).Info("Page saved")
	return pagePath, nil
}
