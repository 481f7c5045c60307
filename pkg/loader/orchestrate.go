package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"pagesaver/pkg/cache"
	"pagesaver/pkg/errs"
	"pagesaver/pkg/extract"
	"pagesaver/pkg/naming"
	"pagesaver/pkg/progress"
)

// ResourceJob pairs a resolved download URL with its computed local
// destination.
type ResourceJob struct {
	URL      string // Resolved absolute download URL
	Filename string // Local filename within the resources directory
	Dest     string // Absolute local destination path
}

// downloadResources rewrites every reference to its local path, then runs
// all downloads as one concurrent batch. Attribute rewriting happens
// before any download starts; the document is not touched again until the
// batch has settled. Any job failure fails the whole operation, so the
// mutated document is only serialized after every download succeeded.
func (l *Loader) downloadResources(
	ctx context.Context,
	doc *goquery.Document,
	base *url.URL,
	refs []extract.ResourceReference,
	absOut string,
	dirName string,
	runLog *logrus.Entry,
) ([]byte, error) {
	resourcesDir := filepath.Join(absOut, dirName)
	if err := os.Mkdir(resourcesDir, 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, &errs.StorageError{Path: resourcesDir, Err: err}
	}

	jobs := make([]progress.Job, 0, len(refs))
	for _, ref := range refs {
		refURL, err := url.Parse(ref.Ref)
		if err != nil {
			// The classifier already parsed this reference; a failure here
			// means the markup changed under us.
			return nil, fmt.Errorf("%w: resolving reference '%s': %v", errs.ErrInvalidInput, ref.Ref, err)
		}
		absURL := base.ResolveReference(refURL)

		if l.robots != nil && !l.robots.TestAgent(ctx, absURL) {
			runLog.WithField("resource_url", absURL.String()).Info("Skipping resource disallowed by robots.txt")
			continue
		}

		filename, err := naming.ResourceFilename(base.String(), ref.Ref)
		if err != nil {
			return nil, err
		}

		// Rewritten references are URL-shaped: forward slashes on every
		// platform.
		ref.Sel.SetAttr(ref.Attr, path.Join(dirName, filename))

		job := ResourceJob{
			URL:      absURL.String(),
			Filename: filename,
			Dest:     filepath.Join(resourcesDir, filename),
		}
		jobs = append(jobs, progress.Job{Title: job.URL, Run: l.resourceAction(job, runLog)})
	}

	runLog.WithField("count", len(jobs)).Info("Downloading resources...")
	if err := l.runner.Run(ctx, jobs); err != nil {
		return nil, err
	}

	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("%w: serializing document: %v", errs.ErrInvalidInput, err)
	}
	return []byte(html), nil
}

// resourceAction returns the run action for one ResourceJob. The action is
// invoked exactly once.
func (l *Loader) resourceAction(job ResourceJob, runLog *logrus.Entry) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		jobLog := runLog.WithFields(logrus.Fields{"resource_url": job.URL, "dest": job.Dest})

		if l.cachedOnDisk(job, jobLog) {
			jobLog.Debug("Cache hit, skipping download")
			return nil
		}

		body, err := l.fetcher.Fetch(ctx, job.URL)
		if err != nil {
			l.recordOutcome(job, err, jobLog)
			return err
		}

		if err := os.WriteFile(job.Dest, body, 0644); err != nil {
			storeErr := &errs.StorageError{Path: job.Dest, Err: err}
			l.recordOutcome(job, storeErr, jobLog)
			return storeErr
		}

		l.recordOutcome(job, nil, jobLog)
		jobLog.WithField("bytes", len(body)).Debug("Saved resource")
		return nil
	}
}

// cachedOnDisk reports whether the store knows this URL as a success and
// the file is still present at the expected destination.
func (l *Loader) cachedOnDisk(job ResourceJob, jobLog *logrus.Entry) bool {
	if l.store == nil {
		return false
	}
	entry, err := l.store.CheckResource(job.URL)
	if err != nil {
		jobLog.Warnf("Cache lookup failed: %v", err)
		return false
	}
	if entry == nil || entry.Status != cache.StatusSuccess || entry.Filename != job.Filename {
		return false
	}
	if _, statErr := os.Stat(job.Dest); statErr != nil {
		return false
	}
	return true
}

func (l *Loader) recordOutcome(job ResourceJob, taskErr error, jobLog *logrus.Entry) {
	if l.store == nil {
		return
	}
	entry := &cache.ResourceEntry{LastAttempt: time.Now()}
	if taskErr == nil {
		entry.Status = cache.StatusSuccess
		entry.Filename = job.Filename
	} else {
		entry.Status = cache.StatusFailure
		entry.ErrorType = errs.Categorize(taskErr)
	}
	if err := l.store.UpdateResource(job.URL, entry); err != nil {
		jobLog.Warnf("Cache update failed: %v", err)
	}
}
