package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"pagesaver/pkg/errs"
)

// Fetcher performs outbound retrieval, translating failures into the typed
// failure kinds in pkg/errs. A non-2xx status with a response becomes a
// TransferStatusError; a request that never obtained a response becomes a
// ConnectivityError. Bodies are returned as raw bytes with no charset
// reinterpretation, so binary payloads survive untouched.
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       *logrus.Logger
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(client *http.Client, userAgent string, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch performs a single GET for the given URL. No retries: the first
// failure is classified and returned as-is.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	reqLog := f.log.WithField("url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request for '%s': %v", errs.ErrInvalidInput, rawURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		reqLog.WithField("category", errs.Categorize(err)).Debugf("Request failed: %v", err)
		return nil, &errs.ConnectivityError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	resLog := reqLog.WithFields(logrus.Fields{"status_code": resp.StatusCode, "status": resp.Status})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resLog.Debug("Non-success status")
		io.Copy(io.Discard, resp.Body)
		return nil, &errs.TransferStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		resLog.Debugf("Body read failed: %v", err)
		return nil, &errs.ConnectivityError{URL: rawURL, Err: err}
	}

	resLog.WithField("bytes", len(body)).Debug("Successfully fetched")
	return body, nil
}
