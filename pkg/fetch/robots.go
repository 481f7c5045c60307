package fetch

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"pagesaver/pkg/errs"
)

// RobotsHandler manages fetching, parsing, caching, and checking robots.txt
// data. One cache entry per host; a nil entry means the host's robots.txt
// was missing or unreadable, which is treated as allow-all.
type RobotsHandler struct {
	fetcher       *Fetcher
	userAgent     string
	robotsCache   map[string]*robotstxt.RobotsData // hostname -> parsed data (or nil)
	robotsCacheMu sync.Mutex
	log           *logrus.Entry
}

// NewRobotsHandler creates a RobotsHandler
func NewRobotsHandler(fetcher *Fetcher, userAgent string, log *logrus.Entry) *RobotsHandler {
	return &RobotsHandler{
		fetcher:     fetcher,
		userAgent:   userAgent,
		robotsCache: make(map[string]*robotstxt.RobotsData),
		log:         log,
	}
}

// getRobotsData retrieves robots.txt data for the targetURL's host, using
// cache or fetching. Returns nil (allow-all) on any fetch error or 4xx.
func (rh *RobotsHandler) getRobotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	host := targetURL.Hostname()

	rh.robotsCacheMu.Lock()
	robotsData, found := rh.robotsCache[host]
	rh.robotsCacheMu.Unlock()
	if found {
		return robotsData
	}

	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	if robotsURL.Scheme != "http" && robotsURL.Scheme != "https" {
		robotsURL.Scheme = "https"
	}
	robotsLog := rh.log.WithFields(logrus.Fields{"host": host, "robots_url": robotsURL.String()})
	robotsLog.Debug("Fetching robots.txt...")

	body, err := rh.fetcher.Fetch(ctx, robotsURL.String())
	if err != nil {
		var statusErr *errs.TransferStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			robotsLog.Debugf("robots.txt returned %d, allowing all", statusErr.StatusCode)
		} else {
			robotsLog.Debugf("robots.txt fetch failed (%v), allowing all", err)
		}
		rh.storeInCache(host, nil)
		return nil
	}

	robotsData, parseErr := robotstxt.FromBytes(body)
	if parseErr != nil {
		robotsLog.Warnf("Failed parsing robots.txt: %v. Allowing all.", parseErr)
		robotsData = nil
	}
	rh.storeInCache(host, robotsData)
	return robotsData
}

func (rh *RobotsHandler) storeInCache(host string, data *robotstxt.RobotsData) {
	rh.robotsCacheMu.Lock()
	rh.robotsCache[host] = data
	rh.robotsCacheMu.Unlock()
}

// TestAgent reports whether the configured user agent may fetch targetURL
// according to the host's robots.txt. Missing or unreadable robots.txt
// allows everything.
func (rh *RobotsHandler) TestAgent(ctx context.Context, targetURL *url.URL) bool {
	robotsData := rh.getRobotsData(ctx, targetURL)
	if robotsData == nil {
		return true
	}
	return robotsData.TestAgent(targetURL.Path, rh.userAgent)
}
