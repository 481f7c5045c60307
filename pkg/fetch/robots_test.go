package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRobotsServer(t *testing.T, robotsBody string, robotsStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	robotsFetches := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsFetches.Add(1)
			if robotsStatus != http.StatusOK {
				w.WriteHeader(robotsStatus)
				return
			}
			w.Write([]byte(robotsBody))
			return
		}
		w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)
	return server, robotsFetches
}

func newTestRobotsHandler(t *testing.T, userAgent string) *RobotsHandler {
	t.Helper()
	log := testLogger()
	fetcher := NewFetcher(&http.Client{}, userAgent, log)
	return NewRobotsHandler(fetcher, userAgent, log.WithField("component", "robots"))
}

func TestRobotsDisallowed(t *testing.T) {
	server, _ := newRobotsServer(t, "User-agent: *\nDisallow: /private/\n", http.StatusOK)
	rh := newTestRobotsHandler(t, "pagesaver-test/1.0")

	blocked, err := url.Parse(server.URL + "/private/x.png")
	require.NoError(t, err)
	allowed, err := url.Parse(server.URL + "/img/x.png")
	require.NoError(t, err)

	assert.False(t, rh.TestAgent(context.Background(), blocked))
	assert.True(t, rh.TestAgent(context.Background(), allowed))
}

func TestRobotsMissingAllowsAll(t *testing.T) {
	server, _ := newRobotsServer(t, "", http.StatusNotFound)
	rh := newTestRobotsHandler(t, "pagesaver-test/1.0")

	target, err := url.Parse(server.URL + "/anything")
	require.NoError(t, err)
	assert.True(t, rh.TestAgent(context.Background(), target))
}

func TestRobotsCachedPerHost(t *testing.T) {
	server, robotsFetches := newRobotsServer(t, "User-agent: *\nDisallow:\n", http.StatusOK)
	rh := newTestRobotsHandler(t, "pagesaver-test/1.0")

	for i := 0; i < 5; i++ {
		target, err := url.Parse(server.URL + "/page")
		require.NoError(t, err)
		assert.True(t, rh.TestAgent(context.Background(), target))
	}
	assert.Equal(t, int32(1), robotsFetches.Load())
}
