package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesaver/pkg/errs"
)

// testLogger returns a logger that discards output
func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return NewFetcher(&http.Client{}, "pagesaver-test/1.0", testLogger())
}

func TestFetchSuccess(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>hello</html>"))
	}))
	t.Cleanup(server.Close)

	body, err := newTestFetcher(t).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>hello</html>", string(body))
	assert.Equal(t, "pagesaver-test/1.0", gotUA)
}

func TestFetchBinaryPayloadUntouched(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0xff, 0xfe}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png; charset=utf-8")
		w.Write(payload)
	}))
	t.Cleanup(server.Close)

	body, err := newTestFetcher(t).Fetch(context.Background(), server.URL+"/x.png")
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	pageURL := server.URL + "/missing"
	_, err := newTestFetcher(t).Fetch(context.Background(), pageURL)
	require.Error(t, err)

	var statusErr *errs.TransferStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.StatusCode)
	assert.Equal(t, pageURL, statusErr.URL)
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	_, err := newTestFetcher(t).Fetch(context.Background(), server.URL)
	var statusErr *errs.TransferStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 500, statusErr.StatusCode)
}

func TestFetchConnectivityFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close() // nothing listens here anymore

	_, err := newTestFetcher(t).Fetch(context.Background(), deadURL)
	require.Error(t, err)

	var connErr *errs.ConnectivityError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, deadURL, connErr.URL)
	assert.NotNil(t, connErr.Err)
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := newTestFetcher(t).Fetch(context.Background(), "http://%zz")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestFetchContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestFetcher(t).Fetch(ctx, server.URL)
	require.Error(t, err)

	var connErr *errs.ConnectivityError
	assert.ErrorAs(t, err, &connErr)
}
