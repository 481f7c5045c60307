package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// ErrInvalidInput marks malformed caller input (bad page URL, unresolvable
// reference). Wraps the underlying parse error.
var ErrInvalidInput = errors.New("invalid input")

// TransferStatusError reports a fetch that completed with a non-success
// HTTP status code.
type TransferStatusError struct {
	URL        string
	StatusCode int
}

func (e *TransferStatusError) Error() string {
	return fmt.Sprintf("fetch '%s' returned status %d", e.URL, e.StatusCode)
}

// ConnectivityError reports a fetch that could not obtain any response
// (DNS failure, refused connection, timeout).
type ConnectivityError struct {
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("fetch '%s' failed: %v", e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// StorageError reports a local directory-create or file-write failure.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation on '%s' failed: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Categorize maps an error to a predefined category string for logging/metrics.
func Categorize(err error) string {
	if err == nil {
		return "None"
	}

	var statusErr *TransferStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == 404:
			return "HTTP_404"
		case statusErr.StatusCode == 403:
			return "HTTP_403"
		case statusErr.StatusCode >= 500:
			return "HTTP_5xx"
		case statusErr.StatusCode >= 400:
			return "HTTP_4xx"
		}
		return "HTTP_OtherStatus"
	}

	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		underlying := connErr.Err
		var netErr net.Error
		if errors.As(underlying, &netErr) && netErr.Timeout() {
			return "Network_Timeout"
		}
		msg := strings.ToLower(connErr.Error())
		switch {
		case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
			return "Network_Timeout"
		case strings.Contains(msg, "connection refused"):
			return "Network_ConnectionRefused"
		case strings.Contains(msg, "no such host"):
			return "Network_DNSLookup"
		case strings.Contains(msg, "reset by peer"):
			return "Network_ConnectionReset"
		case strings.Contains(msg, "tls"), strings.Contains(msg, "certificate"):
			return "Network_TLS"
		}
		return "Network_Other"
	}

	var storeErr *StorageError
	if errors.As(err, &storeErr) {
		switch {
		case errors.Is(storeErr.Err, os.ErrPermission):
			return "Filesystem_Permission"
		case errors.Is(storeErr.Err, os.ErrNotExist):
			return "Filesystem_NotExist"
		case errors.Is(storeErr.Err, os.ErrExist):
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return "Input_Validation"
	case errors.Is(err, context.Canceled):
		return "System_ContextCanceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "System_ContextDeadlineExceeded"
	}

	return "Unknown"
}
