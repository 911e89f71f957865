package requestutil

import (
	"context"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// NewRetryClient returns an HTTP client that retries connection
// errors and 5xx responses up to retries times with exponential
// backoff. The final response is returned as-is so that callers
// still see the status code.
func NewRetryClient(ctx context.Context, retries int) *http.Client {
	if retries <= 0 {
		return cleanhttp.DefaultPooledClient()
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient = cleanhttp.DefaultPooledClient()
	rc.RetryMax = retries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	log := logr.FromContextOrDiscard(ctx).WithName("http")
	rc.Logger = &leveledLogger{log: log}
	rc.ErrorHandler = func(resp *http.Response, err error, attempts int) (*http.Response, error) {
		if resp != nil {
			log.V(1).Info("giving up", "attempts", attempts, "status", resp.StatusCode)
			return resp, nil
		}
		return nil, err
	}
	return rc.StandardClient()
}

// leveledLogger adapts logr to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logr.Logger
}

var _ retryablehttp.LeveledLogger = &leveledLogger{}

func (l *leveledLogger) Error(msg string, keysAndValues ...any) {
	l.log.Error(nil, msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...any) {
	l.log.V(1).Info(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.log.V(4).Info(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.log.Info(msg, keysAndValues...)
}
