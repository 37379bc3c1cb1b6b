package helix

import (
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// LeveledZap адаптирует zap к retryablehttp.LeveledLogger.
type LeveledZap struct {
	inner *zap.SugaredLogger
}

// ошибки HTTP клиента пишем как WARN: после них обычно идёт повтор
func (l LeveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l LeveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l LeveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Infow(msg, keysAndValues...)
}

func (l LeveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

// ClientOption настраивает retryablehttp клиент.
type ClientOption func(*retryablehttp.Client)

// WithRetryWait задаёт границы паузы между попытками.
func WithRetryWait(waitMin, waitMax time.Duration) ClientOption {
	return func(client *retryablehttp.Client) {
		client.RetryWaitMin = waitMin
		client.RetryWaitMax = waitMax
	}
}

// WithTimeout задаёт таймаут одной попытки.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(client *retryablehttp.Client) {
		client.HTTPClient.Timeout = timeout
	}
}

func newRetryClient(logger *zap.Logger, opts ...ClientOption) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = MaxRetries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = retryablehttp.LeveledLogger(LeveledZap{inner: logger.Sugar()})
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	for _, opt := range opts {
		opt(client)
	}
	return client
}
