package service

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
)

// MaxConnectRetries задаёт число повторов подключения после первой попытки.
const MaxConnectRetries = 3

// Connector поднимает чат-сессию.
type Connector interface {
	Connect(ctx context.Context) error
}

// Lifecycle подключает сессию с ограниченным числом попыток.
// Без живой сессии работать нечему, поэтому исчерпание попыток завершает процесс.
type Lifecycle struct {
	connector Connector
	backoff   time.Duration
	exit      func(code int)
	logger    *zap.Logger
}

// LifecycleOption настраивает Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithBackoff задаёт паузу между попытками.
func WithBackoff(d time.Duration) LifecycleOption {
	return func(l *Lifecycle) { l.backoff = d }
}

// WithExit подменяет os.Exit.
func WithExit(exit func(code int)) LifecycleOption {
	return func(l *Lifecycle) { l.exit = exit }
}

// NewLifecycle создаёт менеджер подключения; по умолчанию пауза 2с и os.Exit.
func NewLifecycle(connector Connector, logger *zap.Logger, opts ...LifecycleOption) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Lifecycle{
		connector: connector,
		backoff:   2 * time.Second,
		exit:      os.Exit,
		logger:    logger.Named("lifecycle"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Connect возвращает true после успешного подключения.
// После MaxConnectRetries+1 неудач вызывает exit с ненулевым кодом.
// Отмена ctx прерывает попытки без exit.
func (l *Lifecycle) Connect(ctx context.Context) bool {
	for attempt := 1; attempt <= MaxConnectRetries+1; attempt++ {
		err := l.connector.Connect(ctx)
		if err == nil {
			l.logger.Info("chat session established", zap.Int("attempt", attempt))
			return true
		}
		l.logger.Warn("chat connection failed", zap.Int("attempt", attempt), zap.Error(err))

		if ctx.Err() != nil {
			return false
		}
		if attempt <= MaxConnectRetries && l.backoff > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(l.backoff):
			}
		}
	}

	l.logger.Error("could not establish chat session, exiting", zap.Int("attempts", MaxConnectRetries+1))
	_ = l.logger.Sync()
	l.exit(1)
	return false
}
