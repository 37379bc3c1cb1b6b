package moderation

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultMaxLength: сообщения длиннее отклоняются без обращения к классификатору.
const DefaultMaxLength = 1024

// ErrClassifier оборачивает ошибки внешнего классификатора.
var ErrClassifier = errors.New("moderation: classifier failed")

// Classifier описывает внешний сервис классификации.
type Classifier interface {
	Classify(ctx context.Context, policy, text string) (string, error)
}

// Engine принимает решение, допустимо ли сообщение.
type Engine struct {
	classifier Classifier
	policy     string
	maxLength  int
	logger     *zap.Logger
}

// NewEngine создает Engine. maxLength <= 0 означает DefaultMaxLength.
func NewEngine(classifier Classifier, maxLength int, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Engine{
		classifier: classifier,
		policy:     Policy,
		maxLength:  maxLength,
		logger:     logger.Named("moderation"),
	}
}

// Decide возвращает true, если сообщение допустимо.
// Нераспознанный ответ классификатора считается запретом.
func (e *Engine) Decide(ctx context.Context, text string) (bool, error) {
	if n := utf8.RuneCountInString(text); n > e.maxLength {
		e.logger.Info("message too long, rejected", zap.Int("length", n), zap.Int("max_length", e.maxLength))
		return false, nil
	}

	raw, err := e.classifier.Classify(ctx, e.policy, text)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrClassifier, err)
	}

	allowed, ok := ParseVerdict(raw)
	if !ok {
		e.logger.Warn("unparseable classifier verdict, rejecting", zap.String("verdict", raw))
		return false, nil
	}
	return allowed, nil
}
