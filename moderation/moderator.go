package moderation

import (
	"context"

	"go.uber.org/zap"

	"twitch-chat-moderator/model"
)

// Decider выносит решение по тексту сообщения.
type Decider interface {
	Decide(ctx context.Context, text string) (bool, error)
}

// Remover удаляет сообщение из чата.
type Remover interface {
	Remove(ctx context.Context, messageID string) bool
}

// Moderator объединяет решение и удаление в один вердикт.
type Moderator struct {
	decider Decider
	remover Remover
	logger  *zap.Logger
}

// NewModerator собирает Moderator из движка решений и удалителя сообщений.
func NewModerator(decider Decider, remover Remover, logger *zap.Logger) *Moderator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Moderator{decider: decider, remover: remover, logger: logger.Named("moderation")}
}

// Moderate выносит вердикт и удаляет недопустимое сообщение.
// Ошибка решения возвращается как есть, удаление при этом не выполняется.
func (m *Moderator) Moderate(ctx context.Context, text, messageID, senderID string) (model.Verdict, error) {
	allowed, err := m.decider.Decide(ctx, text)
	if err != nil {
		return model.Verdict{}, err
	}

	if allowed {
		m.logger.Debug("message allowed", zap.String("message_id", messageID), zap.String("sender_id", senderID))
		return model.Verdict{Allowed: true}, nil
	}

	removed := m.remover.Remove(ctx, messageID)
	m.logger.Info("message denied",
		zap.String("message_id", messageID),
		zap.String("sender_id", senderID),
		zap.Bool("removed", removed),
	)
	return model.Verdict{Allowed: false, Removed: removed}, nil
}
