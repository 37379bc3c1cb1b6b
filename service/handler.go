package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"twitch-chat-moderator/model"
)

// Moderator выносит вердикт по сообщению.
type Moderator interface {
	Moderate(ctx context.Context, text, messageID, senderID string) (model.Verdict, error)
}

// Dispatcher разрешает команды.
type Dispatcher interface {
	Dispatch(text string) (string, bool)
}

// Sayer отправляет ответ в канал.
type Sayer interface {
	Say(ctx context.Context, channel, text string) error
}

// Recorder принимает записи журнала модерации.
type Recorder interface {
	Enqueue(model.ModerationRecord) bool
}

// AlertSink сохраняет алерты о неудачном удалении.
type AlertSink interface {
	SaveRemovalAlert(ctx context.Context, record model.ModerationRecord) error
}

// Handler реализует twitch.Handler: сначала модерация, затем команды.
type Handler struct {
	moderator  Moderator
	dispatcher Dispatcher
	sayer      Sayer
	recorder   Recorder
	alerts     AlertSink
	logger     *zap.Logger
}

// HandlerOption подключает необязательный журнал модерации.
type HandlerOption func(*Handler)

// WithRecorder пишет каждый вердикт в журнал модерации.
func WithRecorder(recorder Recorder) HandlerOption {
	return func(h *Handler) { h.recorder = recorder }
}

// WithAlertSink сохраняет алерт при каждом неудачном удалении.
func WithAlertSink(alerts AlertSink) HandlerOption {
	return func(h *Handler) { h.alerts = alerts }
}

// NewHandler собирает Handler, используемый Twitch колбэками.
func NewHandler(moderator Moderator, dispatcher Dispatcher, sayer Sayer, logger *zap.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		moderator:  moderator,
		dispatcher: dispatcher,
		sayer:      sayer,
		logger:     logger.Named("handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleChat модерирует сообщение, затем независимо от вердикта выполняет команду.
// Команда стартует только после завершения модерации. Собственные сообщения
// бота игнорируются целиком.
func (h *Handler) HandleChat(ctx context.Context, msg model.ChatMessage) {
	if msg.IsSelf {
		return
	}

	h.moderate(ctx, msg)

	if reply, ok := h.dispatcher.Dispatch(msg.Text); ok {
		h.say(ctx, msg.Channel, reply)
	}
}

func (h *Handler) moderate(ctx context.Context, msg model.ChatMessage) {
	verdict, err := h.moderator.Moderate(ctx, msg.Text, msg.ID, msg.UserID)
	if err != nil {
		h.logger.Error("MODERATION FAILURE",
			zap.String("message_id", msg.ID),
			zap.String("channel", msg.Channel),
			zap.Error(err),
		)
		return
	}

	h.logger.Info("moderation verdict",
		zap.String("message_id", msg.ID),
		zap.String("channel", msg.Channel),
		zap.String("user", msg.Username),
		zap.Bool("allowed", verdict.Allowed),
		zap.Bool("removed", verdict.Removed),
	)
	h.record(ctx, msg, verdict)

	if verdict.Removed {
		h.say(ctx, msg.Channel, removalNotice(msg))
	}
}

// HandleNotice ничего не делает сверх логирования в клиенте.
func (h *Handler) HandleNotice(context.Context, model.Notice) {}

func (h *Handler) record(ctx context.Context, msg model.ChatMessage, verdict model.Verdict) {
	rec := model.ModerationRecord{
		MessageID: msg.ID,
		Channel:   msg.Channel,
		UserID:    msg.UserID,
		Username:  msg.Username,
		Text:      msg.Text,
		Allowed:   verdict.Allowed,
		Removed:   verdict.Removed,
		DecidedAt: time.Now().UTC(),
	}

	if verdict.RemovalFailed() {
		h.logger.Error("REMOVAL FAILURE", zap.String("message_id", msg.ID), zap.String("channel", msg.Channel))
		if h.alerts != nil {
			if err := h.alerts.SaveRemovalAlert(ctx, rec); err != nil {
				h.logger.Warn("save removal alert failed", zap.String("message_id", msg.ID), zap.Error(err))
			}
		}
	}

	if h.recorder != nil {
		if ok := h.recorder.Enqueue(rec); !ok {
			h.logger.Warn("moderation record dropped", zap.String("message_id", msg.ID))
		}
	}
}

func (h *Handler) say(ctx context.Context, channel, text string) {
	if err := h.sayer.Say(ctx, channel, text); err != nil {
		h.logger.Warn("say failed", zap.String("channel", channel), zap.Error(err))
	}
}

func removalNotice(msg model.ChatMessage) string {
	name := msg.DisplayName
	if name == "" {
		name = msg.Username
	}
	return fmt.Sprintf("@%s, your message was removed by the moderation filter.", name)
}
