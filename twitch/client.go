package twitch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"twitch-chat-moderator/model"
	"twitch-chat-moderator/tokens"
)

var (
	// ErrConnectTimeout: сессия не поднялась за отведённое время.
	ErrConnectTimeout = errors.New("twitch: connect timeout")
	// ErrNotConnected возвращается до первого Connect.
	ErrNotConnected = errors.New("twitch: not connected")
)

// Handler принимает Twitch-события, преобразованные в доменные модели.
type Handler interface {
	HandleChat(context.Context, model.ChatMessage)
	HandleNotice(context.Context, model.Notice)
}

// SessionSource выдаёт актуальный блок идентификации перед каждым подключением.
type SessionSource interface {
	SessionConfig() tokens.SessionConfig
}

// Client оборачивает go-twitch-irc и настраивает обработчики.
// Каждая попытка подключения получает собственный IRC-клиент: библиотека
// не допускает двух Connect на одном экземпляре.
type Client struct {
	session        SessionSource
	handler        Handler
	botUsername    string
	botID          string
	limiter        *rate.Limiter
	connectTimeout time.Duration
	stopTimeout    time.Duration
	// пустой адрес означает боевой irc.chat.twitch.tv с TLS
	ircAddress string
	logger     *zap.Logger

	mu      sync.Mutex
	current *attempt
	baseCtx context.Context
}

type attempt struct {
	irc       *twitchirc.Client
	connected chan struct{}
	finished  chan struct{}
	err       error
	stopOnce  sync.Once
}

// NewClient готовит клиент и запоминает логин бота для распознавания своих сообщений.
func NewClient(session SessionSource, botID string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		session:     session,
		botUsername: strings.ToLower(session.SessionConfig().Username),
		botID:       botID,
		// лимит Twitch для обычного аккаунта: 20 сообщений за 30 секунд
		limiter:        rate.NewLimiter(rate.Every(1500*time.Millisecond), 20),
		connectTimeout: 30 * time.Second,
		stopTimeout:    5 * time.Second,
		logger:         logger.Named("twitch"),
	}
}

// SetHandler регистрирует обработчик событий. Вызывается до Connect.
func (c *Client) SetHandler(handler Handler) {
	c.handler = handler
}

// SyncToken передаёт активному IRC-клиенту текущий токен из хранилища.
// go-twitch-irc переподключается сам, и без этого повторный логин ушёл бы
// со старым токеном.
func (c *Client) SyncToken() {
	if a := c.active(); a != nil {
		a.irc.SetIRCToken(c.session.SessionConfig().Password)
	}
}

// Connect поднимает IRC сессию с актуальным токеном и ждёт подтверждения подключения.
// Предыдущая попытка, если она была, останавливается до старта новой.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	prev := c.current
	c.baseCtx = ctx
	c.mu.Unlock()

	if prev != nil {
		c.stop(prev)
	}

	a := c.newAttempt()
	c.mu.Lock()
	c.current = a
	c.mu.Unlock()

	go func() {
		a.err = a.irc.Connect()
		close(a.finished)
	}()

	timer := time.NewTimer(c.connectTimeout)
	defer timer.Stop()

	select {
	case <-a.connected:
		return nil
	case <-a.finished:
		err := a.err
		if err == nil {
			err = errors.New("twitch: connection closed")
		}
		return fmt.Errorf("twitch: connect: %w", err)
	case <-timer.C:
		c.stop(a)
		return ErrConnectTimeout
	case <-ctx.Done():
		c.stop(a)
		return ctx.Err()
	}
}

// Wait блокируется до отмены контекста или обрыва сессии.
func (c *Client) Wait(ctx context.Context) error {
	a := c.active()
	if a == nil {
		return ErrNotConnected
	}

	select {
	case <-ctx.Done():
		c.stop(a)
		return ctx.Err()
	case <-a.finished:
		return a.err
	}
}

// Say отправляет сообщение в канал с учётом лимита Twitch.
// IRC не передаёт переводы строк, поэтому они заменяются пробелами.
func (c *Client) Say(ctx context.Context, channel, text string) error {
	a := c.active()
	if a == nil {
		return ErrNotConnected
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("twitch: say: %w", err)
	}
	a.irc.Say(channel, strings.Join(strings.Fields(text), " "))
	return nil
}

func (c *Client) newAttempt() *attempt {
	cfg := c.session.SessionConfig()
	irc := twitchirc.NewClient(cfg.Username, cfg.Password)
	if c.ircAddress != "" {
		irc.IrcAddress = c.ircAddress
		irc.TLS = false
	}

	a := &attempt{
		irc:       irc,
		connected: make(chan struct{}, 1),
		finished:  make(chan struct{}),
	}

	irc.OnPrivateMessage(func(m twitchirc.PrivateMessage) {
		if c.handler == nil || !c.isCurrent(a) {
			return
		}
		c.handler.HandleChat(c.context(), c.toChatMessage(m))
	})

	irc.OnConnect(func() {
		channels := c.session.SessionConfig().Channels
		c.logger.Info("connected", zap.Strings("channels", channels))
		irc.Join(channels...)
		select {
		case a.connected <- struct{}{}:
		default:
		}
	})

	// колбэк выполняется до того, как библиотека начнёт переподключение
	irc.OnReconnectMessage(func(message twitchirc.ReconnectMessage) {
		c.logger.Info("server requested reconnect", zap.Any("message", message))
		irc.SetIRCToken(c.session.SessionConfig().Password)
	})

	irc.OnNoticeMessage(func(msg twitchirc.NoticeMessage) {
		notice := toNotice(msg)
		c.logger.Info("notice", zap.String("channel", notice.Channel), zap.String("msg_id", notice.ID), zap.String("message", notice.Message))
		if c.handler != nil && c.isCurrent(a) {
			c.handler.HandleNotice(c.context(), notice)
		}
	})

	return a
}

// stop завершает попытку. go-twitch-irc принимает Disconnect только на
// поднятом соединении, поэтому вызов повторяется, пока Connect не вернётся.
func (c *Client) stop(a *attempt) {
	a.stopOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for {
				_ = a.irc.Disconnect()
				select {
				case <-a.finished:
					return
				case <-ticker.C:
				}
			}
		}()
	})

	timer := time.NewTimer(c.stopTimeout)
	defer timer.Stop()
	select {
	case <-a.finished:
	case <-timer.C:
		c.logger.Warn("previous irc session is still shutting down")
	}
}

func (c *Client) active() *attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Client) isCurrent(a *attempt) bool {
	return c.active() == a
}

func (c *Client) toChatMessage(m twitchirc.PrivateMessage) model.ChatMessage {
	sentAt := m.Time
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}

	return model.ChatMessage{
		ID:          m.ID,
		Channel:     normalizeChannel(m.Channel),
		UserID:      m.User.ID,
		Username:    m.User.Name,
		DisplayName: m.User.DisplayName,
		Text:        m.Message,
		IsMod:       m.User.Badges["moderator"] > 0 || m.User.Badges["broadcaster"] > 0,
		IsSelf:      isSelf(m.User, c.botUsername, c.botID),
		SentAt:      sentAt,
	}
}

func isSelf(user twitchirc.User, botUsername, botID string) bool {
	if botID != "" && user.ID == botID {
		return true
	}
	return botUsername != "" && strings.EqualFold(user.Name, botUsername)
}

func toNotice(msg twitchirc.NoticeMessage) model.Notice {
	return model.Notice{
		Channel: normalizeChannel(msg.Channel),
		ID:      msg.MsgID,
		Message: msg.Message,
	}
}

func normalizeChannel(ch string) string {
	return strings.TrimPrefix(strings.TrimSpace(ch), "#")
}

func (c *Client) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.baseCtx != nil {
		return c.baseCtx
	}
	return context.Background()
}
