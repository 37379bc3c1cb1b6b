package helix

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.twitch.tv/helix"

// MaxRetries задаёт число повторов после первой попытки.
const MaxRetries = 3

// Credentials отдаёт учётные данные для запросов к Helix.
// Токен читается перед каждой попыткой.
type Credentials interface {
	AccessToken() string
	AppID() string
	BotID() string
	BroadcasterID() string
}

// Refresher обновляет пару токенов после ответа 401.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Outcome описывает итог удаления сообщения.
type Outcome int

const (
	OutcomeRemoved Outcome = iota
	OutcomeRejected
	OutcomeExhausted
	OutcomeTransport
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRemoved:
		return "removed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeTransport:
		return "transport"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result описывает одно логическое удаление со всеми попытками.
type Result struct {
	Outcome    Outcome
	Attempts   int
	Refreshes  int
	StatusCode int
	Err        error
}

type attemptState struct {
	messageID string
	attempts  int
	refreshes int
}

type attemptStateKey struct{}

func stateFrom(ctx context.Context) *attemptState {
	if st, ok := ctx.Value(attemptStateKey{}).(*attemptState); ok {
		return st
	}
	return &attemptState{}
}

// Remover удаляет сообщения чата через Helix moderation API.
type Remover struct {
	client    *retryablehttp.Client
	creds     Credentials
	refresher Refresher
	baseURL   string
	logger    *zap.Logger
}

// NewRemover создает Remover. Пустой baseURL означает боевой Helix.
func NewRemover(creds Credentials, refresher Refresher, baseURL string, logger *zap.Logger, opts ...ClientOption) *Remover {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger = logger.Named("helix")

	r := &Remover{
		creds:     creds,
		refresher: refresher,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		logger:    logger,
	}

	client := newRetryClient(logger, opts...)
	client.CheckRetry = r.checkRetry
	// хук вызывается перед каждой попыткой, включая первую: здесь же
	// подставляется актуальный токен, уже после возможного refresh
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		stateFrom(req.Context()).attempts = attempt + 1
		r.sign(req)
	}
	client.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		st := stateFrom(resp.Request.Context())
		r.logger.Info("delete chat message attempt",
			zap.String("message_id", st.messageID),
			zap.Int("attempt", st.attempts),
			zap.Int("status", resp.StatusCode),
		)
	}
	r.client = client

	return r
}

// Remove удаляет сообщение и сообщает, удалось ли это.
func (r *Remover) Remove(ctx context.Context, messageID string) bool {
	return r.remove(ctx, messageID).Outcome == OutcomeRemoved
}

func (r *Remover) remove(ctx context.Context, messageID string) Result {
	st := &attemptState{messageID: messageID}
	ctx = context.WithValue(ctx, attemptStateKey{}, st)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodDelete, r.messageURL(messageID), nil)
	if err != nil {
		return r.finish(Result{Outcome: OutcomeTransport, Err: fmt.Errorf("helix: create request: %w", err)}, messageID)
	}

	resp, err := r.client.Do(req)
	result := Result{Attempts: st.attempts, Refreshes: st.refreshes}
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		result.Outcome = OutcomeTransport
		result.Err = fmt.Errorf("helix: delete chat message: %w", err)
		return r.finish(result, messageID)
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	switch resp.StatusCode {
	case http.StatusNoContent:
		result.Outcome = OutcomeRemoved
	case http.StatusBadRequest:
		result.Outcome = OutcomeRejected
	default:
		result.Outcome = OutcomeExhausted
	}
	return r.finish(result, messageID)
}

func (r *Remover) finish(result Result, messageID string) Result {
	fields := []zap.Field{
		zap.String("message_id", messageID),
		zap.Stringer("outcome", result.Outcome),
		zap.Int("attempts", result.Attempts),
		zap.Int("refreshes", result.Refreshes),
		zap.Int("status", result.StatusCode),
	}
	switch result.Outcome {
	case OutcomeRemoved:
		r.logger.Info("message removed", fields...)
	case OutcomeTransport:
		r.logger.Error("message not removed", append(fields, zap.Error(result.Err))...)
	default:
		r.logger.Warn("message not removed", fields...)
	}
	return result
}

func (r *Remover) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	// сетевые ошибки не повторяем
	if err != nil {
		return false, nil
	}

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusBadRequest:
		return false, nil
	case http.StatusUnauthorized:
		st := stateFrom(ctx)
		st.refreshes++
		r.logger.Warn("unauthorized, refreshing token", zap.String("message_id", st.messageID))
		if refreshErr := r.refresher.Refresh(ctx); refreshErr != nil {
			r.logger.Warn("token refresh failed", zap.Error(refreshErr))
		}
		return true, nil
	default:
		return true, nil
	}
}

func (r *Remover) sign(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+r.creds.AccessToken())
	req.Header.Set("Client-Id", r.creds.AppID())
}

func (r *Remover) messageURL(messageID string) string {
	q := url.Values{}
	q.Set("broadcaster_id", r.creds.BroadcasterID())
	q.Set("moderator_id", r.creds.BotID())
	q.Set("message_id", messageID)
	return r.baseURL + "/moderation/chat?" + q.Encode()
}
