package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"twitch-chat-moderator/tokens"
)

const twitchOAuthTokenURL = "https://id.twitch.tv/oauth2/token"

// Authenticator обменивает refresh токен на новую пару токенов.
// Повторов у него нет: решение о повторе принимает вызывающий.
type Authenticator struct {
	store      *tokens.Store
	tokenURL   string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option настраивает Authenticator.
type Option func(*Authenticator)

// WithTokenURL подменяет адрес OAuth эндпоинта.
func WithTokenURL(url string) Option {
	return func(a *Authenticator) {
		a.tokenURL = url
	}
}

// WithHTTPClient задаёт HTTP клиент для запросов к эндпоинту.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Authenticator) {
		a.httpClient = client
	}
}

// NewAuthenticator создает Authenticator поверх хранилища учётных данных.
func NewAuthenticator(store *tokens.Store, logger *zap.Logger, opts ...Option) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Authenticator{
		store:    store,
		tokenURL: twitchOAuthTokenURL,
		logger:   logger.Named("auth"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Refresh запрашивает новую пару токенов и сохраняет её в хранилище.
// При ошибке хранилище не меняется.
func (a *Authenticator) Refresh(ctx context.Context) error {
	creds := a.store.Snapshot()

	conf := &oauth2.Config{
		ClientID:     creds.AppID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  a.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if a.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	}

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			a.logger.Error("token refresh rejected", zap.Int("status", retrieveErr.Response.StatusCode), zap.Error(err))
			return fmt.Errorf("twitch oauth: unexpected status %d: %w", retrieveErr.Response.StatusCode, err)
		}
		a.logger.Error("token refresh failed", zap.Error(err))
		return fmt.Errorf("twitch oauth: refresh: %w", err)
	}

	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = creds.RefreshToken
	}

	if err := a.store.UpdateTokens(refreshToken, token.AccessToken); err != nil {
		a.logger.Warn("tokens updated in memory, persistence failed", zap.Error(err))
	}
	a.logger.Info("token refreshed")
	return nil
}
