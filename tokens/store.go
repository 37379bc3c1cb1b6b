package tokens

import (
	"fmt"
	"slices"
	"sync"
)

// Store хранит учётные данные бота и сохраняет пару токенов при каждом обновлении.
type Store struct {
	mu      sync.RWMutex
	creds   Credentials
	session SessionOptions

	// writeMu упорядочивает записи на диск в порядке обновлений.
	writeMu   sync.Mutex
	persister TokenPersister
	listeners []func()
}

// NewStore создает хранилище с начальными учётными данными.
func NewStore(creds Credentials, session SessionOptions, persister TokenPersister) *Store {
	session.Channels = slices.Clone(session.Channels)
	return &Store{
		creds:     creds,
		session:   session,
		persister: persister,
	}
}

// AccessToken возвращает текущий токен доступа.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken
}

// RefreshToken возвращает текущий refresh токен.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.RefreshToken
}

// AppID возвращает client id приложения Twitch.
func (s *Store) AppID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AppID
}

// ClientSecret возвращает секрет приложения.
func (s *Store) ClientSecret() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.ClientSecret
}

// BotID возвращает user id бота, он же moderator_id.
func (s *Store) BotID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.BotID
}

// BotUsername возвращает логин бота в чате.
func (s *Store) BotUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.BotUsername
}

// BroadcasterID возвращает user id владельца канала.
func (s *Store) BroadcasterID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.BroadcasterID
}

// Snapshot возвращает согласованную копию всех учётных данных.
func (s *Store) Snapshot() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// OnUpdate регистрирует колбэк, вызываемый после каждой замены пары токенов.
// Колбэк не должен вызывать UpdateTokens.
func (s *Store) OnUpdate(fn func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// UpdateTokens атомарно заменяет пару токенов и записывает её на диск.
// Ошибка записи не откатывает значения в памяти: они остаются актуальными
// до следующей успешной записи.
func (s *Store) UpdateTokens(refreshToken, accessToken string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.creds.RefreshToken = refreshToken
	s.creds.AccessToken = accessToken
	s.mu.Unlock()

	for _, fn := range s.listeners {
		fn()
	}

	if s.persister == nil {
		return nil
	}
	if err := s.persister.SaveTokens(refreshToken, accessToken); err != nil {
		return fmt.Errorf("tokens: persist: %w", err)
	}
	return nil
}

// SessionConfig собирает блок идентификации для IRC из текущего состояния.
func (s *Store) SessionConfig() SessionConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionConfig{
		Username: s.creds.BotUsername,
		Password: "oauth:" + s.creds.AccessToken,
		Channels: slices.Clone(s.session.Channels),
		Debug:    s.session.Debug,
	}
}
