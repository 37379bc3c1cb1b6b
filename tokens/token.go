package tokens

// Credentials хранит идентификаторы приложения и бота вместе с текущей парой токенов.
// Идентификаторы неизменны на время жизни процесса, токены меняются только парой.
type Credentials struct {
	AppID         string
	ClientSecret  string
	BotID         string
	BotUsername   string
	BroadcasterID string
	RefreshToken  string
	AccessToken   string
}

// SessionOptions задаёт параметры чат-сессии, не зависящие от токенов.
type SessionOptions struct {
	Channels []string
	Debug    bool
}

// SessionConfig содержит готовый для транспорта блок идентификации.
type SessionConfig struct {
	Username string
	Password string
	Channels []string
	Debug    bool
}

// TokenPersister описывает долговременное хранилище пары токенов.
type TokenPersister interface {
	SaveTokens(refreshToken, accessToken string) error
}
