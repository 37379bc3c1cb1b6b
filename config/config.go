package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultPath задаёт путь к файлу конфигурации по умолчанию.
const DefaultPath = "config/config.json"

// Провайдеры классификатора модерации.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderGemini:    "gemini-2.0-flash",
	ProviderAnthropic: "claude-3-5-haiku-latest",
}

var providerKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// Config агрегирует значения из файла конфигурации и переменных окружения.
type Config struct {
	Twitch       TwitchConfig     `json:"twitch"`
	TMI          TMIConfig        `json:"tmi"`
	Moderation   ModerationConfig `json:"moderation"`
	Postgres     PostgresConfig   `json:"postgres"`
	CommandsFile string           `json:"commandsFile"`

	Batch BatchConfig `json:"-"`
}

// TwitchConfig содержит идентификаторы приложения и бота и текущую пару токенов.
type TwitchConfig struct {
	AppID         string `json:"appId"`
	Secret        string `json:"secret"`
	BotID         string `json:"botId"`
	BroadcasterID string `json:"broadcasterId"`
	RefreshToken  string `json:"refreshToken"`
	AccessToken   string `json:"accessToken"`
}

// TMIConfig описывает сессию IRC чата.
type TMIConfig struct {
	Options  TMIOptions  `json:"options"`
	Identity TMIIdentity `json:"identity"`
	Channels []string    `json:"channels"`
}

// TMIOptions содержит опции соединения.
type TMIOptions struct {
	Debug bool `json:"debug"`
}

// TMIIdentity хранит логин бота в чате.
type TMIIdentity struct {
	Username string `json:"username"`
}

// ModerationConfig задаёт классификатор и порог длины сообщения.
type ModerationConfig struct {
	Provider  string `json:"provider"`
	APIKey    string `json:"apiKey"`
	Model     string `json:"model"`
	BaseURL   string `json:"baseUrl"`
	MaxLength int    `json:"maxLength"`
}

// PostgresConfig хранит строку подключения для журнала модерации.
// Пустой DSN отключает журнал.
type PostgresConfig struct {
	DSN string `json:"dsn"`
}

// Enabled сообщает, настроен ли журнал модерации.
func (p PostgresConfig) Enabled() bool {
	return p.DSN != ""
}

// BatchConfig задаёт параметры батчинга записи вердиктов.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

// LoadEnvFile подгружает .env файл, если он существует.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}

// Load читает файл конфигурации, применяет переменные окружения и возвращает валидированную Config.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode json: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Moderation.Provider == "" {
		c.Moderation.Provider = ProviderOpenAI
	}
	c.Moderation.Provider = strings.ToLower(strings.TrimSpace(c.Moderation.Provider))
	if c.Moderation.Model == "" {
		c.Moderation.Model = defaultModels[c.Moderation.Provider]
	}
	if c.Moderation.MaxLength == 0 {
		c.Moderation.MaxLength = 1024
	}
	if c.CommandsFile == "" {
		c.CommandsFile = "config/commands.json"
	}

	c.Batch = BatchConfig{
		MaxBatch:      100,
		FlushEvery:    1500 * time.Millisecond,
		ChanBuffer:    4096,
		StatsLogEvery: 5 * time.Minute,
		FlushTimeout:  5 * time.Second,
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("ICARUS_MODERATION_API_KEY")); v != "" {
		c.Moderation.APIKey = v
	} else if c.Moderation.APIKey == "" {
		if name, ok := providerKeyEnv[c.Moderation.Provider]; ok {
			c.Moderation.APIKey = strings.TrimSpace(os.Getenv(name))
		}
	}

	if v := strings.TrimSpace(os.Getenv("ICARUS_POSTGRES_DSN")); v != "" {
		c.Postgres.DSN = v
	}
}

func (c *Config) normalize() {
	c.Twitch.AppID = strings.TrimSpace(c.Twitch.AppID)
	c.Twitch.Secret = strings.TrimSpace(c.Twitch.Secret)
	c.Twitch.BotID = strings.TrimSpace(c.Twitch.BotID)
	c.Twitch.BroadcasterID = strings.TrimSpace(c.Twitch.BroadcasterID)
	c.TMI.Identity.Username = strings.ToLower(strings.TrimSpace(c.TMI.Identity.Username))
	c.TMI.Channels = normalizeChannels(c.TMI.Channels)
}

func (c Config) validate() error {
	if c.Twitch.AppID == "" {
		return fmt.Errorf("требуется twitch.appId")
	}
	if c.Twitch.Secret == "" {
		return fmt.Errorf("требуется twitch.secret")
	}
	if c.Twitch.BotID == "" {
		return fmt.Errorf("требуется twitch.botId")
	}
	if c.Twitch.BroadcasterID == "" {
		return fmt.Errorf("требуется twitch.broadcasterId")
	}
	if c.Twitch.RefreshToken == "" {
		return fmt.Errorf("требуется twitch.refreshToken")
	}

	if c.TMI.Identity.Username == "" {
		return fmt.Errorf("требуется tmi.identity.username")
	}
	if len(c.TMI.Channels) == 0 {
		return fmt.Errorf("требуется tmi.channels")
	}

	if _, ok := defaultModels[c.Moderation.Provider]; !ok {
		return fmt.Errorf("неизвестный moderation.provider %q", c.Moderation.Provider)
	}
	if c.Moderation.APIKey == "" {
		return fmt.Errorf("требуется moderation.apiKey")
	}
	if c.Moderation.MaxLength <= 0 {
		return fmt.Errorf("moderation.maxLength должен быть больше нуля")
	}

	return nil
}

func normalizeChannels(channels []string) []string {
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		ch = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ch), "#")))
		if ch != "" {
			out = append(out, ch)
		}
	}
	return out
}
