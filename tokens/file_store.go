package tokens

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const CONFIG_FILE = "config/config.json"

// FileStore переписывает пару токенов прямо в файле конфигурации,
// не трогая остальные поля.
type FileStore struct {
	Path string
}

func (store FileStore) configPath() string {
	if strings.TrimSpace(store.Path) == "" {
		return CONFIG_FILE
	}
	return store.Path
}

// SaveTokens обновляет twitch.refreshToken и twitch.accessToken в JSON файле.
func (store FileStore) SaveTokens(refreshToken, accessToken string) error {
	path := store.configPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("save tokens: read file: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return fmt.Errorf("save tokens: %s is not valid json", path)
	}
	if !gjson.GetBytes(data, "twitch").IsObject() {
		return fmt.Errorf("save tokens: %s has no twitch block", path)
	}

	data, err = sjson.SetBytes(data, "twitch.refreshToken", refreshToken)
	if err != nil {
		return fmt.Errorf("save tokens: set refresh token: %w", err)
	}
	data, err = sjson.SetBytes(data, "twitch.accessToken", accessToken)
	if err != nil {
		return fmt.Errorf("save tokens: set access token: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.json")
	if err != nil {
		return fmt.Errorf("save tokens: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save tokens: write file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("save tokens: chmod file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save tokens: close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save tokens: replace file: %w", err)
	}

	return nil
}
