package commands

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog хранит таблицы команд: имя -> текст и имя -> идентификатор обработчика.
type Catalog struct {
	Text      map[string]string `json:"text"`
	Functions map[string]string `json:"functions"`
}

// LoadCatalog читает каталог команд из JSON файла.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("commands: read catalog: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("commands: decode catalog: %w", err)
	}
	return catalog, nil
}
