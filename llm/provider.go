package llm

import "context"

// Provider оборачивает внешний классификатор: получает политику модерации и текст,
// возвращает короткий текстовый вердикт.
type Provider interface {
	ID() string

	Classify(ctx context.Context, policy, text string) (string, error)
}

// Config описывает выбранного провайдера.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// maxRetries задаёт число повторов вызова классификатора после первой попытки.
const maxRetries = 3

// maxVerdictTokens ограничивает длину ответа: вердикт состоит из одного слова.
const maxVerdictTokens = 8
