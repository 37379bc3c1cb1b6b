package model

import "time"

// ChatMessage описывает нормализованную модель входящего сообщения чата Twitch.
type ChatMessage struct {
	ID          string
	Channel     string
	UserID      string
	Username    string
	DisplayName string
	Text        string
	IsMod       bool
	IsSelf      bool
	SentAt      time.Time
}

// Verdict описывает итог модерации одного сообщения.
// Removed может быть true только при Allowed == false.
type Verdict struct {
	Allowed bool
	Removed bool
}

// RemovalFailed сообщает, что сообщение надо было удалить, но удаление не удалось.
func (v Verdict) RemovalFailed() bool {
	return !v.Allowed && !v.Removed
}

// ModerationRecord соответствует строке журнала модерации.
type ModerationRecord struct {
	MessageID string
	Channel   string
	UserID    string
	Username  string
	Text      string
	Allowed   bool
	Removed   bool
	DecidedAt time.Time
}

// Notice описывает notice-событие, полученное от Twitch.
type Notice struct {
	Channel string
	ID      string
	Message string
}
