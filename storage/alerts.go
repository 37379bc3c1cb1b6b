package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"twitch-chat-moderator/model"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AlertStore пишет алерты о неудачном удалении напрямую, без батчинга.
type AlertStore struct {
	db      execer
	timeout time.Duration
}

// NewAlertStore создаёт AlertStore поверх пула.
func NewAlertStore(pool *pgxpool.Pool, timeout time.Duration) *AlertStore {
	return &AlertStore{db: pool, timeout: timeout}
}

// SaveRemovalAlert сохраняет сообщение, которое не удалось удалить.
func (s *AlertStore) SaveRemovalAlert(ctx context.Context, rec model.ModerationRecord) error {
	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.Exec(dbCtx, `
insert into removal_alerts (
  message_id, channel, user_id, username, text, alerted_at
) values ($1, $2, $3, $4, $5, $6);
`, rec.MessageID, rec.Channel, rec.UserID, rec.Username, rec.Text, rec.DecidedAt.UTC())

	return err
}

const schema = `
create table if not exists moderation_verdicts (
  message_id text primary key,
  channel    text not null,
  user_id    text,
  username   text,
  text       text not null,
  allowed    boolean not null,
  removed    boolean not null,
  decided_at timestamptz not null
);

create table if not exists removal_alerts (
  id         bigserial primary key,
  message_id text not null,
  channel    text not null,
  user_id    text,
  username   text,
  text       text not null,
  alerted_at timestamptz not null
);`

// EnsureSchema создаёт таблицы журнала модерации, если их нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
