package storage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"twitch-chat-moderator/model"
)

// BatchConfig задаёт параметры батчинга для вставки вердиктов.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

// Batcher асинхронно записывает вердикты модерации через pgx.Batch.
type Batcher struct {
	input   chan model.ModerationRecord
	config  BatchConfig
	sender  batchSender
	logger  *zap.Logger
	dropped atomic.Uint64
	done    chan struct{}
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const insertVerdict = `
insert into moderation_verdicts (
  message_id, channel, user_id, username, text, allowed, removed, decided_at
) values ($1,$2,$3,$4,$5,$6,$7,$8)
on conflict (message_id) do nothing;`

// NewBatcher создаёт батчер и запускает фоновые флаши.
func NewBatcher(ctx context.Context, pool *pgxpool.Pool, cfg BatchConfig, logger *zap.Logger) *Batcher {
	return newBatcher(ctx, pool, cfg, logger)
}

// Enqueue пытается добавить запись в очередь; при переполнении возвращает false.
func (b *Batcher) Enqueue(rec model.ModerationRecord) bool {
	select {
	case b.input <- rec:
		return true
	default:
		dropped := b.dropped.Add(1)
		if dropped%100 == 0 {
			b.logger.Warn("queue full", zap.Uint64("dropped_total", dropped))
		}
		return false
	}
}

// Dropped возвращает число записей, отброшенных из-за переполнения.
func (b *Batcher) Dropped() uint64 {
	return b.dropped.Load()
}

// Done закрывается после финального флаша по отмене контекста.
func (b *Batcher) Done() <-chan struct{} {
	return b.done
}

func (b *Batcher) run(ctx context.Context) {
	defer close(b.done)

	flushTicker := time.NewTicker(b.config.FlushEvery)
	statsTicker := time.NewTicker(b.config.StatsLogEvery)
	defer flushTicker.Stop()
	defer statsTicker.Stop()

	var (
		batch            = &pgx.Batch{}
		pending          = 0
		totalInserted    uint64
		intervalInserted uint64
	)

	flush := func() {
		if pending == 0 {
			return
		}

		dbCtx, cancel := context.WithTimeout(context.Background(), b.config.FlushTimeout)
		defer cancel()

		br := b.sender.SendBatch(dbCtx, batch)
		if err := br.Close(); err != nil {
			b.logger.Error("flush failed", zap.Int("rows", pending), zap.Error(err))
		}

		totalInserted += uint64(pending)
		intervalInserted += uint64(pending)

		batch = &pgx.Batch{}
		pending = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			b.logger.Info("context cancelled", zap.Uint64("inserted_total", totalInserted))
			return
		case <-flushTicker.C:
			flush()
		case <-statsTicker.C:
			b.logger.Info("verdicts written",
				zap.Uint64("inserted", intervalInserted),
				zap.Duration("interval", b.config.StatsLogEvery),
				zap.Uint64("inserted_total", totalInserted),
			)
			intervalInserted = 0
		case rec := <-b.input:
			batch.Queue(insertVerdict,
				rec.MessageID, rec.Channel, ptr(rec.UserID), ptr(rec.Username), rec.Text,
				rec.Allowed, rec.Removed, rec.DecidedAt.UTC(),
			)
			pending++
			if pending >= b.config.MaxBatch {
				flush()
			}
		}
	}
}

func ptr[T any](v T) *T { return &v }

func newBatcher(ctx context.Context, sender batchSender, cfg BatchConfig, logger *zap.Logger) *Batcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Batcher{
		input:  make(chan model.ModerationRecord, cfg.ChanBuffer),
		config: cfg,
		sender: sender,
		logger: logger.Named("batcher"),
		done:   make(chan struct{}),
	}

	go b.run(ctx)

	return b
}
