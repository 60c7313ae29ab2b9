// Package events delivers ledger events to the notification side.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"community-ledger/internal/domain/event"
	"community-ledger/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStream appends each event to a redis stream. Consumers read it with
// XREAD/XREADGROUP; the stream is trimmed approximately to maxLen entries.
type RedisStream struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisStream(rdb *redis.Client, stream string, maxLen int64) *RedisStream {
	return &RedisStream{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (p *RedisStream) Publish(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"id":      e.ID,
			"type":    string(e.Type),
			"loan_id": e.LoanID,
			"payload": payload,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// Log writes events to the application log. Used when no stream is wired
// and alongside the stream for audit.
type Log struct{ log *zap.Logger }

func NewLog(log *zap.Logger) *Log { return &Log{log: log} }

func (p *Log) Publish(_ context.Context, e event.Event) error {
	p.log.Info("ledger event",
		zap.String("event_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.String("loan_id", e.LoanID),
		zap.String("member_id", e.MemberID),
		zap.String("amount", e.Amount.StringFixed(2)),
		zap.String("remaining", e.Remaining.StringFixed(2)),
		zap.Time("occurred_at", e.OccurredAt))
	return nil
}

// Fanout publishes to every target and joins their errors.
type Fanout []event.Publisher

func (f Fanout) Publish(ctx context.Context, e event.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async hands publishing to a worker pool so callers never wait on the
// broker. Failures are logged by the task; Publish itself never fails.
type Async struct {
	next event.Publisher
	pool *worker.Pool
	log  *zap.Logger
}

func NewAsync(next event.Publisher, pool *worker.Pool, log *zap.Logger) *Async {
	return &Async{next: next, pool: pool, log: log}
}

func (a *Async) Publish(ctx context.Context, e event.Event) error {
	ctx = context.WithoutCancel(ctx)
	task := func() {
		if err := a.next.Publish(ctx, e); err != nil {
			a.log.Error("async publish", zap.String("type", string(e.Type)), zap.String("loan_id", e.LoanID), zap.Error(err))
		}
	}
	if !a.pool.Submit(task) {
		task()
	}
	return nil
}
