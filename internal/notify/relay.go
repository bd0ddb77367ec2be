package notify

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"goods-be/internal/db"
	"goods-be/internal/metrics"

	"go.uber.org/zap"
)

type RelayConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Interval:    2 * time.Second,
		BatchSize:   50,
		MaxAttempts: 10,
		BaseBackoff: time.Second,
		MaxBackoff:  5 * time.Minute,
	}
}

// Relay polls the outbox and hands due entries to the publisher.
type Relay struct {
	tx   db.TxRunner
	repo Repository
	pub  Publisher
	cfg  RelayConfig
	log  *zap.Logger
	now  func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRelay(tx db.TxRunner, repo Repository, pub Publisher, cfg RelayConfig, log *zap.Logger) *Relay {
	def := DefaultRelayConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	return &Relay{
		tx:   tx,
		repo: repo,
		pub:  pub,
		cfg:  cfg,
		log:  log.With(zap.String("component", "outbox_relay")),
		now:  time.Now,
	}
}

func (r *Relay) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx)

	r.log.Info("outbox relay started",
		zap.Duration("interval", r.cfg.Interval),
		zap.Int("batch_size", r.cfg.BatchSize),
	)
}

// Stop cancels the loop and waits for the current batch, or for ctx.
func (r *Relay) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info("outbox relay stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Relay) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("outbox batch failed", zap.Error(err))
			}
		}
	}
}

// RunOnce publishes one batch and returns how many entries were sent.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	sent := 0
	err := r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		repo := r.repo.WithTx(tx)

		entries, err := repo.FetchDue(ctx, r.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, e := range entries {
			if pubErr := r.pub.Publish(ctx, e.Topic, e.Key, e.Payload); pubErr != nil {
				if err := r.fail(ctx, repo, e, pubErr); err != nil {
					return err
				}
				continue
			}
			if err := repo.MarkSent(ctx, e.ID); err != nil {
				return err
			}
			metrics.OutboxDispatched.WithLabelValues("sent").Inc()
			sent++
		}
		return nil
	})
	return sent, err
}

func (r *Relay) fail(ctx context.Context, repo Repository, e Entry, cause error) error {
	attempts := e.Attempts + 1
	status := StatusFailed
	if attempts >= r.cfg.MaxAttempts {
		status = StatusDead
	}

	log := r.log.With(
		zap.String("event_id", e.ID.String()),
		zap.String("topic", e.Topic),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	)
	if status == StatusDead {
		log.Warn("outbox entry is dead")
	} else {
		log.Warn("failed to publish outbox entry")
	}
	metrics.OutboxDispatched.WithLabelValues(string(status)).Inc()

	return repo.MarkFailed(ctx, e.ID, status, attempts, cause.Error(), r.now().Add(r.backoff(attempts)))
}

func (r *Relay) backoff(attempts int) time.Duration {
	d := r.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= r.cfg.MaxBackoff {
			return r.cfg.MaxBackoff
		}
	}
	return d
}
