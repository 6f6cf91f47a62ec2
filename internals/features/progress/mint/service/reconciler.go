package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ecoguard_backend/internals/features/progress/mint/model"
)

type RetryStore interface {
	ListRetryable(ctx context.Context, before time.Time, maxAttempts, limit int) ([]model.MintRequestModel, error)
}

type Enqueuer interface {
	Enqueue(req model.MintRequestModel) bool
}

// Reconciler mengirim ulang outbox pending/failed secara periodik (cron).
type Reconciler struct {
	store       RetryStore
	queue       Enqueuer
	grace       time.Duration
	maxAttempts int
	batch       int
	log         *zap.Logger
	now         func() time.Time

	cron *cron.Cron
}

func NewReconciler(store RetryStore, queue Enqueuer, grace time.Duration, maxAttempts int, log *zap.Logger) *Reconciler {
	if grace <= 0 {
		grace = 10 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Reconciler{
		store:       store,
		queue:       queue,
		grace:       grace,
		maxAttempts: maxAttempts,
		batch:       100,
		log:         log.Named("mint-reconciler"),
		now:         time.Now,
	}
}

// RunOnce mengembalikan jumlah row yang berhasil masuk antrian.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	rows, err := r.store.ListRetryable(ctx, r.now().Add(-r.grace), r.maxAttempts, r.batch)
	if err != nil {
		r.log.Error("[MINT] reconcile: gagal baca outbox", zap.Error(err))
		return 0, err
	}
	queued := 0
	for _, row := range rows {
		if !r.queue.Enqueue(row) {
			break
		}
		queued++
	}
	if len(rows) > 0 {
		r.log.Info("[MINT] reconcile", zap.Int("candidates", len(rows)), zap.Int("queued", queued))
	}
	return queued, nil
}

// Start menjadwalkan RunOnce dengan spec cron (mis. "@every 5m").
func (r *Reconciler) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = r.RunOnce(ctx)
	}); err != nil {
		return err
	}
	r.cron = c
	c.Start()
	r.log.Info("[MINT] reconciler scheduled", zap.String("spec", spec))
	return nil
}

func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
