package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecoguard_backend/internals/features/progress/mint/model"
	"ecoguard_backend/internals/metrics"
)

// DefaultMintLease harus lebih panjang dari timeout bridge + tunggu rate limiter.
const DefaultMintLease = 5 * time.Minute

// ResultStore: claim row outbox sebelum mint, lalu simpan hasilnya.
type ResultStore interface {
	Claim(ctx context.Context, id uuid.UUID, leaseUntil time.Time) (bool, error)
	MarkResult(ctx context.Context, id uuid.UUID, status model.MintStatus, txHash, lastError *string) error
}

// Dispatcher = worker pool mint; jalan di luar jalur commit ledger.
type Dispatcher struct {
	bridge  Bridge
	store   ResultStore
	workers int
	lease   time.Duration
	log     *zap.Logger
	now     func() time.Time

	jobs chan model.MintRequestModel
	quit chan struct{}
	wg   sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewDispatcher(bridge Bridge, store ResultStore, workers, queueSize int, lease time.Duration, log *zap.Logger) *Dispatcher {
	if lease <= 0 {
		lease = DefaultMintLease
	}
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		bridge:  bridge,
		store:   store,
		workers: workers,
		lease:   lease,
		log:     log.Named("mint"),
		now:     time.Now,
		jobs:    make(chan model.MintRequestModel, queueSize),
		quit:    make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.work()
		}
		d.log.Info("[MINT] dispatcher started", zap.Int("workers", d.workers))
	})
}

// Stop menunggu job yang sedang berjalan; sisa antrian diambil reconciler nanti.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.quit)
		d.wg.Wait()
		d.log.Info("[MINT] dispatcher stopped")
	})
}

// Enqueue non-blocking. false kalau antrian penuh / sudah stop (row tetap pending di outbox).
func (d *Dispatcher) Enqueue(req model.MintRequestModel) bool {
	select {
	case <-d.quit:
		return false
	default:
	}
	select {
	case d.jobs <- req:
		return true
	default:
		metrics.RecordMintQueueFull()
		d.log.Warn("[MINT] antrian penuh, diserahkan ke reconciler",
			zap.Stringer("mint_request_id", req.MintRequestID),
			zap.Stringer("user_id", req.MintRequestUserID))
		return false
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for {
		select {
		case <-d.quit:
			return
		case req := <-d.jobs:
			d.process(req)
		}
	}
}

func (d *Dispatcher) process(req model.MintRequestModel) {
	claimCtx, cancelClaim := context.WithTimeout(context.Background(), 10*time.Second)
	claimed, err := d.store.Claim(claimCtx, req.MintRequestID, d.now().Add(d.lease))
	cancelClaim()
	if err != nil {
		// row tetap pending/failed, reconciler mencoba lagi
		d.log.Error("[MINT] gagal claim outbox", zap.Stringer("mint_request_id", req.MintRequestID), zap.Error(err))
		return
	}
	if !claimed {
		metrics.RecordMint("duplicate")
		d.log.Debug("[MINT] row sudah diproses worker lain", zap.Stringer("mint_request_id", req.MintRequestID))
		return
	}

	res := d.bridge.MintForXP(context.Background(), req.MintRequestID.String(), req.MintRequestWalletAddress, req.MintRequestAmount)

	status, outcome := model.MintFailed, "failed"
	var txHash, lastError *string
	switch {
	case res.Skipped:
		status, outcome = model.MintSkipped, "skipped"
	case res.Success:
		status, outcome = model.MintSucceeded, "succeeded"
		if res.TxHash != "" {
			h := res.TxHash
			txHash = &h
		}
	default:
		e := res.Error
		lastError = &e
	}
	metrics.RecordMint(outcome)

	fields := []zap.Field{
		zap.Stringer("mint_request_id", req.MintRequestID),
		zap.Stringer("user_id", req.MintRequestUserID),
		zap.Int("amount", req.MintRequestAmount),
		zap.String("outcome", outcome),
	}
	if lastError != nil {
		d.log.Warn("[MINT] gagal (ledger tetap utuh)", append(fields, zap.String("reason", *lastError))...)
	} else {
		d.log.Info("[MINT] selesai", append(fields, zap.String("tx_hash", res.TxHash))...)
	}

	// gagal terus → row tetap in_flight sampai lease habis; retry berikutnya membawa idempotency key yang sama
	for attempt := 1; attempt <= markAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = d.store.MarkResult(ctx, req.MintRequestID, status, txHash, lastError)
		cancel()
		if err == nil {
			return
		}
		d.log.Error("[MINT] gagal update outbox", append(fields, zap.Int("attempt", attempt), zap.Error(err))...)
		if attempt < markAttempts {
			time.Sleep(time.Duration(attempt) * markBackoff)
		}
	}
}

const (
	markAttempts = 3
	markBackoff  = 200 * time.Millisecond
)
