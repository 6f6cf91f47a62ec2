package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	mintModel "ecoguard_backend/internals/features/progress/mint/model"
	mintService "ecoguard_backend/internals/features/progress/mint/service"
	pointModel "ecoguard_backend/internals/features/progress/points/model"
	"ecoguard_backend/internals/features/progress/progress/model"
	"ecoguard_backend/internals/features/progress/progress/repository"
	"ecoguard_backend/internals/metrics"
)

const defaultActivityType = "manual"

// MintQueue diisi setelah commit; false = antrian penuh, row tetap pending untuk reconciler.
type MintQueue interface {
	Enqueue(req mintModel.MintRequestModel) bool
}

type Service struct {
	Store  repository.Store
	Queue  MintQueue
	Bridge mintService.Bridge
	Log    *zap.Logger
	Now    func() time.Time
}

func NewService(store repository.Store, queue MintQueue, bridge mintService.Bridge, log *zap.Logger) *Service {
	return &Service{Store: store, Queue: queue, Bridge: bridge, Log: log.Named("ledger"), Now: time.Now}
}

// step menerima ledger terkunci; changed=false → tidak ada write.
type step func(l Ledger) (next Ledger, events []Event, changed bool, err error)

type outcome struct {
	Ledger  Ledger
	Events  []Event
	Changed bool
}

// mutate menjalankan step di dalam row lock lalu menyebarkan efek setelah commit.
func (s *Service) mutate(ctx context.Context, userID uuid.UUID, reference *string, description string, fn step) (*outcome, error) {
	if userID == uuid.Nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "user_id wajib diisi")
	}

	var out outcome
	var mints []mintModel.MintRequestModel
	_, err := s.Store.Mutate(ctx, userID, func(p *model.UserProgress) (*repository.Effects, error) {
		cur := FromModel(p)
		next, events, changed, err := fn(cur)
		if err != nil {
			return nil, err
		}
		out = outcome{Ledger: next, Events: events, Changed: changed}
		mints = nil
		if !changed {
			return nil, nil
		}
		next.ApplyTo(p)

		eff := &repository.Effects{}
		for _, ev := range events {
			switch ev.Kind {
			case EventXPAwarded:
				eff.PointLog = &pointModel.UserPointLog{
					UserPointLogUserID:       userID,
					UserPointLogPoints:       ev.Amount,
					UserPointLogActivityType: ev.Activity,
					UserPointLogReferenceID:  reference,
					UserPointLogDescription:  description,
					UserPointLogBalance:      next.XPPoints,
				}
			case EventMintRequested:
				mints = append(mints, mintModel.MintRequestModel{
					MintRequestID:            uuid.New(),
					MintRequestUserID:        userID,
					MintRequestWalletAddress: ev.Wallet,
					MintRequestAmount:        ev.Amount,
					MintRequestActivityType:  ev.Activity,
					MintRequestStatus:        mintModel.MintPending,
				})
			}
		}
		eff.Mints = mints
		return eff, nil
	})
	if err != nil {
		return nil, s.translate(userID, err)
	}

	s.publish(userID, out.Events, mints)
	return &out, nil
}

func (s *Service) translate(userID uuid.UUID, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.Is(err, ErrNegativeBalance):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "XP tidak boleh menjadi negatif")
	case errors.Is(err, ErrEmptyItemID):
		return fiber.NewError(fiber.StatusBadRequest, "item_id wajib diisi")
	}
	s.Log.Error("[LEDGER] gagal menyimpan progress", zap.Stringer("user_id", userID), zap.Error(err))
	return fiber.NewError(fiber.StatusInternalServerError, "Gagal menyimpan progress")
}

// publish: metrik, log level, dan mint async. Kegagalan di sini tidak pernah membatalkan XP.
func (s *Service) publish(userID uuid.UUID, events []Event, mints []mintModel.MintRequestModel) {
	for _, ev := range events {
		switch ev.Kind {
		case EventXPAwarded:
			metrics.RecordXP(ev.Activity, ev.Amount)
		case EventLevelChanged:
			s.Log.Info("[LEDGER] level berubah",
				zap.Stringer("user_id", userID),
				zap.Int("from", ev.FromLevel),
				zap.Int("to", ev.ToLevel))
		}
	}
	if s.Queue == nil {
		return
	}
	for _, m := range mints {
		if !s.Queue.Enqueue(m) {
			s.Log.Warn("[LEDGER] antrian mint penuh, menunggu reconciler",
				zap.Stringer("mint_request_id", m.MintRequestID),
				zap.Stringer("user_id", userID))
		}
	}
}

func normalizeActivity(a model.ActivityEntry) model.ActivityEntry {
	a.Type = strings.TrimSpace(a.Type)
	if a.Type == "" {
		a.Type = defaultActivityType
	}
	a.Description = strings.TrimSpace(a.Description)
	if a.Impact != nil && a.Impact.IsZero() {
		a.Impact = nil
	}
	return a
}

/* ===================== operations ===================== */

// AddXP: amount boleh negatif (koreksi) selama saldo tidak < 0.
func (s *Service) AddXP(ctx context.Context, userID uuid.UUID, amount int, activity model.ActivityEntry) (*Ledger, error) {
	activity = normalizeActivity(activity)
	now := s.Now()
	res, err := s.mutate(ctx, userID, activity.ReferenceIDPtr(), activity.Description, func(l Ledger) (Ledger, []Event, bool, error) {
		next, events, err := l.ApplyXP(amount, activity, now)
		return next, events, err == nil, err
	})
	if err != nil {
		return nil, err
	}
	return &res.Ledger, nil
}

// CompleteItem: true kalau baru ditandai.
func (s *Service) CompleteItem(ctx context.Context, userID uuid.UUID, itemID string) (bool, error) {
	itemID = strings.TrimSpace(itemID)
	res, err := s.mutate(ctx, userID, nil, "", func(l Ledger) (Ledger, []Event, bool, error) {
		next, fresh, err := l.CompleteItem(itemID)
		return next, nil, fresh, err
	})
	if err != nil {
		return false, err
	}
	return res.Changed, nil
}

// AwardOnce: tandai item + XP dalam satu lock; item yang sudah ada tidak memberi XP lagi.
func (s *Service) AwardOnce(ctx context.Context, userID uuid.UUID, itemID string, amount int, activity model.ActivityEntry) (bool, *Ledger, error) {
	itemID = strings.TrimSpace(itemID)
	activity = normalizeActivity(activity)
	if activity.ReferenceID == "" {
		activity.ReferenceID = itemID
	}
	now := s.Now()
	res, err := s.mutate(ctx, userID, activity.ReferenceIDPtr(), activity.Description, func(l Ledger) (Ledger, []Event, bool, error) {
		marked, fresh, err := l.CompleteItem(itemID)
		if err != nil || !fresh {
			return l, nil, false, err
		}
		next, events, err := marked.ApplyXP(amount, activity, now)
		if err != nil {
			return l, nil, false, err
		}
		return next, events, true, nil
	})
	if err != nil {
		return false, nil, err
	}
	return res.Changed, &res.Ledger, nil
}

// GetLedger: akun tanpa row → ledger default (level 1, XP 0).
func (s *Service) GetLedger(ctx context.Context, userID uuid.UUID) (*Ledger, error) {
	p, err := s.Store.Find(ctx, userID)
	if errors.Is(err, repository.ErrProgressNotFound) {
		l := NewLedger(userID)
		return &l, nil
	}
	if err != nil {
		s.Log.Error("[LEDGER] gagal ambil progress", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil progress")
	}
	l := FromModel(p)
	return &l, nil
}

func (s *Service) SetWallet(ctx context.Context, userID uuid.UUID, raw string) (*Ledger, error) {
	addr, err := mintService.ChecksumAddress(strings.TrimSpace(raw))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Alamat wallet tidak valid (0x + 40 hex)")
	}
	res, err := s.mutate(ctx, userID, nil, "", func(l Ledger) (Ledger, []Event, bool, error) {
		if l.WalletAddress != nil && *l.WalletAddress == addr {
			return l, nil, false, nil
		}
		l.WalletAddress = &addr
		return l, nil, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &res.Ledger, nil
}

func (s *Service) ClearWallet(ctx context.Context, userID uuid.UUID) (*Ledger, error) {
	res, err := s.mutate(ctx, userID, nil, "", func(l Ledger) (Ledger, []Event, bool, error) {
		if l.WalletAddress == nil {
			return l, nil, false, nil
		}
		l.WalletAddress = nil
		return l, nil, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &res.Ledger, nil
}

func (s *Service) WalletBalance(ctx context.Context, userID uuid.UUID) (*mintService.Balance, error) {
	l, err := s.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	if l.WalletAddress == nil || *l.WalletAddress == "" {
		return nil, fiber.NewError(fiber.StatusNotFound, "Wallet belum dihubungkan")
	}
	if s.Bridge == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "Layanan token tidak tersedia")
	}
	bal, err := s.Bridge.Balance(ctx, *l.WalletAddress)
	if err != nil {
		s.Log.Warn("[LEDGER] gagal ambil saldo token", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusBadGateway, "Gagal mengambil saldo token")
	}
	return bal, nil
}

func (s *Service) ListPointLogs(ctx context.Context, userID uuid.UUID, offset, limit int) ([]pointModel.UserPointLog, int64, error) {
	rows, total, err := s.Store.ListPointLogs(ctx, userID, offset, limit)
	if err != nil {
		s.Log.Error("[LEDGER] gagal ambil point log", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, 0, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil riwayat poin")
	}
	return rows, total, nil
}
