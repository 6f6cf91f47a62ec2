package controller

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ecoguard_backend/internals/features/progress/mint/repository"
	helper "ecoguard_backend/internals/helpers"
)

type MintRequestController struct {
	Repo *repository.MintRequestRepository
	Log  *zap.Logger
}

func NewMintRequestController(repo *repository.MintRequestRepository, log *zap.Logger) *MintRequestController {
	return &MintRequestController{Repo: repo, Log: log.Named("mint")}
}

// GET /api/u/progress/mints
// Riwayat permintaan mint token (pending/succeeded/failed/skipped).
func (ctl *MintRequestController) ListMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctl.Repo.ListByUser(c.UserContext(), userID, p.Offset, p.Limit)
	if err != nil {
		ctl.Log.Error("[MINT] gagal list mint request", zap.Stringer("user_id", userID), zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil riwayat mint")
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p))
}
