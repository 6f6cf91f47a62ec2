package controllers

import (
	"github.com/gofiber/fiber/v2"

	"ecoguard_backend/internals/features/progress/points/dto"
	progressService "ecoguard_backend/internals/features/progress/progress/service"
	helper "ecoguard_backend/internals/helpers"
)

type UserPointLogController struct {
	Ledger *progressService.Service
}

func NewUserPointLogController(ledger *progressService.Service) *UserPointLogController {
	return &UserPointLogController{Ledger: ledger}
}

// 🟢 GET /api/u/progress/logs
// Riwayat XP lengkap (append-only), terbaru di depan.
func (ctrl *UserPointLogController) GetByUserID(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.Ledger.ListPointLogs(c.UserContext(), userID, p.Offset, p.Limit)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPagination(total, p))
}
