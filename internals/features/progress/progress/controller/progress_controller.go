package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ecoguard_backend/internals/features/progress/progress/dto"
	"ecoguard_backend/internals/features/progress/progress/service"
	helper "ecoguard_backend/internals/helpers"
)

type UserProgressController struct {
	Service   *service.Service
	Validator *validator.Validate
	Log       *zap.Logger
}

func NewUserProgressController(svc *service.Service, log *zap.Logger) *UserProgressController {
	return &UserProgressController{Service: svc, Validator: validator.New(), Log: log.Named("progress")}
}

// GET /api/u/progress
func (ctrl *UserProgressController) GetMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	l, err := ctrl.Service.GetLedger(c.UserContext(), userID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromLedger(l))
}

// PUT /api/u/progress/wallet
func (ctrl *UserProgressController) SetWallet(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.SetWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if err := ctrl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	l, err := ctrl.Service.SetWallet(c.UserContext(), userID, req.WalletAddress)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Wallet berhasil dihubungkan", dto.FromLedger(l))
}

// DELETE /api/u/progress/wallet
func (ctrl *UserProgressController) ClearWallet(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	l, err := ctrl.Service.ClearWallet(c.UserContext(), userID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Wallet dilepas", dto.FromLedger(l))
}

// GET /api/u/progress/wallet/balance
func (ctrl *UserProgressController) WalletBalance(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	bal, err := ctrl.Service.WalletBalance(c.UserContext(), userID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", bal)
}

/* ===================== admin ===================== */

// POST /api/a/progress/:user_id/items/:item_id/complete
func (ctrl *UserProgressController) CompleteItem(c *fiber.Ctx) error {
	userID, err := helper.ParseUUIDParam(c, "user_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	itemID := strings.TrimSpace(c.Params("item_id"))
	if itemID == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "item_id wajib diisi")
	}

	var req dto.CompleteItemRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
		}
	}
	if err := ctrl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	resp := dto.CompleteItemResponse{ItemID: itemID, XP: req.XP}
	if req.XP > 0 {
		awarded, l, err := ctrl.Service.AwardOnce(c.UserContext(), userID, itemID, req.XP, req.Activity(itemID))
		if err != nil {
			return helper.FromFiberError(c, err)
		}
		resp.Awarded, resp.Progress = awarded, dto.FromLedger(l)
	} else {
		added, err := ctrl.Service.CompleteItem(c.UserContext(), userID, itemID)
		if err != nil {
			return helper.FromFiberError(c, err)
		}
		l, err := ctrl.Service.GetLedger(c.UserContext(), userID)
		if err != nil {
			return helper.FromFiberError(c, err)
		}
		resp.Awarded, resp.Progress = added, dto.FromLedger(l)
	}
	if !resp.Awarded {
		resp.XP = 0
		return helper.JsonOK(c, "Item sudah pernah diselesaikan", resp)
	}
	ctrl.Log.Info("[PROGRESS] item selesai", zap.Stringer("user_id", userID), zap.String("item_id", itemID), zap.Int("xp", req.XP))
	return helper.JsonOK(c, "Item diselesaikan", resp)
}

// POST /api/a/progress/:user_id/xp
func (ctrl *UserProgressController) AddXP(c *fiber.Ctx) error {
	userID, err := helper.ParseUUIDParam(c, "user_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.AddXPRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctrl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	l, err := ctrl.Service.AddXP(c.UserContext(), userID, req.Amount, req.Activity())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "XP dicatat", dto.FromLedger(l))
}
