package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// FromFiberError mengubah error dari service (biasanya *fiber.Error)
// menjadi response JSON konsisten via JsonError.
// Selain *fiber.Error dianggap 500 dan pesan asli tidak dibocorkan.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
}
