package serverutils

import (
	"errors"

	"festival-cms-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler maps classified errors to their HTTP status. Wired into the
// fiber app config so controllers just return errors.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return ctx.Status(apperror.HTTPStatus(appErr.Kind)).JSON(fiber.Map{
			"success": false,
			"message": appErr.Message,
			"kind":    string(appErr.Kind),
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
}
