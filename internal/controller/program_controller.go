package controller

import (
	"festival-cms-be/internal/pkg/serverutils"
	"festival-cms-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IProgramController interface {
	RegisterRoutes(r fiber.Router)
	Programme(ctx *fiber.Ctx) error
}

// programController serves the public programme; no auth on purpose.
type programController struct {
	programService service.IProgramService
}

func NewProgramController(programService service.IProgramService) IProgramController {
	return &programController{
		programService: programService,
	}
}

func (c *programController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/program/v1")
	h.Get("", c.Programme)
}

func (c *programController) Programme(ctx *fiber.Ctx) error {
	res, err := c.programService.Programme(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get programme", res))
}
