package controller

import (
	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/pkg/serverutils"
	"festival-cms-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISubmissionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	UpdateStatus(ctx *fiber.Ctx) error
}

type submissionController struct {
	submissionService service.ISubmissionService
}

func NewSubmissionController(submissionService service.ISubmissionService) ISubmissionController {
	return &submissionController{
		submissionService: submissionService,
	}
}

func (c *submissionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/submission/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id/status", serverutils.AdminOnly, c.UpdateStatus)
}

func (c *submissionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSubmissionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.submissionService.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create submission", res))
}

func (c *submissionController) List(ctx *fiber.Ctx) error {
	res, err := c.submissionService.List(ctx.Context(), ctx.Query("status"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get submissions", res))
}

func (c *submissionController) Show(ctx *fiber.Ctx) error {
	res, err := c.submissionService.Show(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get submission", res))
}

func (c *submissionController) UpdateStatus(ctx *fiber.Ctx) error {
	var req dto.UpdateSubmissionStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.submissionService.UpdateStatus(ctx.Context(), ctx.Params("id"), author(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update status", res))
}
