package controller

import (
	"festival-cms-be/internal/dto"
	"festival-cms-be/internal/pkg/serverutils"
	"festival-cms-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAnnotationController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	AddGeneral(ctx *fiber.Ctx) error
	AddStatusChange(ctx *fiber.Ctx) error
	AddFlag(ctx *fiber.Ctx) error
	AddScore(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	UpdateScore(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	LatestScore(ctx *fiber.Ctx) error
	CheckScore(ctx *fiber.Ctx) error
}

type annotationController struct {
	annotationService service.IAnnotationService
	submissionService service.ISubmissionService
}

func NewAnnotationController(
	annotationService service.IAnnotationService,
	submissionService service.ISubmissionService,
) IAnnotationController {
	return &annotationController{
		annotationService: annotationService,
		submissionService: submissionService,
	}
}

func (c *annotationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/submission/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":id/comments", c.List)
	h.Post(":id/comments", c.AddGeneral)
	h.Post(":id/comments/status", c.AddStatusChange)
	h.Post(":id/comments/flag", c.AddFlag)
	h.Post(":id/comments/score", c.AddScore)
	h.Get(":id/comments/score/latest", c.LatestScore)
	h.Get(":id/comments/score/check", c.CheckScore)
	h.Put(":id/comments/:commentId/score", c.UpdateScore)
	h.Put(":id/comments/:commentId", c.Update)
	h.Delete(":id/comments/:commentId", c.Delete)
}

// author pulls the authenticated identity out of the verified claims.
func author(ctx *fiber.Ctx) dto.Author {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	name, _ := ctx.Locals("full_name").(string)
	email, _ := ctx.Locals("email").(string)
	return dto.Author{Id: userId, Name: name, Email: email}
}

func (c *annotationController) List(ctx *fiber.Ctx) error {
	res, err := c.annotationService.GetComments(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get comments", res))
}

func (c *annotationController) AddGeneral(ctx *fiber.Ctx) error {
	var req dto.AddCommentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.annotationService.AddGeneralComment(ctx.Context(), ctx.Params("id"), author(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success add comment", res))
}

func (c *annotationController) AddStatusChange(ctx *fiber.Ctx) error {
	var req dto.AddStatusChangeCommentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.annotationService.AddStatusChangeComment(ctx.Context(), ctx.Params("id"), author(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success add status change comment", res))
}

// AddFlag records the flag comment and flips the submission's review flag.
func (c *annotationController) AddFlag(ctx *fiber.Ctx) error {
	var req dto.AddFlagCommentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.submissionService.SetFlag(ctx.Context(), ctx.Params("id"), author(ctx), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success flag submission", nil))
}

func (c *annotationController) AddScore(ctx *fiber.Ctx) error {
	var req dto.AddScoringCommentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.annotationService.AddScoringComment(ctx.Context(), ctx.Params("id"), author(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success add score", res))
}

func (c *annotationController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateCommentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.annotationService.UpdateComment(ctx.Context(), ctx.Params("commentId"), author(ctx), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update comment", nil))
}

func (c *annotationController) UpdateScore(ctx *fiber.Ctx) error {
	var req dto.UpdateScoringCommentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.annotationService.UpdateScoringComment(ctx.Context(), ctx.Params("commentId"), author(ctx), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update score", nil))
}

func (c *annotationController) Delete(ctx *fiber.Ctx) error {
	if err := c.annotationService.DeleteComment(ctx.Context(), ctx.Params("commentId"), author(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete comment", nil))
}

// LatestScore returns the caller's newest visible score on the submission,
// or null when there is none.
func (c *annotationController) LatestScore(ctx *fiber.Ctx) error {
	a := author(ctx)
	res, err := c.annotationService.GetLatestScoreByAdmin(ctx.Context(), ctx.Params("id"), a.Id.String())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get latest score", res))
}

func (c *annotationController) CheckScore(ctx *fiber.Ctx) error {
	a := author(ctx)
	res, err := c.annotationService.CheckExistingScore(ctx.Context(), ctx.Params("id"), a.Id.String())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success check existing score", res))
}
