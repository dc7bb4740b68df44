package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aastu-platform/facility-reports/internal/api/dto"
	"github.com/aastu-platform/facility-reports/internal/auth"
	"github.com/aastu-platform/facility-reports/internal/service"
	"github.com/aastu-platform/facility-reports/internal/workflow"
	apperrors "github.com/aastu-platform/facility-reports/pkg/errorutil"
)

// WorkflowHandler exposes the lifecycle transition endpoints. Role and
// ownership rules live in the workflow engine; the handler only shapes
// requests and responses.
type WorkflowHandler struct {
	service *service.ReportService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(reportService *service.ReportService) *WorkflowHandler {
	return &WorkflowHandler{service: reportService}
}

// StartReview POST /reports/:id/review.
func (h *WorkflowHandler) StartReview(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	report, err := h.service.StartReview(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportSummary(report)})
}

// Approve POST /reports/:id/approve.
func (h *WorkflowHandler) Approve(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	report, err := h.service.Approve(c.Context(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportSummary(report)})
}

// Reject POST /reports/:id/reject.
func (h *WorkflowHandler) Reject(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	report, err := h.service.Reject(c.Context(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportSummary(report)})
}

// Assign POST /reports/:id/assign.
func (h *WorkflowHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}
	report, err := h.service.Assign(c.Context(), actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportSummary(report)})
}

// StartWork POST /reports/:id/start.
func (h *WorkflowHandler) StartWork(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	report, err := h.service.StartWork(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportSummary(report)})
}

// Complete POST /reports/:id/complete.
func (h *WorkflowHandler) Complete(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	report, err := h.service.Complete(c.Context(), actor, c.Params("id"), workflow.CompletionInput{
		Notes:            req.Notes,
		PartsUsed:        req.PartsUsed,
		TimeSpentMinutes: req.TimeSpentMinutes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportSummary(report)})
}

// Rate POST /reports/:id/rating.
func (h *WorkflowHandler) Rate(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	report, err := h.service.Rate(c.Context(), actor, c.Params("id"), workflow.RatingInput{
		Rating:          req.Rating,
		Feedback:        req.Feedback,
		MarkStillBroken: req.MarkStillBroken,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportSummary(report)})
}
