package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aastu-platform/facility-reports/internal/api/dto"
	"github.com/aastu-platform/facility-reports/internal/auth"
	"github.com/aastu-platform/facility-reports/internal/domain"
	"github.com/aastu-platform/facility-reports/internal/service"
	"github.com/aastu-platform/facility-reports/internal/sla"
	apperrors "github.com/aastu-platform/facility-reports/pkg/errorutil"
)

// ReportsHandler manages report submission and read endpoints.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// SubmitReport POST /reports.
func (h *ReportsHandler) SubmitReport(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.Submit(c.Context(), actor, service.SubmitInput{
		Category:       req.Category,
		Block:          req.Block,
		Room:           req.Room,
		LocationDetail: req.LocationDetail,
		Equipment:      req.Equipment,
		Problem:        req.Problem,
	})
	if err != nil {
		return err
	}

	response := dto.SubmitReportResponse{
		Report:           reportSummary(result.Report),
		DuplicateWarning: result.DuplicateWarning,
	}
	for _, candidate := range result.Duplicates {
		response.Duplicates = append(response.Duplicates, dto.DuplicateCandidateResponse{
			ReportID:   candidate.ReportID,
			TicketCode: candidate.TicketCode,
			Status:     candidate.Status,
			Score:      candidate.Score,
		})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": response})
}

// ListReports GET /reports.
func (h *ReportsHandler) ListReports(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	reports, err := h.service.ListReports(c.Context(), actor, parseReportQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.ReportSummary, 0, len(reports))
	for i := range reports {
		items = append(items, reportSummary(&reports[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetReport GET /reports/:id.
func (h *ReportsHandler) GetReport(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	detail, err := h.service.GetReport(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportDetail(detail.Report, detail.SLA)})
}

// GetHistory GET /reports/:id/history.
func (h *ReportsHandler) GetHistory(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	entries, err := h.service.ListHistory(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.HistoryEntryResponse{
			Seq:        entry.Seq,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			Action:     entry.Action,
			ActorID:    entry.ActorID,
			Detail:     entry.Detail,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseReportQuery(c *fiber.Ctx) service.ReportListFilter {
	filter := service.ReportListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ReportStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		category := domain.Category(strings.ToUpper(strings.TrimSpace(categoryStr)))
		filter.Category = &category
	}
	if block := strings.TrimSpace(c.Query("block")); block != "" {
		filter.Block = &block
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	filter.Limit = parseInt(c.Query("limit"), 50)
	filter.Offset = parseInt(c.Query("offset"), 0)
	return filter
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func reportSummary(report *domain.Report) dto.ReportSummary {
	return dto.ReportSummary{
		ID:             report.ID,
		TicketCode:     report.TicketCode,
		Category:       report.Category,
		Block:          report.Block,
		Room:           report.Room,
		LocationDetail: report.LocationDetail,
		Equipment:      report.Equipment,
		Problem:        report.Problem,
		Status:         report.Status,
		Priority:       report.Priority,
		SubmitterID:    report.SubmitterID,
		AssigneeID:     report.AssigneeID,
		CreatedAt:      report.CreatedAt,
		UpdatedAt:      report.UpdatedAt,
	}
}

func reportDetail(report *domain.Report, window *sla.Window) dto.ReportDetailResponse {
	detail := dto.ReportDetailResponse{
		ReportSummary:    reportSummary(report),
		RejectionReason:  report.RejectionReason,
		CompletionNotes:  report.CompletionNotes,
		PartsUsed:        report.PartsUsed,
		TimeSpentMinutes: report.TimeSpentMinutes,
		Rating:           report.Rating,
		Feedback:         report.Feedback,
		CompletedAt:      report.CompletedAt,
	}
	if window != nil {
		remaining := int64(window.Remaining / time.Minute)
		if window.Overdue {
			remaining = -remaining
		}
		detail.SLA = &dto.SLAWindowResponse{
			Deadline:         window.Deadline,
			RemainingMinutes: remaining,
			Overdue:          window.Overdue,
		}
	}
	return detail
}
