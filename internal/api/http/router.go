package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/aastu-platform/facility-reports/internal/api/http/handlers"
	"github.com/aastu-platform/facility-reports/internal/auth"
	"github.com/aastu-platform/facility-reports/internal/domain"
	"github.com/aastu-platform/facility-reports/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Reports        *handlers.ReportsHandler
	Workflow       *handlers.WorkflowHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Beyond the submission endpoint, role and
// ownership checks are left to the workflow engine so its error details
// reach the client unchanged.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	reports := api.Group("/reports")
	reports.Post("", auth.RequireRole(domain.RoleReporter), cfg.Reports.SubmitReport)
	reports.Get("", cfg.Reports.ListReports)
	reports.Get("/:id", cfg.Reports.GetReport)
	reports.Get("/:id/history", cfg.Reports.GetHistory)

	reports.Post("/:id/review", cfg.Workflow.StartReview)
	reports.Post("/:id/approve", cfg.Workflow.Approve)
	reports.Post("/:id/reject", cfg.Workflow.Reject)
	reports.Post("/:id/assign", cfg.Workflow.Assign)
	reports.Post("/:id/start", cfg.Workflow.StartWork)
	reports.Post("/:id/complete", cfg.Workflow.Complete)
	reports.Post("/:id/rating", cfg.Workflow.Rate)

	notifications := api.Group("/notifications")
	notifications.Get("", cfg.Notifications.ListNotifications)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
}
