package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/WesleyEliel/citefix-backend/controllers"
	"github.com/WesleyEliel/citefix-backend/middleware"
)

// Register attaches all API endpoints to the app.
func Register(app *fiber.App, h *controllers.Handlers, jwtSecret string) {
	api := app.Group("/api/v1")

	auth := middleware.RequireAuth(jwtSecret)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleSuperAdmin)

	reports := api.Group("/reports")
	reports.Get("/", h.ListReports)
	reports.Post("/", auth, h.CreateReport)
	reports.Get("/:id", h.GetReport)
	reports.Post("/:id/engage", h.EngageReport)
	reports.Post("/:id/media", auth, h.AddReportMedia)
	reports.Put("/:id/status", auth, adminOnly, h.UpdateReportStatus)
	reports.Put("/:id", auth, adminOnly, h.UpdateReport)

	iv := api.Group("/interventions")
	iv.Post("/", auth, adminOnly, h.CreateIntervention)
	iv.Get("/report/:reportID", h.ListReportInterventions)
	iv.Get("/technician/:technicianID", auth, h.ListTechnicianInterventions)
	iv.Get("/:id", h.GetIntervention)
	iv.Put("/:id/status", auth, h.UpdateInterventionStatus)
	iv.Put("/:id/progress", auth, h.UpdateProgress)
	iv.Put("/:id", auth, h.UpdateIntervention)
	iv.Post("/:id/complete-step", auth, h.CompleteStep)
	iv.Post("/:id/complete", auth, h.CompleteIntervention)
	iv.Post("/:id/photos", auth, h.AddInterventionPhoto)
	iv.Post("/:id/assign-technicians", auth, adminOnly, h.AssignTechnicians)
}
