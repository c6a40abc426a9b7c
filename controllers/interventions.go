package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/WesleyEliel/citefix-backend/middleware"
	"github.com/WesleyEliel/citefix-backend/models"
	"github.com/WesleyEliel/citefix-backend/store"
)

func (h *Handlers) CreateIntervention(c *fiber.Ctx) error {
	var p models.InterventionCreatePayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	reportID, ok := parseOID(p.ReportID)
	if !ok {
		return badReq(c, "invalid report_id")
	}
	technicianIDs, err := parseOIDList(p.TechnicianIDs)
	if err != nil {
		return badReq(c, "invalid technician id")
	}
	if len(technicianIDs) == 0 {
		return badReq(c, "technician_ids is required")
	}
	priority := models.PriorityMedium
	if p.Priority != "" {
		if priority, err = models.ParseReportPriority(p.Priority); err != nil {
			return badReq(c, err.Error())
		}
	}

	draft := models.Intervention{
		ReportID:          reportID,
		TechnicianIDs:     technicianIDs,
		IsPrimary:         p.IsPrimary,
		Title:             strings.TrimSpace(p.Title),
		Description:       strings.TrimSpace(p.Description),
		Priority:          priority,
		Materials:         p.Materials,
		EstimatedDuration: p.EstimatedDuration,
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	created, err := h.Coordinator.CreateIntervention(ctx, &draft)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handlers) GetIntervention(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid intervention id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	iv, err := h.Interventions.Get(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(iv)
}

func (h *Handlers) UpdateIntervention(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid intervention id")
	}
	var p models.InterventionUpdatePayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	patch := store.InterventionPatch{
		Title:       p.Title,
		Description: p.Description,
		Notes:       p.Notes,
	}
	if p.Status != nil {
		st, err := models.ParseInterventionStatus(*p.Status)
		if err != nil {
			return badReq(c, err.Error())
		}
		patch.Status = &st
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	if patch.Status != nil {
		cur, err := h.Interventions.Get(ctx, id)
		if err != nil {
			return h.fail(c, err)
		}
		if cur.Status.Terminal() {
			return badReq(c, "intervention is in a terminal state")
		}
	}
	iv, err := h.Interventions.Update(ctx, id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(iv)
}

// UpdateInterventionStatus runs the coordinator so the parent report tracks
// the change.
func (h *Handlers) UpdateInterventionStatus(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid intervention id")
	}
	var p models.InterventionStatusPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	reportID, ok := parseOID(p.ReportID)
	if !ok {
		return badReq(c, "invalid report_id")
	}
	st, err := models.ParseInterventionStatus(p.Status)
	if err != nil {
		return badReq(c, err.Error())
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	iv, err := h.Coordinator.UpdateInterventionStatus(ctx, id, st, reportID, middleware.ActorID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(iv)
}

func (h *Handlers) CompleteIntervention(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid intervention id")
	}
	var p models.CompletePayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	reportID, ok := parseOID(p.ReportID)
	if !ok {
		return badReq(c, "invalid report_id")
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	iv, err := h.Coordinator.CompleteIntervention(ctx, id, reportID, middleware.ActorID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(iv)
}

func (h *Handlers) AssignTechnicians(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid intervention id")
	}
	var p models.AssignTechniciansPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	technicianIDs, err := parseOIDList(p.TechnicianIDs)
	if err != nil {
		return badReq(c, "invalid technician id")
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	iv, err := h.Interventions.AssignTechnicians(ctx, id, technicianIDs, p.IsPrimary)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(iv)
}

func (h *Handlers) AddInterventionPhoto(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid intervention id")
	}
	var p models.PhotoPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	if p.URL == "" {
		return badReq(c, "url is required")
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	iv, err := h.Interventions.AddPhoto(ctx, id, p.URL, p.Type)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(iv)
}

func (h *Handlers) CompleteStep(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid intervention id")
	}
	var p models.CompleteStepPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	if strings.TrimSpace(p.StepName) == "" {
		return badReq(c, "step_name is required")
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	iv, err := h.Interventions.CompleteStep(ctx, id, strings.TrimSpace(p.StepName))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(iv)
}

func (h *Handlers) UpdateProgress(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid intervention id")
	}
	var p models.ProgressPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	if p.Percentage < 0 || p.Percentage > 100 {
		return badReq(c, "percentage must be between 0 and 100")
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	iv, err := h.Interventions.UpdateProgress(ctx, id, p.Percentage, p.CurrentStep)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(iv)
}

func (h *Handlers) ListReportInterventions(c *fiber.Ctx) error {
	reportID, ok := parseOID(c.Params("reportID"))
	if !ok {
		return badReq(c, "invalid report id")
	}
	var status *models.InterventionStatus
	if v := c.Query("status"); v != "" {
		st, err := models.ParseInterventionStatus(v)
		if err != nil {
			return badReq(c, err.Error())
		}
		status = &st
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Interventions.ForReport(ctx, reportID, status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "items": items})
}

func (h *Handlers) ListTechnicianInterventions(c *fiber.Ctx) error {
	technicianID, ok := parseOID(c.Params("technicianID"))
	if !ok {
		return badReq(c, "invalid technician id")
	}
	// Technicians may only list their own work; admins may list anyone's.
	if !middleware.IsAdmin(c) && middleware.ActorID(c) != technicianID {
		return forbidden(c, "can only view your own interventions")
	}
	var status *models.InterventionStatus
	if v := c.Query("status"); v != "" {
		st, err := models.ParseInterventionStatus(v)
		if err != nil {
			return badReq(c, err.Error())
		}
		status = &st
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Interventions.ForTechnician(ctx, technicianID, status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "items": items})
}
