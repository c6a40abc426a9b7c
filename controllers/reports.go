package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/WesleyEliel/citefix-backend/lifecycle"
	"github.com/WesleyEliel/citefix-backend/middleware"
	"github.com/WesleyEliel/citefix-backend/models"
	"github.com/WesleyEliel/citefix-backend/store"
)

func (h *Handlers) CreateReport(c *fiber.Ctx) error {
	var p models.ReportCreatePayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Description) == "" {
		return badReq(c, "title and description are required")
	}
	category, err := models.ParseReportCategory(p.Category)
	if err != nil {
		return badReq(c, err.Error())
	}
	priority := models.PriorityMedium
	if p.Priority != "" {
		if priority, err = models.ParseReportPriority(p.Priority); err != nil {
			return badReq(c, err.Error())
		}
	}

	doc := models.Report{
		Title:       strings.TrimSpace(p.Title),
		Description: strings.TrimSpace(p.Description),
		Category:    category,
		Priority:    priority,
		Location:    p.Location,
		Anonymous:   p.Anonymous,
		Tags:        p.Tags,
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	created, err := h.Reports.Create(ctx, &doc, middleware.ActorID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.CreateResp{OK: true, ID: created.ID.Hex()})
}

func (h *Handlers) GetReport(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid report id")
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	r, err := h.Reports.Get(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(r)
}

func (h *Handlers) ListReports(c *fiber.Ctx) error {
	f := store.ReportFilter{Limit: 20}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n < 1 {
				n = 1
			}
			if n > 100 {
				n = 100
			}
			f.Limit = int64(n)
		}
	}
	if v := c.Query("category"); v != "" {
		cat, err := models.ParseReportCategory(v)
		if err != nil {
			return badReq(c, err.Error())
		}
		f.Category = &cat
	}
	if v := c.Query("status"); v != "" {
		st, err := models.ParseReportStatus(v)
		if err != nil {
			return badReq(c, err.Error())
		}
		f.Status = &st
	}
	if v := c.Query("priority"); v != "" {
		pr, err := models.ParseReportPriority(v)
		if err != nil {
			return badReq(c, err.Error())
		}
		f.Priority = &pr
	}
	f.Zone = c.Query("zone")
	if v := c.Query("cursor"); v != "" {
		oid, ok := parseOID(v)
		if !ok {
			return badReq(c, "invalid cursor")
		}
		f.Cursor = oid
	}

	// One extra row decides whether to hand back a cursor.
	limit := f.Limit
	f.Limit = limit + 1

	ctx, cancel := opCtx(c)
	defer cancel()
	items, err := h.Reports.Search(ctx, f)
	if err != nil {
		return h.fail(c, err)
	}
	resp := models.ReportListResp{OK: true, Items: items}
	if int64(len(items)) > limit {
		resp.Items = items[:limit]
		resp.NextCursor = items[limit-1].ID.Hex()
	}
	return c.JSON(resp)
}

func (h *Handlers) AddReportMedia(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid report id")
	}
	var p models.MediaPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	if p.URL == "" {
		return badReq(c, "url is required")
	}
	if p.Type == "" {
		p.Type = "image"
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	r, err := h.Reports.AddMedia(ctx, id, models.MediaItem{
		Type:      p.Type,
		URL:       p.URL,
		Thumbnail: p.Thumbnail,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(r)
}

func (h *Handlers) EngageReport(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid report id")
	}
	var p models.EngagePayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	field, err := lifecycle.ParseEngagementField(p.Field)
	if err != nil {
		return badReq(c, err.Error())
	}
	if p.Amount < 0 {
		return badReq(c, "amount must be positive")
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	r, err := h.Reports.IncrementEngagement(ctx, id, field, p.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(r)
}

// UpdateReport is the general admin edit. A status in the payload wins:
// it is routed through the audited transition and the remaining fields
// are left for a follow-up request, mirroring the admin edit flow.
func (h *Handlers) UpdateReport(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid report id")
	}
	var p models.ReportUpdatePayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}

	ctx, cancel := opCtx(c)
	defer cancel()

	if p.Status != nil {
		st, err := models.ParseReportStatus(*p.Status)
		if err != nil {
			return badReq(c, err.Error())
		}
		r, err := h.Reports.Transition(ctx, id, st, middleware.ActorID(c), p.Comment)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(r)
	}

	patch := store.ReportPatch{
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
	}
	if p.Category != nil {
		cat, err := models.ParseReportCategory(*p.Category)
		if err != nil {
			return badReq(c, err.Error())
		}
		patch.Category = &cat
	}
	if p.Priority != nil {
		pr, err := models.ParseReportPriority(*p.Priority)
		if err != nil {
			return badReq(c, err.Error())
		}
		patch.Priority = &pr
	}

	r, err := h.Reports.Update(ctx, id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(r)
}

// UpdateReportStatus is the direct admin edit; it bypasses the coordinator
// on purpose (validation, rejection and similar manual decisions).
func (h *Handlers) UpdateReportStatus(c *fiber.Ctx) error {
	id, ok := parseOID(c.Params("id"))
	if !ok {
		return badReq(c, "invalid report id")
	}
	var p models.ReportStatusPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	st, err := models.ParseReportStatus(p.Status)
	if err != nil {
		return badReq(c, err.Error())
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	r, err := h.Reports.Transition(ctx, id, st, middleware.ActorID(c), p.Comment)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(r)
}
