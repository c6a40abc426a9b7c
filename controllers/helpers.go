package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/WesleyEliel/citefix-backend/lifecycle"
	"github.com/WesleyEliel/citefix-backend/store"
)

// Handlers bundles the injected lifecycle components behind the HTTP
// surface.
type Handlers struct {
	Reports       *lifecycle.ReportManager
	Interventions *lifecycle.InterventionManager
	Coordinator   *lifecycle.Coordinator
	Log           *zap.Logger
}

func NewHandlers(r *lifecycle.ReportManager, iv *lifecycle.InterventionManager, co *lifecycle.Coordinator, log *zap.Logger) *Handlers {
	return &Handlers{Reports: r, Interventions: iv, Coordinator: co, Log: log.Named("http")}
}

type ErrorResp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func badReq(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResp{OK: false, Error: msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResp{OK: false, Error: msg})
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(ErrorResp{OK: false, Error: msg})
}

func serverErr(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResp{OK: false, Error: err.Error()})
}

// fail maps lifecycle/store errors onto the HTTP error surface.
func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound(c, "not found")
	case errors.Is(err, lifecycle.ErrNotAssigned):
		return forbidden(c, err.Error())
	case errors.Is(err, lifecycle.ErrNoTechnicians):
		return badReq(c, err.Error())
	default:
		h.Log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return serverErr(c, err)
	}
}

// opCtx bounds every record-store access by the request lifetime plus a
// hard ceiling.
func opCtx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), 8*time.Second)
}

func parseOID(hex string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func parseOIDList(hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		oid, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}
