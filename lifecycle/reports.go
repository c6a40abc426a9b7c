// Package lifecycle holds the report/intervention state machines and the
// coordinator that keeps a report's status consistent with its
// interventions.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/WesleyEliel/citefix-backend/models"
	"github.com/WesleyEliel/citefix-backend/store"
)

// EngagementField names a report engagement counter.
type EngagementField string

const (
	EngageViews         EngagementField = "views"
	EngageConfirmations EngagementField = "confirmations"
)

func ParseEngagementField(s string) (EngagementField, error) {
	switch v := EngagementField(strings.ToLower(strings.TrimSpace(s))); v {
	case EngageViews, EngageConfirmations:
		return v, nil
	default:
		return "", fmt.Errorf("unknown engagement field %q", s)
	}
}

// ReportManager owns report documents and their status-history audit log.
// It is a mechanism, not a policy: any status may follow any other, and
// transition legality lives in the Coordinator.
type ReportManager struct {
	store store.Reports
	log   *zap.Logger
}

func NewReportManager(s store.Reports, log *zap.Logger) *ReportManager {
	return &ReportManager{store: s, log: log.Named("reports")}
}

// Create persists a citizen submission: status reported, empty history.
func (m *ReportManager) Create(ctx context.Context, r *models.Report, citizenID primitive.ObjectID) (*models.Report, error) {
	if r.CitizenID.IsZero() {
		r.CitizenID = citizenID
	}
	if r.Priority == "" {
		r.Priority = models.PriorityMedium
	}
	r.Status = models.ReportReported
	r.StatusHistory = []models.StatusHistoryEntry{}
	if r.Media == nil {
		r.Media = []models.MediaItem{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return m.store.Create(ctx, r)
}

func (m *ReportManager) Get(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	return m.store.Get(ctx, id)
}

func (m *ReportManager) Search(ctx context.Context, f store.ReportFilter) ([]models.Report, error) {
	return m.store.List(ctx, f)
}

func historyPatch(newStatus models.ReportStatus, actorID primitive.ObjectID, comment string) store.ReportPatch {
	return store.ReportPatch{
		Status: &newStatus,
		PushHistory: &models.StatusHistoryEntry{
			Status:  newStatus,
			Date:    time.Now().UTC(),
			UserID:  actorID,
			Comment: comment,
		},
	}
}

// Transition sets the status and appends the matching history entry in one
// atomic update.
func (m *ReportManager) Transition(ctx context.Context, id primitive.ObjectID, newStatus models.ReportStatus, actorID primitive.ObjectID, comment string) (*models.Report, error) {
	r, err := m.store.Update(ctx, id, historyPatch(newStatus, actorID, comment))
	if err != nil {
		return nil, err
	}
	m.log.Info("report status transition",
		zap.String("report_id", id.Hex()),
		zap.String("status", string(newStatus)),
		zap.String("actor_id", actorID.Hex()))
	return r, nil
}

// TransitionUnless is Transition guarded by "current status is not
// `unless`". Returns store.ErrConditionFailed when the guard trips, which
// lets concurrent writers agree on exactly one transition.
func (m *ReportManager) TransitionUnless(ctx context.Context, id primitive.ObjectID, unless, newStatus models.ReportStatus, actorID primitive.ObjectID, comment string) (*models.Report, error) {
	r, err := m.store.UpdateWhere(ctx, id, store.ReportCond{StatusNot: unless}, historyPatch(newStatus, actorID, comment))
	if err != nil {
		return nil, err
	}
	m.log.Info("report status transition",
		zap.String("report_id", id.Hex()),
		zap.String("status", string(newStatus)),
		zap.String("actor_id", actorID.Hex()))
	return r, nil
}

// Update applies a direct field edit. Status changes must not pass
// through here: they go through Transition so the audit log stays
// complete.
func (m *ReportManager) Update(ctx context.Context, id primitive.ObjectID, p store.ReportPatch) (*models.Report, error) {
	if p.Status != nil || p.PushHistory != nil {
		return nil, fmt.Errorf("status edits go through Transition")
	}
	return m.store.Update(ctx, id, p)
}

func (m *ReportManager) AddMedia(ctx context.Context, id primitive.ObjectID, item models.MediaItem) (*models.Report, error) {
	if item.UploadedAt.IsZero() {
		item.UploadedAt = time.Now().UTC()
	}
	return m.store.Update(ctx, id, store.ReportPatch{PushMedia: &item})
}

func (m *ReportManager) IncrementEngagement(ctx context.Context, id primitive.ObjectID, field EngagementField, amount int) (*models.Report, error) {
	if amount <= 0 {
		amount = 1
	}
	p := store.ReportPatch{}
	switch field {
	case EngageViews:
		p.IncViews = amount
	case EngageConfirmations:
		p.IncConfirmations = amount
	default:
		return nil, fmt.Errorf("unknown engagement field %q", field)
	}
	return m.store.Update(ctx, id, p)
}
