package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/WesleyEliel/citefix-backend/models"
	"github.com/WesleyEliel/citefix-backend/store"
)

// ErrNotAssigned rejects a completion attempt by a technician who is not
// on the intervention's roster.
var ErrNotAssigned = errors.New("lifecycle: actor is not assigned to this intervention")

// StatusChangeHook observes report transitions driven by the coordinator,
// for an external notifier to subscribe to.
type StatusChangeHook func(reportID primitive.ObjectID, oldStatus, newStatus models.ReportStatus)

// Coordinator derives the report status from the aggregate state of its
// interventions. It holds no persisted state of its own: aggregates are
// recomputed from the store on every event.
type Coordinator struct {
	reports       *ReportManager
	interventions *InterventionManager
	log           *zap.Logger
	hooks         []StatusChangeHook
}

func NewCoordinator(r *ReportManager, iv *InterventionManager, log *zap.Logger) *Coordinator {
	return &Coordinator{reports: r, interventions: iv, log: log.Named("coordinator")}
}

// OnReportStatusChange registers a hook. Registration is wiring-time only
// and is not safe to call concurrently with lifecycle operations.
func (c *Coordinator) OnReportStatusChange(h StatusChangeHook) {
	c.hooks = append(c.hooks, h)
}

func (c *Coordinator) notify(reportID primitive.ObjectID, oldStatus, newStatus models.ReportStatus) {
	for _, h := range c.hooks {
		h(reportID, oldStatus, newStatus)
	}
}

// ReportStatusFor maps an intervention status change to the report status
// it implies. Total over the status domain: everything that is not
// in_progress or completed collapses to assigned.
func ReportStatusFor(s models.InterventionStatus) models.ReportStatus {
	switch s {
	case models.InterventionInProgress:
		return models.ReportInProgress
	case models.InterventionCompleted:
		return models.ReportResolved
	default:
		return models.ReportAssigned
	}
}

// CreateIntervention creates an intervention under an existing report. If
// it is the report's first intervention, the report moves to assigned with
// the first rostered technician as actor; later interventions leave the
// report alone.
func (c *Coordinator) CreateIntervention(ctx context.Context, iv *models.Intervention) (*models.Intervention, error) {
	report, err := c.reports.Get(ctx, iv.ReportID)
	if err != nil {
		return nil, err
	}
	existing, err := c.interventions.CountForReport(ctx, iv.ReportID, nil)
	if err != nil {
		return nil, err
	}
	created, err := c.interventions.Create(ctx, iv)
	if err != nil {
		return nil, err
	}
	if existing == 0 {
		actor := created.TechnicianIDs[0]
		if _, err := c.reports.Transition(ctx, report.ID, models.ReportAssigned, actor, "Initial intervention created"); err != nil {
			// The intervention is already persisted; no rollback.
			return created, fmt.Errorf("intervention %s created but report sync failed: %w", created.ID.Hex(), err)
		}
		c.notify(report.ID, report.Status, models.ReportAssigned)
	}
	return created, nil
}

// UpdateInterventionStatus sets the intervention status and pushes the
// derived report status with an audit comment.
func (c *Coordinator) UpdateInterventionStatus(ctx context.Context, interventionID primitive.ObjectID, newStatus models.InterventionStatus, reportID, actorID primitive.ObjectID) (*models.Intervention, error) {
	iv, err := c.interventions.SetStatus(ctx, interventionID, newStatus)
	if err != nil {
		return nil, err
	}
	report, err := c.reports.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	target := ReportStatusFor(newStatus)
	comment := fmt.Sprintf("Intervention status changed to %s", newStatus)
	if _, err := c.reports.Transition(ctx, reportID, target, actorID, comment); err != nil {
		return iv, fmt.Errorf("intervention %s updated but report sync failed: %w", interventionID.Hex(), err)
	}
	c.notify(reportID, report.Status, target)
	return iv, nil
}

// CompleteIntervention marks the intervention completed, provided the
// actor is on its roster, then resolves the report once every intervention
// under it is completed. The recount runs after this completion is
// durable, and the report write is guarded so racing completers produce
// exactly one resolved transition.
func (c *Coordinator) CompleteIntervention(ctx context.Context, interventionID, reportID, actorID primitive.ObjectID) (*models.Intervention, error) {
	iv, err := c.interventions.Get(ctx, interventionID)
	if err != nil {
		return nil, err
	}
	if !iv.AssignedTo(actorID) {
		return nil, ErrNotAssigned
	}

	iv, err = c.interventions.SetStatus(ctx, interventionID, models.InterventionCompleted)
	if err != nil {
		return nil, err
	}

	total, err := c.interventions.CountForReport(ctx, reportID, nil)
	if err != nil {
		return iv, fmt.Errorf("intervention %s completed but aggregate recount failed: %w", interventionID.Hex(), err)
	}
	done := models.InterventionCompleted
	completed, err := c.interventions.CountForReport(ctx, reportID, &done)
	if err != nil {
		return iv, fmt.Errorf("intervention %s completed but aggregate recount failed: %w", interventionID.Hex(), err)
	}
	if completed < total {
		// Partial completion is silent.
		return iv, nil
	}

	report, err := c.reports.Get(ctx, reportID)
	if err != nil {
		return iv, err
	}
	_, err = c.reports.TransitionUnless(ctx, reportID, models.ReportResolved, models.ReportResolved, actorID, "All interventions completed")
	if errors.Is(err, store.ErrConditionFailed) {
		// A concurrent completer already resolved the report.
		c.log.Debug("report already resolved", zap.String("report_id", reportID.Hex()))
		return iv, nil
	}
	if err != nil {
		c.log.Warn("report left behind its interventions",
			zap.String("report_id", reportID.Hex()),
			zap.Error(err))
		return iv, fmt.Errorf("intervention %s completed but report sync failed: %w", interventionID.Hex(), err)
	}
	c.notify(reportID, report.Status, models.ReportResolved)
	return iv, nil
}
