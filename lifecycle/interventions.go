package lifecycle

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/WesleyEliel/citefix-backend/models"
	"github.com/WesleyEliel/citefix-backend/store"
)

// ErrNoTechnicians rejects an intervention draft with an empty roster.
var ErrNoTechnicians = errors.New("lifecycle: intervention needs at least one technician")

// InterventionManager owns intervention documents: roster, progress steps,
// photos and material cost accounting. Like ReportManager it enforces no
// transition table; ordering policy belongs to the Coordinator and its
// callers.
type InterventionManager struct {
	store store.Interventions
	log   *zap.Logger
}

func NewInterventionManager(s store.Interventions, log *zap.Logger) *InterventionManager {
	return &InterventionManager{store: s, log: log.Named("interventions")}
}

// Create normalizes and persists a draft: non-empty roster, zeroed
// progress, costs derived once from the material list. labor and transport
// start at 0; the total is re-saved by callers if materials change later.
func (m *InterventionManager) Create(ctx context.Context, iv *models.Intervention) (*models.Intervention, error) {
	if len(iv.TechnicianIDs) == 0 {
		return nil, ErrNoTechnicians
	}
	if iv.Status == "" {
		iv.Status = models.InterventionScheduled
	}
	if iv.Priority == "" {
		iv.Priority = models.PriorityMedium
	}
	if iv.Materials == nil {
		iv.Materials = []models.Material{}
	}
	iv.Progress = models.Progress{
		Percentage:  0,
		CurrentStep: "",
		Steps:       []models.InterventionStep{},
	}
	var materialsCost float64
	for _, item := range iv.Materials {
		materialsCost += item.Cost
	}
	iv.Costs = models.Costs{
		Materials: materialsCost,
		Labor:     0,
		Transport: 0,
		Total:     materialsCost,
	}
	if iv.Photos == nil {
		iv.Photos = []models.InterventionPhoto{}
	}
	created, err := m.store.Create(ctx, iv)
	if err != nil {
		return nil, err
	}
	m.log.Info("intervention created",
		zap.String("intervention_id", created.ID.Hex()),
		zap.String("report_id", created.ReportID.Hex()),
		zap.Int("technicians", len(created.TechnicianIDs)))
	return created, nil
}

func (m *InterventionManager) Get(ctx context.Context, id primitive.ObjectID) (*models.Intervention, error) {
	return m.store.Get(ctx, id)
}

// ForReport returns every intervention attached to the report, optionally
// narrowed by status. The result is always recomputed, never cached.
func (m *InterventionManager) ForReport(ctx context.Context, reportID primitive.ObjectID, status *models.InterventionStatus) ([]models.Intervention, error) {
	return m.store.List(ctx, store.InterventionFilter{ReportID: &reportID, Status: status})
}

func (m *InterventionManager) ForTechnician(ctx context.Context, technicianID primitive.ObjectID, status *models.InterventionStatus) ([]models.Intervention, error) {
	return m.store.List(ctx, store.InterventionFilter{TechnicianID: &technicianID, Status: status})
}

func (m *InterventionManager) CountForReport(ctx context.Context, reportID primitive.ObjectID, status *models.InterventionStatus) (int64, error) {
	return m.store.Count(ctx, store.InterventionFilter{ReportID: &reportID, Status: status})
}

// AssignTechnicians replaces the roster and primary flag atomically.
func (m *InterventionManager) AssignTechnicians(ctx context.Context, id primitive.ObjectID, technicianIDs []primitive.ObjectID, isPrimary bool) (*models.Intervention, error) {
	if len(technicianIDs) == 0 {
		return nil, ErrNoTechnicians
	}
	return m.store.Update(ctx, id, store.InterventionPatch{
		TechnicianIDs: &technicianIDs,
		IsPrimary:     &isPrimary,
	})
}

func (m *InterventionManager) AddPhoto(ctx context.Context, id primitive.ObjectID, url, photoType string) (*models.Intervention, error) {
	if photoType == "" {
		photoType = "progress"
	}
	return m.store.Update(ctx, id, store.InterventionPatch{
		PushPhoto: &models.InterventionPhoto{
			Type:    photoType,
			URL:     url,
			TakenAt: time.Now().UTC(),
		},
	})
}

// CompleteStep appends a completed step. It does not touch
// progress.percentage: percentage stays caller-managed through
// UpdateProgress.
func (m *InterventionManager) CompleteStep(ctx context.Context, id primitive.ObjectID, stepName string) (*models.Intervention, error) {
	now := time.Now().UTC()
	return m.store.Update(ctx, id, store.InterventionPatch{
		PushStep: &models.InterventionStep{
			Name:        stepName,
			Completed:   true,
			CompletedAt: &now,
		},
	})
}

func (m *InterventionManager) UpdateProgress(ctx context.Context, id primitive.ObjectID, percentage int, currentStep string) (*models.Intervention, error) {
	return m.store.Update(ctx, id, store.InterventionPatch{
		ProgressPercentage:  &percentage,
		ProgressCurrentStep: &currentStep,
	})
}

// SetStatus is an unconditional status overwrite.
func (m *InterventionManager) SetStatus(ctx context.Context, id primitive.ObjectID, status models.InterventionStatus) (*models.Intervention, error) {
	return m.store.Update(ctx, id, store.InterventionPatch{Status: &status})
}

func (m *InterventionManager) Update(ctx context.Context, id primitive.ObjectID, p store.InterventionPatch) (*models.Intervention, error) {
	return m.store.Update(ctx, id, p)
}
