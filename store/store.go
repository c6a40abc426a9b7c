// Package store is the record layer: typed access to report and
// intervention documents with single-document atomic updates.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/WesleyEliel/citefix-backend/models"
)

var (
	// ErrNotFound means the referenced document does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConditionFailed means the document exists but a conditional
	// update's guard did not match.
	ErrConditionFailed = errors.New("store: condition failed")
)

// ReportFilter selects reports for List. Zero fields are ignored.
type ReportFilter struct {
	Category *models.ReportCategory
	Status   *models.ReportStatus
	Priority *models.ReportPriority
	Zone     string
	// Cursor restricts results to ids strictly below it (newest-first
	// pagination, as ObjectIDs are time-ordered).
	Cursor primitive.ObjectID
	Limit  int64
}

// ReportCond guards a conditional report update.
type ReportCond struct {
	StatusNot models.ReportStatus
}

type Reports interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	Create(ctx context.Context, r *models.Report) (*models.Report, error)
	Update(ctx context.Context, id primitive.ObjectID, p ReportPatch) (*models.Report, error)
	// UpdateWhere applies p only if cond holds; returns ErrConditionFailed
	// when the document exists but the guard does not match.
	UpdateWhere(ctx context.Context, id primitive.ObjectID, cond ReportCond, p ReportPatch) (*models.Report, error)
	List(ctx context.Context, f ReportFilter) ([]models.Report, error)
}

// InterventionFilter selects interventions for List/Count.
type InterventionFilter struct {
	ReportID     *primitive.ObjectID
	TechnicianID *primitive.ObjectID
	Status       *models.InterventionStatus
}

type Interventions interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Intervention, error)
	Create(ctx context.Context, iv *models.Intervention) (*models.Intervention, error)
	Update(ctx context.Context, id primitive.ObjectID, p InterventionPatch) (*models.Intervention, error)
	List(ctx context.Context, f InterventionFilter) ([]models.Intervention, error)
	Count(ctx context.Context, f InterventionFilter) (int64, error)
}
