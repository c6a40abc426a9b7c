package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InterventionStatus string

const (
	InterventionScheduled  InterventionStatus = "scheduled"
	InterventionAssigned   InterventionStatus = "assigned"
	InterventionInProgress InterventionStatus = "in_progress"
	InterventionCompleted  InterventionStatus = "completed"
	InterventionCancelled  InterventionStatus = "cancelled"
	InterventionSuccessed  InterventionStatus = "successed"
)

func ParseInterventionStatus(s string) (InterventionStatus, error) {
	switch v := InterventionStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case InterventionScheduled, InterventionAssigned, InterventionInProgress,
		InterventionCompleted, InterventionCancelled, InterventionSuccessed:
		return v, nil
	default:
		return "", fmt.Errorf("unknown intervention status %q", s)
	}
}

// Terminal reports whether no further status change is expected.
func (s InterventionStatus) Terminal() bool {
	switch s {
	case InterventionCompleted, InterventionCancelled, InterventionSuccessed:
		return true
	}
	return false
}

type Material struct {
	Name     string  `bson:"name" json:"name"`
	Quantity float64 `bson:"quantity" json:"quantity"`
	Unit     string  `bson:"unit" json:"unit"`
	Cost     float64 `bson:"cost" json:"cost"`
}

type InterventionStep struct {
	Name        string     `bson:"name" json:"name"`
	Completed   bool       `bson:"completed" json:"completed"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

type Progress struct {
	Percentage  int                `bson:"percentage" json:"percentage"`
	CurrentStep string             `bson:"current_step" json:"current_step"`
	Steps       []InterventionStep `bson:"steps" json:"steps"`
}

type InterventionPhoto struct {
	Type    string    `bson:"type" json:"type"`
	URL     string    `bson:"url" json:"url"`
	TakenAt time.Time `bson:"taken_at" json:"taken_at"`
}

// Costs are fixed at creation from the material list; later material edits
// do not re-derive them (callers must re-save costs explicitly).
type Costs struct {
	Materials float64 `bson:"materials" json:"materials"`
	Labor     float64 `bson:"labor" json:"labor"`
	Transport float64 `bson:"transport" json:"transport"`
	Total     float64 `bson:"total" json:"total"`
}

type Intervention struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ReportID          primitive.ObjectID   `bson:"report_id" json:"report_id"`
	TechnicianIDs     []primitive.ObjectID `bson:"technician_ids" json:"technician_ids"`
	IsPrimary         bool                 `bson:"is_primary" json:"is_primary"`
	Title             string               `bson:"title" json:"title"`
	Description       string               `bson:"description" json:"description"`
	Status            InterventionStatus   `bson:"status" json:"status"`
	Priority          ReportPriority       `bson:"priority" json:"priority"`
	Materials         []Material           `bson:"materials" json:"materials"`
	EstimatedDuration int                  `bson:"estimated_duration" json:"estimated_duration"` // minutes
	Progress          Progress             `bson:"progress" json:"progress"`
	Photos            []InterventionPhoto  `bson:"photos" json:"photos"`
	Costs             Costs                `bson:"costs" json:"costs"`
	Notes             string               `bson:"notes" json:"notes"`
	CreatedAt         time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time            `bson:"updated_at" json:"updated_at"`
}

// AssignedTo reports whether the technician is on this intervention's roster.
func (iv *Intervention) AssignedTo(technicianID primitive.ObjectID) bool {
	for _, id := range iv.TechnicianIDs {
		if id == technicianID {
			return true
		}
	}
	return false
}
