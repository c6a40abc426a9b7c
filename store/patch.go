package store

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/WesleyEliel/citefix-backend/models"
)

// ReportPatch is a typed partial update for a report document. Nil fields
// are untouched; Push* append to lists; Inc* bump counters. One patch
// compiles to one update document, so everything it carries lands
// atomically.
type ReportPatch struct {
	Title       *string
	Description *string
	Category    *models.ReportCategory
	Priority    *models.ReportPriority
	Status      *models.ReportStatus
	Tags        *[]string

	PushHistory *models.StatusHistoryEntry
	PushMedia   *models.MediaItem

	IncViews         int
	IncConfirmations int
}

func (p ReportPatch) Validate() error {
	if p.Status != nil {
		if v, err := models.ParseReportStatus(string(*p.Status)); err != nil || v != *p.Status {
			return fmt.Errorf("non-canonical report status %q", *p.Status)
		}
	}
	if p.PushHistory != nil {
		if v, err := models.ParseReportStatus(string(p.PushHistory.Status)); err != nil || v != p.PushHistory.Status {
			return fmt.Errorf("history entry: non-canonical report status %q", p.PushHistory.Status)
		}
		if p.PushHistory.UserID.IsZero() {
			return fmt.Errorf("history entry: missing actor")
		}
	}
	if p.PushMedia != nil && p.PushMedia.URL == "" {
		return fmt.Errorf("media entry: missing url")
	}
	if p.IncViews < 0 || p.IncConfirmations < 0 {
		return fmt.Errorf("engagement counters only increment")
	}
	return nil
}

// UpdateDoc compiles the patch into a Mongo update document. updated_at is
// always set.
func (p ReportPatch) UpdateDoc(now time.Time) (bson.M, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	set := bson.M{"updated_at": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Tags != nil {
		set["tags"] = *p.Tags
	}
	update := bson.M{"$set": set}

	push := bson.M{}
	if p.PushHistory != nil {
		push["status_history"] = *p.PushHistory
	}
	if p.PushMedia != nil {
		push["media"] = *p.PushMedia
	}
	if len(push) > 0 {
		update["$push"] = push
	}

	inc := bson.M{}
	if p.IncViews != 0 {
		inc["engagement.views"] = p.IncViews
	}
	if p.IncConfirmations != 0 {
		inc["engagement.confirmations"] = p.IncConfirmations
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	return update, nil
}

// InterventionPatch is the intervention counterpart of ReportPatch.
type InterventionPatch struct {
	Title         *string
	Description   *string
	Notes         *string
	Status        *models.InterventionStatus
	TechnicianIDs *[]primitive.ObjectID
	IsPrimary     *bool

	ProgressPercentage  *int
	ProgressCurrentStep *string

	PushStep  *models.InterventionStep
	PushPhoto *models.InterventionPhoto
}

func (p InterventionPatch) Validate() error {
	if p.Status != nil {
		if v, err := models.ParseInterventionStatus(string(*p.Status)); err != nil || v != *p.Status {
			return fmt.Errorf("non-canonical intervention status %q", *p.Status)
		}
	}
	if p.TechnicianIDs != nil && len(*p.TechnicianIDs) == 0 {
		return fmt.Errorf("technician roster cannot be emptied")
	}
	if p.ProgressPercentage != nil && (*p.ProgressPercentage < 0 || *p.ProgressPercentage > 100) {
		return fmt.Errorf("progress percentage out of range: %d", *p.ProgressPercentage)
	}
	if p.PushStep != nil && p.PushStep.Name == "" {
		return fmt.Errorf("step entry: missing name")
	}
	if p.PushPhoto != nil && p.PushPhoto.URL == "" {
		return fmt.Errorf("photo entry: missing url")
	}
	return nil
}

func (p InterventionPatch) UpdateDoc(now time.Time) (bson.M, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	set := bson.M{"updated_at": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.TechnicianIDs != nil {
		set["technician_ids"] = *p.TechnicianIDs
	}
	if p.IsPrimary != nil {
		set["is_primary"] = *p.IsPrimary
	}
	if p.ProgressPercentage != nil {
		set["progress.percentage"] = *p.ProgressPercentage
	}
	if p.ProgressCurrentStep != nil {
		set["progress.current_step"] = *p.ProgressCurrentStep
	}
	update := bson.M{"$set": set}

	push := bson.M{}
	if p.PushStep != nil {
		push["progress.steps"] = *p.PushStep
	}
	if p.PushPhoto != nil {
		push["photos"] = *p.PushPhoto
	}
	if len(push) > 0 {
		update["$push"] = push
	}
	return update, nil
}
