package store

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/WesleyEliel/citefix-backend/models"
)

// In-memory implementations with the same patch semantics as the Mongo
// ones; tests run against these.

type memReports struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]*models.Report
}

func NewMemoryReports() Reports {
	return &memReports{docs: make(map[primitive.ObjectID]*models.Report)}
}

func copyReport(r *models.Report) *models.Report {
	out := *r
	out.Media = append([]models.MediaItem(nil), r.Media...)
	out.StatusHistory = append([]models.StatusHistoryEntry(nil), r.StatusHistory...)
	out.Tags = append([]string(nil), r.Tags...)
	return &out
}

func (s *memReports) Get(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyReport(r), nil
}

func (s *memReports) Create(_ context.Context, r *models.Report) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.docs[r.ID] = copyReport(r)
	return copyReport(r), nil
}

func (s *memReports) Update(ctx context.Context, id primitive.ObjectID, p ReportPatch) (*models.Report, error) {
	return s.UpdateWhere(ctx, id, ReportCond{}, p)
}

func (s *memReports) UpdateWhere(_ context.Context, id primitive.ObjectID, cond ReportCond, p ReportPatch) (*models.Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if cond.StatusNot != "" && r.Status == cond.StatusNot {
		return nil, ErrConditionFailed
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Tags != nil {
		r.Tags = append([]string(nil), *p.Tags...)
	}
	if p.PushHistory != nil {
		r.StatusHistory = append(r.StatusHistory, *p.PushHistory)
	}
	if p.PushMedia != nil {
		r.Media = append(r.Media, *p.PushMedia)
	}
	r.Engagement.Views += p.IncViews
	r.Engagement.Confirmations += p.IncConfirmations
	r.UpdatedAt = time.Now().UTC()
	return copyReport(r), nil
}

func (s *memReports) List(_ context.Context, f ReportFilter) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Report
	for _, r := range s.docs {
		if f.Category != nil && r.Category != *f.Category {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.Priority != nil && r.Priority != *f.Priority {
			continue
		}
		if f.Zone != "" && r.Location.Zone != f.Zone {
			continue
		}
		if !f.Cursor.IsZero() && bytes.Compare(r.ID[:], f.Cursor[:]) >= 0 {
			continue
		}
		out = append(out, *copyReport(r))
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memInterventions struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]*models.Intervention
}

func NewMemoryInterventions() Interventions {
	return &memInterventions{docs: make(map[primitive.ObjectID]*models.Intervention)}
}

func copyIntervention(iv *models.Intervention) *models.Intervention {
	out := *iv
	out.TechnicianIDs = append([]primitive.ObjectID(nil), iv.TechnicianIDs...)
	out.Materials = append([]models.Material(nil), iv.Materials...)
	out.Progress.Steps = append([]models.InterventionStep(nil), iv.Progress.Steps...)
	out.Photos = append([]models.InterventionPhoto(nil), iv.Photos...)
	return &out
}

func (s *memInterventions) Get(_ context.Context, id primitive.ObjectID) (*models.Intervention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	iv, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyIntervention(iv), nil
}

func (s *memInterventions) Create(_ context.Context, iv *models.Intervention) (*models.Intervention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = now
	}
	iv.UpdatedAt = now
	if iv.ID.IsZero() {
		iv.ID = primitive.NewObjectID()
	}
	s.docs[iv.ID] = copyIntervention(iv)
	return copyIntervention(iv), nil
}

func (s *memInterventions) Update(_ context.Context, id primitive.ObjectID, p InterventionPatch) (*models.Intervention, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Title != nil {
		iv.Title = *p.Title
	}
	if p.Description != nil {
		iv.Description = *p.Description
	}
	if p.Notes != nil {
		iv.Notes = *p.Notes
	}
	if p.Status != nil {
		iv.Status = *p.Status
	}
	if p.TechnicianIDs != nil {
		iv.TechnicianIDs = append([]primitive.ObjectID(nil), *p.TechnicianIDs...)
	}
	if p.IsPrimary != nil {
		iv.IsPrimary = *p.IsPrimary
	}
	if p.ProgressPercentage != nil {
		iv.Progress.Percentage = *p.ProgressPercentage
	}
	if p.ProgressCurrentStep != nil {
		iv.Progress.CurrentStep = *p.ProgressCurrentStep
	}
	if p.PushStep != nil {
		iv.Progress.Steps = append(iv.Progress.Steps, *p.PushStep)
	}
	if p.PushPhoto != nil {
		iv.Photos = append(iv.Photos, *p.PushPhoto)
	}
	iv.UpdatedAt = time.Now().UTC()
	return copyIntervention(iv), nil
}

func matchIntervention(iv *models.Intervention, f InterventionFilter) bool {
	if f.ReportID != nil && iv.ReportID != *f.ReportID {
		return false
	}
	if f.TechnicianID != nil && !iv.AssignedTo(*f.TechnicianID) {
		return false
	}
	if f.Status != nil && iv.Status != *f.Status {
		return false
	}
	return true
}

func (s *memInterventions) List(_ context.Context, f InterventionFilter) ([]models.Intervention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Intervention
	for _, iv := range s.docs {
		if matchIntervention(iv, f) {
			out = append(out, *copyIntervention(iv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (s *memInterventions) Count(_ context.Context, f InterventionFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, iv := range s.docs {
		if matchIntervention(iv, f) {
			n++
		}
	}
	return n, nil
}
