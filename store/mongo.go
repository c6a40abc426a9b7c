package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/WesleyEliel/citefix-backend/models"
)

const defaultListLimit = 100

type mongoReports struct {
	col *mongo.Collection
}

// NewMongoReports wraps the reports collection.
func NewMongoReports(col *mongo.Collection) Reports {
	return &mongoReports{col: col}
}

func (s *mongoReports) Get(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var r models.Report
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

func (s *mongoReports) Create(ctx context.Context, r *models.Report) (*models.Report, error) {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return r, nil
}

func (s *mongoReports) Update(ctx context.Context, id primitive.ObjectID, p ReportPatch) (*models.Report, error) {
	return s.applyUpdate(ctx, bson.M{"_id": id}, id, p)
}

func (s *mongoReports) UpdateWhere(ctx context.Context, id primitive.ObjectID, cond ReportCond, p ReportPatch) (*models.Report, error) {
	filter := bson.M{"_id": id}
	if cond.StatusNot != "" {
		filter["status"] = bson.M{"$ne": cond.StatusNot}
	}
	return s.applyUpdate(ctx, filter, id, p)
}

func (s *mongoReports) applyUpdate(ctx context.Context, filter bson.M, id primitive.ObjectID, p ReportPatch) (*models.Report, error) {
	update, err := p.UpdateDoc(time.Now().UTC())
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Report
	err = s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish absent document from failed guard.
		if n, cntErr := s.col.CountDocuments(ctx, bson.M{"_id": id}); cntErr == nil && n > 0 {
			return nil, ErrConditionFailed
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	return &r, nil
}

func (s *mongoReports) List(ctx context.Context, f ReportFilter) ([]models.Report, error) {
	filter := bson.M{}
	if f.Category != nil {
		filter["category"] = *f.Category
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.Priority != nil {
		filter["priority"] = *f.Priority
	}
	if f.Zone != "" {
		filter["location.zone"] = f.Zone
	}
	if !f.Cursor.IsZero() {
		filter["_id"] = bson.M{"$lt": f.Cursor}
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(limit)
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

type mongoInterventions struct {
	col *mongo.Collection
}

// NewMongoInterventions wraps the interventions collection.
func NewMongoInterventions(col *mongo.Collection) Interventions {
	return &mongoInterventions{col: col}
}

func (s *mongoInterventions) Get(ctx context.Context, id primitive.ObjectID) (*models.Intervention, error) {
	var iv models.Intervention
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&iv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get intervention: %w", err)
	}
	return &iv, nil
}

func (s *mongoInterventions) Create(ctx context.Context, iv *models.Intervention) (*models.Intervention, error) {
	now := time.Now().UTC()
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = now
	}
	iv.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, iv)
	if err != nil {
		return nil, fmt.Errorf("insert intervention: %w", err)
	}
	iv.ID = res.InsertedID.(primitive.ObjectID)
	return iv, nil
}

func (s *mongoInterventions) Update(ctx context.Context, id primitive.ObjectID, p InterventionPatch) (*models.Intervention, error) {
	update, err := p.UpdateDoc(time.Now().UTC())
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var iv models.Intervention
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&iv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update intervention: %w", err)
	}
	return &iv, nil
}

func interventionFilterDoc(f InterventionFilter) bson.M {
	filter := bson.M{}
	if f.ReportID != nil {
		filter["report_id"] = *f.ReportID
	}
	if f.TechnicianID != nil {
		// Equality on an array field matches membership.
		filter["technician_ids"] = *f.TechnicianID
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	return filter
}

func (s *mongoInterventions) List(ctx context.Context, f InterventionFilter) ([]models.Intervention, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, interventionFilterDoc(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Intervention
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	return out, nil
}

func (s *mongoInterventions) Count(ctx context.Context, f InterventionFilter) (int64, error) {
	n, err := s.col.CountDocuments(ctx, interventionFilterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("count interventions: %w", err)
	}
	return n, nil
}
