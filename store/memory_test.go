package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/WesleyEliel/citefix-backend/models"
)

func seedReport(t *testing.T, s Reports, category models.ReportCategory) *models.Report {
	t.Helper()
	r, err := s.Create(context.Background(), &models.Report{
		Title:    "r",
		Category: category,
		Status:   models.ReportReported,
	})
	require.NoError(t, err)
	return r
}

func TestMemoryReportsUpdateWhere(t *testing.T) {
	s := NewMemoryReports()
	r := seedReport(t, s, models.CategoryRoad)

	resolved := models.ReportResolved
	_, err := s.UpdateWhere(context.Background(), r.ID, ReportCond{StatusNot: models.ReportResolved}, ReportPatch{Status: &resolved})
	require.NoError(t, err)

	_, err = s.UpdateWhere(context.Background(), r.ID, ReportCond{StatusNot: models.ReportResolved}, ReportPatch{Status: &resolved})
	require.ErrorIs(t, err, ErrConditionFailed)

	_, err = s.UpdateWhere(context.Background(), primitive.NewObjectID(), ReportCond{}, ReportPatch{Status: &resolved})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReportsListNewestFirstWithCursor(t *testing.T) {
	s := NewMemoryReports()
	var ids []primitive.ObjectID
	for i := 0; i < 5; i++ {
		ids = append(ids, seedReport(t, s, models.CategoryWaste).ID)
	}

	page, err := s.List(context.Background(), ReportFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, ids[4], page[0].ID)
	require.Equal(t, ids[3], page[1].ID)

	page, err = s.List(context.Background(), ReportFilter{Limit: 10, Cursor: page[1].ID})
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.Equal(t, ids[2], page[0].ID)
}

func TestMemoryReportsReturnsCopies(t *testing.T) {
	s := NewMemoryReports()
	r := seedReport(t, s, models.CategoryRoad)

	got, err := s.Get(context.Background(), r.ID)
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := s.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, "r", again.Title)
}

func TestMemoryInterventionsTechnicianMembership(t *testing.T) {
	s := NewMemoryInterventions()
	tech := primitive.NewObjectID()
	reportID := primitive.NewObjectID()

	_, err := s.Create(context.Background(), &models.Intervention{
		ReportID:      reportID,
		TechnicianIDs: []primitive.ObjectID{primitive.NewObjectID(), tech},
		Status:        models.InterventionScheduled,
	})
	require.NoError(t, err)

	byTech, err := s.List(context.Background(), InterventionFilter{TechnicianID: &tech})
	require.NoError(t, err)
	require.Len(t, byTech, 1)

	other := primitive.NewObjectID()
	byOther, err := s.List(context.Background(), InterventionFilter{TechnicianID: &other})
	require.NoError(t, err)
	require.Empty(t, byOther)

	n, err := s.Count(context.Background(), InterventionFilter{ReportID: &reportID})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
