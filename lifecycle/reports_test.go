package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/WesleyEliel/citefix-backend/models"
	"github.com/WesleyEliel/citefix-backend/store"
)

func newReportManager() *ReportManager {
	return NewReportManager(store.NewMemoryReports(), zap.NewNop())
}

func newTestReport(t *testing.T, m *ReportManager) *models.Report {
	t.Helper()
	r, err := m.Create(context.Background(), &models.Report{
		Title:       "Broken streetlight",
		Description: "Lamp out on the corner",
		Category:    models.CategoryLighting,
	}, primitive.NewObjectID())
	require.NoError(t, err)
	return r
}

func TestCreateReportInitialState(t *testing.T) {
	m := newReportManager()
	r := newTestReport(t, m)

	require.Equal(t, models.ReportReported, r.Status)
	require.Empty(t, r.StatusHistory)
	require.Equal(t, models.PriorityMedium, r.Priority)
	require.False(t, r.CitizenID.IsZero())
}

func TestTransitionAppendsExactlyOneHistoryEntry(t *testing.T) {
	m := newReportManager()
	r := newTestReport(t, m)
	actor := primitive.NewObjectID()

	sequence := []models.ReportStatus{
		models.ReportValidated,
		models.ReportAssigned,
		models.ReportInProgress,
		models.ReportAssigned, // no legality table at this layer
		models.ReportResolved,
	}
	for i, st := range sequence {
		updated, err := m.Transition(context.Background(), r.ID, st, actor, "")
		require.NoError(t, err)
		require.Len(t, updated.StatusHistory, i+1)
		require.Equal(t, st, updated.Status)
		last := updated.StatusHistory[len(updated.StatusHistory)-1]
		require.Equal(t, st, last.Status)
		require.Equal(t, actor, last.UserID)
		require.False(t, last.Date.IsZero())
	}
}

func TestTransitionRecordsComment(t *testing.T) {
	m := newReportManager()
	r := newTestReport(t, m)
	actor := primitive.NewObjectID()

	updated, err := m.Transition(context.Background(), r.ID, models.ReportValidated, actor, "looks real")
	require.NoError(t, err)
	require.Equal(t, "looks real", updated.StatusHistory[0].Comment)
}

func TestTransitionUnknownReport(t *testing.T) {
	m := newReportManager()
	_, err := m.Transition(context.Background(), primitive.NewObjectID(), models.ReportValidated, primitive.NewObjectID(), "")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateEditsFieldsWithoutHistory(t *testing.T) {
	m := newReportManager()
	r := newTestReport(t, m)

	title := "Streetlight dark at night"
	tags := []string{"lighting", "night"}
	pr := models.PriorityHigh
	updated, err := m.Update(context.Background(), r.ID, store.ReportPatch{
		Title:    &title,
		Tags:     &tags,
		Priority: &pr,
	})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, tags, updated.Tags)
	require.Equal(t, models.PriorityHigh, updated.Priority)
	require.Empty(t, updated.StatusHistory)
	require.Equal(t, models.ReportReported, updated.Status)
}

func TestUpdateRejectsStatusPatch(t *testing.T) {
	m := newReportManager()
	r := newTestReport(t, m)

	st := models.ReportValidated
	_, err := m.Update(context.Background(), r.ID, store.ReportPatch{Status: &st})
	require.Error(t, err)

	got, err := m.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportReported, got.Status)
	require.Empty(t, got.StatusHistory)
}

func TestTransitionUnlessGuard(t *testing.T) {
	m := newReportManager()
	r := newTestReport(t, m)
	actor := primitive.NewObjectID()

	_, err := m.TransitionUnless(context.Background(), r.ID, models.ReportResolved, models.ReportResolved, actor, "All interventions completed")
	require.NoError(t, err)

	// Second identical attempt trips the guard and appends nothing.
	_, err = m.TransitionUnless(context.Background(), r.ID, models.ReportResolved, models.ReportResolved, actor, "All interventions completed")
	require.ErrorIs(t, err, store.ErrConditionFailed)

	got, err := m.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 1)
}

func TestIncrementEngagement(t *testing.T) {
	m := newReportManager()
	r := newTestReport(t, m)

	updated, err := m.IncrementEngagement(context.Background(), r.ID, EngageViews, 3)
	require.NoError(t, err)
	require.Equal(t, 3, updated.Engagement.Views)

	updated, err = m.IncrementEngagement(context.Background(), r.ID, EngageConfirmations, 0) // defaults to 1
	require.NoError(t, err)
	require.Equal(t, 1, updated.Engagement.Confirmations)
	require.Equal(t, 3, updated.Engagement.Views)
}

func TestAddMedia(t *testing.T) {
	m := newReportManager()
	r := newTestReport(t, m)

	updated, err := m.AddMedia(context.Background(), r.ID, models.MediaItem{Type: "image", URL: "https://cdn.example/1.jpg"})
	require.NoError(t, err)
	require.Len(t, updated.Media, 1)
	require.False(t, updated.Media[0].UploadedAt.IsZero())
}

func TestParseEngagementField(t *testing.T) {
	f, err := ParseEngagementField("Views")
	require.NoError(t, err)
	require.Equal(t, EngageViews, f)

	_, err = ParseEngagementField("likes")
	require.Error(t, err)
}
