package lifecycle

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/WesleyEliel/citefix-backend/models"
	"github.com/WesleyEliel/citefix-backend/store"
)

type testEnv struct {
	reports       *ReportManager
	interventions *InterventionManager
	coordinator   *Coordinator
}

func newTestEnv() *testEnv {
	log := zap.NewNop()
	r := NewReportManager(store.NewMemoryReports(), log)
	iv := NewInterventionManager(store.NewMemoryInterventions(), log)
	return &testEnv{
		reports:       r,
		interventions: iv,
		coordinator:   NewCoordinator(r, iv, log),
	}
}

func (e *testEnv) report(t *testing.T) *models.Report {
	t.Helper()
	r, err := e.reports.Create(context.Background(), &models.Report{
		Title:       "Pothole on main street",
		Description: "Deep pothole near the bus stop",
		Category:    models.CategoryRoad,
	}, primitive.NewObjectID())
	require.NoError(t, err)
	return r
}

func TestFirstInterventionCascade(t *testing.T) {
	env := newTestEnv()
	r := env.report(t)
	tech := primitive.NewObjectID()

	_, err := env.coordinator.CreateIntervention(context.Background(), draftIntervention(r.ID, tech))
	require.NoError(t, err)

	got, err := env.reports.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportAssigned, got.Status)
	require.Len(t, got.StatusHistory, 1)
	require.Equal(t, models.ReportAssigned, got.StatusHistory[0].Status)
	require.Equal(t, tech, got.StatusHistory[0].UserID)
	require.Equal(t, "Initial intervention created", got.StatusHistory[0].Comment)

	// A second intervention produces no additional report transition.
	_, err = env.coordinator.CreateIntervention(context.Background(), draftIntervention(r.ID, primitive.NewObjectID()))
	require.NoError(t, err)

	got, err = env.reports.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 1)
}

func TestCreateInterventionUnknownReport(t *testing.T) {
	env := newTestEnv()
	_, err := env.coordinator.CreateIntervention(context.Background(), draftIntervention(primitive.NewObjectID(), primitive.NewObjectID()))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStatusMappingTotality(t *testing.T) {
	cases := []struct {
		intervention models.InterventionStatus
		report       models.ReportStatus
	}{
		{models.InterventionInProgress, models.ReportInProgress},
		{models.InterventionCompleted, models.ReportResolved},
		{models.InterventionScheduled, models.ReportAssigned},
		{models.InterventionAssigned, models.ReportAssigned},
		{models.InterventionCancelled, models.ReportAssigned},
		{models.InterventionSuccessed, models.ReportAssigned},
	}
	for _, tc := range cases {
		require.Equal(t, tc.report, ReportStatusFor(tc.intervention), "mapping for %s", tc.intervention)
	}
}

func TestUpdateInterventionStatusSyncsReport(t *testing.T) {
	env := newTestEnv()
	r := env.report(t)
	tech := primitive.NewObjectID()
	iv, err := env.coordinator.CreateIntervention(context.Background(), draftIntervention(r.ID, tech))
	require.NoError(t, err)

	for _, st := range []models.InterventionStatus{
		models.InterventionInProgress,
		models.InterventionCancelled,
		models.InterventionCompleted,
	} {
		updated, err := env.coordinator.UpdateInterventionStatus(context.Background(), iv.ID, st, r.ID, tech)
		require.NoError(t, err)
		require.Equal(t, st, updated.Status)

		got, err := env.reports.Get(context.Background(), r.ID)
		require.NoError(t, err)
		require.Equal(t, ReportStatusFor(st), got.Status)
		last := got.StatusHistory[len(got.StatusHistory)-1]
		require.Equal(t, fmt.Sprintf("Intervention status changed to %s", st), last.Comment)
		require.Equal(t, tech, last.UserID)
	}
}

func TestUpdateInterventionStatusUnknownIntervention(t *testing.T) {
	env := newTestEnv()
	r := env.report(t)
	_, err := env.coordinator.UpdateInterventionStatus(context.Background(), primitive.NewObjectID(), models.InterventionInProgress, r.ID, primitive.NewObjectID())
	require.ErrorIs(t, err, store.ErrNotFound)

	// The report must not have moved.
	got, err := env.reports.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportReported, got.Status)
	require.Empty(t, got.StatusHistory)
}

func TestCompletionAggregation(t *testing.T) {
	env := newTestEnv()
	r := env.report(t)
	tech := primitive.NewObjectID()

	var ivs []*models.Intervention
	for i := 0; i < 3; i++ {
		iv, err := env.coordinator.CreateIntervention(context.Background(), draftIntervention(r.ID, tech))
		require.NoError(t, err)
		ivs = append(ivs, iv)
	}

	// Completing 2 of 3 leaves the report unchanged.
	for _, iv := range ivs[:2] {
		_, err := env.coordinator.CompleteIntervention(context.Background(), iv.ID, r.ID, tech)
		require.NoError(t, err)
	}
	got, err := env.reports.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportAssigned, got.Status)
	require.Len(t, got.StatusHistory, 1) // only the first-intervention cascade

	// The third completion resolves the report.
	_, err = env.coordinator.CompleteIntervention(context.Background(), ivs[2].ID, r.ID, tech)
	require.NoError(t, err)
	got, err = env.reports.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportResolved, got.Status)
	last := got.StatusHistory[len(got.StatusHistory)-1]
	require.Equal(t, "All interventions completed", last.Comment)
}

func TestCompletionRequiresRosterMembership(t *testing.T) {
	env := newTestEnv()
	r := env.report(t)
	tech := primitive.NewObjectID()
	iv, err := env.coordinator.CreateIntervention(context.Background(), draftIntervention(r.ID, tech))
	require.NoError(t, err)

	outsider := primitive.NewObjectID()
	_, err = env.coordinator.CompleteIntervention(context.Background(), iv.ID, r.ID, outsider)
	require.ErrorIs(t, err, ErrNotAssigned)

	// Rejected before any mutation: intervention and report untouched.
	got, err := env.interventions.Get(context.Background(), iv.ID)
	require.NoError(t, err)
	require.Equal(t, models.InterventionScheduled, got.Status)
	gotReport, err := env.reports.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportAssigned, gotReport.Status)
}

func TestCompleteUnknownIntervention(t *testing.T) {
	env := newTestEnv()
	r := env.report(t)
	_, err := env.coordinator.CompleteIntervention(context.Background(), primitive.NewObjectID(), r.ID, primitive.NewObjectID())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentCompletersResolveExactlyOnce(t *testing.T) {
	env := newTestEnv()
	r := env.report(t)
	tech := primitive.NewObjectID()

	iv1, err := env.coordinator.CreateIntervention(context.Background(), draftIntervention(r.ID, tech))
	require.NoError(t, err)
	iv2, err := env.coordinator.CreateIntervention(context.Background(), draftIntervention(r.ID, tech))
	require.NoError(t, err)

	// Both interventions already completed at the store level simulates
	// the interleaving where each completer's recount sees the other's
	// write; the guarded transition must land exactly once.
	_, err = env.coordinator.CompleteIntervention(context.Background(), iv1.ID, r.ID, tech)
	require.NoError(t, err)
	_, err = env.coordinator.CompleteIntervention(context.Background(), iv2.ID, r.ID, tech)
	require.NoError(t, err)
	// iv2's run recounts 2/2 again but the report is already resolved.
	_, err = env.coordinator.CompleteIntervention(context.Background(), iv2.ID, r.ID, tech)
	require.NoError(t, err)

	got, err := env.reports.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportResolved, got.Status)
	resolved := 0
	for _, e := range got.StatusHistory {
		if e.Comment == "All interventions completed" {
			resolved++
		}
	}
	require.Equal(t, 1, resolved)
}

func TestStatusChangeHooks(t *testing.T) {
	env := newTestEnv()
	r := env.report(t)
	tech := primitive.NewObjectID()

	type change struct{ old, new models.ReportStatus }
	var seen []change
	env.coordinator.OnReportStatusChange(func(_ primitive.ObjectID, old, new models.ReportStatus) {
		seen = append(seen, change{old, new})
	})

	iv, err := env.coordinator.CreateIntervention(context.Background(), draftIntervention(r.ID, tech))
	require.NoError(t, err)
	_, err = env.coordinator.UpdateInterventionStatus(context.Background(), iv.ID, models.InterventionInProgress, r.ID, tech)
	require.NoError(t, err)
	_, err = env.coordinator.CompleteIntervention(context.Background(), iv.ID, r.ID, tech)
	require.NoError(t, err)

	require.Equal(t, []change{
		{models.ReportReported, models.ReportAssigned},
		{models.ReportAssigned, models.ReportInProgress},
		{models.ReportInProgress, models.ReportResolved},
	}, seen)
}

// Full walk of the lifecycle: citizen report, admin intervention, technician
// progress, completion cascade.
func TestLifecycleScenario(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	r, err := env.reports.Create(ctx, &models.Report{
		Title:       "Streetlight out",
		Description: "Dark corner at night",
		Category:    models.CategoryLighting,
	}, primitive.NewObjectID())
	require.NoError(t, err)
	require.Equal(t, models.ReportReported, r.Status)
	require.Empty(t, r.StatusHistory)

	t1 := primitive.NewObjectID()
	draft := draftIntervention(r.ID, t1)
	draft.Materials = []models.Material{{Name: "bulb", Quantity: 1, Unit: "piece", Cost: 50}}
	i1, err := env.coordinator.CreateIntervention(ctx, draft)
	require.NoError(t, err)
	require.Equal(t, float64(50), i1.Costs.Total)
	require.Equal(t, 0, i1.Progress.Percentage)

	r2, err := env.reports.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportAssigned, r2.Status)
	require.Len(t, r2.StatusHistory, 1)
	require.Equal(t, t1, r2.StatusHistory[0].UserID)
	require.Equal(t, "Initial intervention created", r2.StatusHistory[0].Comment)

	_, err = env.coordinator.UpdateInterventionStatus(ctx, i1.ID, models.InterventionInProgress, r.ID, t1)
	require.NoError(t, err)
	r3, err := env.reports.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportInProgress, r3.Status)

	done, err := env.coordinator.CompleteIntervention(ctx, i1.ID, r.ID, t1)
	require.NoError(t, err)
	require.Equal(t, models.InterventionCompleted, done.Status)

	r4, err := env.reports.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportResolved, r4.Status)
}
