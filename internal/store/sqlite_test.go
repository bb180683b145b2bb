package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/homematch/internal/model"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedTranscript(t *testing.T, st *SQLiteStore) *model.Transcript {
	t.Helper()
	transcript, err := st.CreateTranscript(context.Background(), "buyer call notes", model.UploadMethodUpload)
	require.NoError(t, err)
	return transcript
}

func seedRequirement(t *testing.T, st *SQLiteStore, transcriptID string) *model.Requirement {
	t.Helper()
	req, err := st.SaveRequirement(context.Background(), &model.Requirement{
		TranscriptID: transcriptID,
		ClientName:   "Sarah Chen",
		BudgetMax:    500000,
		Locations:    []string{"Springfield, IL"},
		MustHaves:    []string{"garage"},
		NiceToHaves:  []string{"pool"},
		PropertyType: "house",
		MinBeds:      3,
	})
	require.NoError(t, err)
	return req
}

func seedRun(t *testing.T, st *SQLiteStore, transcriptID string) *model.Run {
	t.Helper()
	run, err := st.CreateRun(context.Background(), transcriptID)
	require.NoError(t, err)
	return run
}

func TestSQLiteTranscriptLifecycle(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	transcript := seedTranscript(t, st)
	assert.Equal(t, model.TranscriptStatusUploaded, transcript.Status)

	got, err := st.GetTranscript(ctx, transcript.ID)
	require.NoError(t, err)
	assert.Equal(t, "buyer call notes", got.RawText)

	require.NoError(t, st.SetTranscriptStatus(ctx, transcript.ID, model.TranscriptStatusExtracted))
	got, err = st.GetTranscript(ctx, transcript.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TranscriptStatusExtracted, got.Status)

	_, err = st.GetTranscript(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.SetTranscriptStatus(ctx, "missing", model.TranscriptStatusFailed), ErrNotFound)
}

func TestSQLiteRequirementUpsert(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	transcript := seedTranscript(t, st)
	first := seedRequirement(t, st, transcript.ID)

	// A re-extraction saves again for the same transcript and must keep the
	// original row instead of inserting a second one.
	second, err := st.SaveRequirement(ctx, &model.Requirement{
		TranscriptID: transcript.ID,
		ClientName:   "Sarah Chen",
		BudgetMax:    550000,
		Locations:    []string{"Springfield, IL", "Shelbyville, IL"},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := st.GetRequirementByTranscript(ctx, transcript.ID)
	require.NoError(t, err)
	assert.Equal(t, 550000.0, got.BudgetMax)
	assert.Equal(t, []string{"Springfield, IL", "Shelbyville, IL"}, got.Locations)
	assert.False(t, got.IsEdited)
}

func TestSQLiteUpdateRequirementMarksEdited(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	transcript := seedTranscript(t, st)
	req := seedRequirement(t, st, transcript.ID)

	budget := 475000.0
	beds := 4
	updated, err := st.UpdateRequirement(ctx, req.ID, model.RequirementUpdate{
		BudgetMax: &budget,
		MinBeds:   &beds,
	})
	require.NoError(t, err)
	assert.Equal(t, 475000.0, updated.BudgetMax)
	assert.Equal(t, 4, updated.MinBeds)
	assert.True(t, updated.IsEdited)

	got, err := st.GetRequirement(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 475000.0, got.BudgetMax)
	assert.Equal(t, "Sarah Chen", got.ClientName)
	assert.True(t, got.IsEdited)

	_, err = st.UpdateRequirement(ctx, "missing", model.RequirementUpdate{BudgetMax: &budget})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRunLifecycle(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	transcript := seedTranscript(t, st)
	run := seedRun(t, st, transcript.ID)
	assert.Equal(t, model.StageIngestion, run.CurrentStage)
	assert.Equal(t, model.RunStatusPending, run.Status)

	require.NoError(t, st.SetRunStatus(ctx, run.ID, model.RunStatusInProgress))
	require.NoError(t, st.CompleteStage(ctx, run.ID, model.StageIngestion))
	require.NoError(t, st.SetRunStage(ctx, run.ID, model.StageExtraction))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageExtraction, got.CurrentStage)
	assert.Equal(t, model.RunStatusInProgress, got.Status)
	assert.NotNil(t, got.IngestionCompletedAt)
	assert.Nil(t, got.ExtractionCompletedAt)

	require.NoError(t, st.FailRun(ctx, run.ID, "llm timeout"))
	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "llm timeout", got.ErrorMessage)

	_, err = st.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListRunsFiltersByStatus(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	transcript := seedTranscript(t, st)
	failed := seedRun(t, st, transcript.ID)
	seedRun(t, st, transcript.ID)
	require.NoError(t, st.FailRun(ctx, failed.ID, "boom"))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failedOnly, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failedOnly, 1)
	assert.Equal(t, failed.ID, failedOnly[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteListingsRoundTrip(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	transcript := seedTranscript(t, st)
	req := seedRequirement(t, st, transcript.ID)
	run := seedRun(t, st, transcript.ID)

	price := 450000.0
	beds := 3
	baths := 2.5
	sqft := 1800
	saved, err := st.CreateListings(ctx, []model.Listing{
		{
			ExternalID:    "z-1",
			RunID:         run.ID,
			RequirementID: req.ID,
			Source:        "zillow",
			Address:       "123 Oak Street, Springfield, IL",
			Price:         &price,
			Bedrooms:      &beds,
			Bathrooms:     &baths,
			Sqft:          &sqft,
			PropertyType:  "house",
			RawJSON:       `{"zpid":"z-1"}`,
		},
		{
			RunID:         run.ID,
			RequirementID: req.ID,
			Source:        "realtor",
			Address:       "456 Maple Avenue, Springfield, IL",
		},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	listings, err := st.ListListingsByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	got, err := st.GetListing(ctx, saved[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "123 Oak Street, Springfield, IL", got.Address)
	require.NotNil(t, got.Price)
	assert.Equal(t, 450000.0, *got.Price)
	require.NotNil(t, got.Bathrooms)
	assert.Equal(t, 2.5, *got.Bathrooms)
	assert.Equal(t, `{"zpid":"z-1"}`, got.RawJSON)

	sparse, err := st.GetListing(ctx, saved[1].ID)
	require.NoError(t, err)
	assert.Nil(t, sparse.Price)
	assert.Nil(t, sparse.Bedrooms)
	assert.Empty(t, sparse.RawJSON)

	_, err = st.GetListing(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRankedResultsLifecycle(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	transcript := seedTranscript(t, st)
	req := seedRequirement(t, st, transcript.ID)
	run := seedRun(t, st, transcript.ID)
	listings, err := st.CreateListings(ctx, []model.Listing{
		{RunID: run.ID, RequirementID: req.ID, Source: "zillow", Address: "a"},
		{RunID: run.ID, RequirementID: req.ID, Source: "zillow", Address: "b"},
	})
	require.NoError(t, err)

	breakdown := model.ScoreBreakdown{
		MustHaveChecks: map[string]model.CheckResult{
			"garage": {Pass: true, Reason: "two car garage"},
		},
		MustHaveRate: 1,
		Weights:      model.ScoreWeights{MustHave: 0.6, NiceToHave: 0.4},
	}
	results, err := st.CreateRankedResults(ctx, []model.RankedResult{
		{RunID: run.ID, ListingID: listings[1].ID, RequirementID: req.ID, OverallScore: 0.61, MustHavePass: true, RankPosition: 2, Breakdown: breakdown},
		{RunID: run.ID, ListingID: listings[0].ID, RequirementID: req.ID, OverallScore: 0.87, MustHavePass: true, RankPosition: 1, Breakdown: breakdown},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	ranked, err := st.ListRankedResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, 1, ranked[0].RankPosition)
	assert.Equal(t, 0.87, ranked[0].OverallScore)
	assert.Nil(t, ranked[0].Approved)
	assert.Equal(t, "two car garage", ranked[0].Breakdown.MustHaveChecks["garage"].Reason)

	// Approval is exclusive: everything outside the approved set is rejected.
	require.NoError(t, st.SetApprovals(ctx, run.ID, []string{ranked[0].ID}))
	ranked, err = st.ListRankedResults(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, ranked[0].Approved)
	assert.True(t, *ranked[0].Approved)
	require.NotNil(t, ranked[1].Approved)
	assert.False(t, *ranked[1].Approved)

	err = st.SetApprovals(ctx, run.ID, []string{ranked[0].ID, "foreign"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.RejectResult(ctx, run.ID, ranked[0].ID))
	got, err := st.GetRankedResult(ctx, run.ID, ranked[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got.Approved)
	assert.False(t, *got.Approved)

	require.NoError(t, st.MarkSent(ctx, run.ID, []string{ranked[0].ID}))
	got, err = st.GetRankedResult(ctx, run.ID, ranked[0].ID)
	require.NoError(t, err)
	assert.True(t, got.Sent)

	_, err = st.GetRankedResult(ctx, "other-run", ranked[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
