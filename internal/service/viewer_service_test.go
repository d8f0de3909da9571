package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/checkindesk/internal/events"
	"github.com/parisxmas/checkindesk/internal/models"
)

func seed(t *testing.T, f *fixture, subs ...*models.Submission) {
	t.Helper()
	require.NoError(t, f.repo.Append(context.Background(), subs...))
}

func names(subs []models.Submission) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.Name
	}
	return out
}

func TestListLatestFirst(t *testing.T) {
	f := newFixture(t, nil)
	seed(t, f,
		&models.Submission{ID: "1", Name: "Asha", SubmittedAt: "2026-10-16T08:00:00.000Z"},
		&models.Submission{ID: "2", Name: "Bala", SubmittedAt: "2026-10-17T08:00:00.000Z"},
		&models.Submission{ID: "3", Name: "Chitra", SubmittedAt: "2026-10-18T08:00:00.000Z"},
	)
	ctx := context.Background()

	assert.Equal(t, []string{"Chitra", "Bala", "Asha"}, names(f.viewer.List(ctx, "")))
	assert.Equal(t, []string{"Chitra", "Bala", "Asha"}, names(f.viewer.List(ctx, "   ")))
}

func TestFilterByNameOrDate(t *testing.T) {
	subs := []models.Submission{
		{Name: "Asha Rao", SubmittedAt: "2026-10-16T08:00:00.000Z"},
		{Name: "Bala", SubmittedAt: "2026-10-17T08:00:00.000Z"},
		{Name: "Rahul", SubmittedAt: "2026-10-17T09:00:00.000Z"},
		{Name: "NoDate"},
	}

	assert.Equal(t, []string{"Rahul", "Asha Rao"}, names(Filter(subs, "RA")))
	assert.Equal(t, []string{"Rahul", "Bala"}, names(Filter(subs, "2026-10-17")))
	assert.Equal(t, []string{"Rahul", "Bala"}, names(Filter(subs, " 10-17 ")))
	// the time part is not searched
	assert.Empty(t, Filter(subs, "09:00"))
	assert.Empty(t, Filter(nil, "x"))
}

func TestDeleteByID(t *testing.T) {
	f := newFixture(t, nil)
	seed(t, f,
		&models.Submission{ID: "1", Name: "Asha"},
		&models.Submission{ID: "2", Name: "Bala"},
		&models.Submission{ID: "3", Name: "Chitra"},
	)
	ctx := context.Background()

	require.NoError(t, f.viewer.Delete(ctx, "2"))
	assert.Equal(t, []string{"Chitra", "Asha"}, names(f.viewer.List(ctx, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.Deleted))

	assert.ErrorIs(t, f.viewer.Delete(ctx, "2"), ErrNotFound)
	assert.Len(t, f.repo.All(ctx), 2)
}

func TestClearAll(t *testing.T) {
	f := newFixture(t, nil)
	seed(t, f, &models.Submission{ID: "1"}, &models.Submission{ID: "2"})
	ctx := context.Background()

	require.NoError(t, f.viewer.ClearAll(ctx))
	assert.Empty(t, f.viewer.List(ctx, ""))

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.Cleared, evs[0].Type)
	assert.Equal(t, 2, evs[0].Count)
}

func TestExportFilenameAndContent(t *testing.T) {
	f := newFixture(t, nil)
	seed(t, f, &models.Submission{ID: "1", Name: "Asha"}, &models.Submission{ID: "2", Name: "Bala"})

	assert.Equal(t, "submissions-"+testNow.UTC().Format("2006-01-02")+".json", f.viewer.ExportFilename("json"))

	var buf bytes.Buffer
	require.NoError(t, f.viewer.Export(context.Background(), &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {"))

	var back []models.Submission
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, []string{"Asha", "Bala"}, names(back))
}

func TestImportAppendsAndAssignsIDs(t *testing.T) {
	f := newFixture(t, nil)
	seed(t, f, &models.Submission{ID: "keep", Name: "Existing"})
	ctx := context.Background()

	n, err := f.viewer.Import(ctx, strings.NewReader(`[
		{"id": "x1", "name": "Imported One", "adults": 3},
		{"name": "No Id", "vip": true},
		{"id": "", "name": "Empty Id"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all := f.repo.All(ctx)
	require.Len(t, all, 4)
	assert.Equal(t, "keep", all[0].ID)
	assert.Equal(t, "x1", all[1].ID)
	assert.Equal(t, "3", all[1].Adults)
	assert.NotEmpty(t, all[2].ID)
	assert.NotEmpty(t, all[3].ID)
	assert.NotEqual(t, all[2].ID, all[3].ID)
	assert.JSONEq(t, `true`, string(all[2].Extra["vip"]))

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.Imported, evs[0].Type)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.m.Imported))
}

func TestImportDoesNotDeduplicate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	file := `[{"id":"dup","name":"Asha"}]`

	_, err := f.viewer.Import(ctx, strings.NewReader(file))
	require.NoError(t, err)
	_, err = f.viewer.Import(ctx, strings.NewReader(file))
	require.NoError(t, err)
	assert.Len(t, f.repo.All(ctx), 2)
}

func TestImportRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"object", `{"id":"1"}`, ErrNotArray.Error()},
		{"string", `"hello"`, ErrNotArray.Error()},
		{"broken json", `[{"id":`, "unexpected end of JSON input"},
		{"non-object item", `[{"id":"1"}, 42]`, "item 1: expected an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			seed(t, f, &models.Submission{ID: "keep"})

			n, err := f.viewer.Import(context.Background(), strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Zero(t, n)
			assert.ErrorIs(t, err, ErrInvalidImport)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Len(t, f.repo.All(context.Background()), 1)
		})
	}
}

func TestExportImportRoundTripIsAdditive(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.form.Submit(ctx, validValues())
	require.NoError(t, err)
	seed(t, f, &models.Submission{ID: "legacy", Name: "Legacy", Extra: map[string]json.RawMessage{"room": json.RawMessage(`"204"`)}})

	before := f.repo.All(ctx)

	var first bytes.Buffer
	require.NoError(t, f.viewer.Export(ctx, &first))
	_, err = f.viewer.Import(ctx, bytes.NewReader(first.Bytes()))
	require.NoError(t, err)

	var second bytes.Buffer
	require.NoError(t, f.viewer.Export(ctx, &second))
	var after []models.Submission
	require.NoError(t, json.Unmarshal(second.Bytes(), &after))

	require.Len(t, after, 2*len(before))
	for _, s := range before {
		assert.Contains(t, after, s)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	assert.Equal(t, Stats{}, f.viewer.Stats(ctx))

	seed(t, f,
		&models.Submission{ID: "1", Adults: "2", SubmittedAt: "2020-01-01T08:00:00.000Z"},
		&models.Submission{ID: "2", Adults: "many", SubmittedAt: Timestamp(testNow)},
		&models.Submission{ID: "3", Adults: "3", SubmittedAt: Timestamp(testNow)},
	)

	st := f.viewer.Stats(ctx)
	assert.Equal(t, 3, st.SubmissionCount)
	assert.Equal(t, 2, st.TodayCount)
	assert.Equal(t, 5, st.GuestCount)
	assert.Equal(t, Timestamp(testNow), st.LatestAt)
}

func TestStatsIgnoresNonFiniteAndHugeAdults(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	values := validValues()
	values["adults"] = "inf"
	_, err := f.form.Submit(ctx, values)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// imports skip form rules, so odd values can still reach storage
	seed(t, f,
		&models.Submission{ID: "1", Adults: "2"},
		&models.Submission{ID: "2", Adults: "+Inf"},
		&models.Submission{ID: "3", Adults: "1e300"},
		&models.Submission{ID: "4", Adults: "1_0"},
		&models.Submission{ID: "5", Adults: "Infinity"},
	)

	st := f.viewer.Stats(ctx)
	assert.Equal(t, 5, st.SubmissionCount)
	assert.Equal(t, 2, st.GuestCount)
}
