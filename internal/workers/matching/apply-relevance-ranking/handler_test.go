package applyrelevanceranking

import (
	"context"
	"testing"
	"time"

	"scholarship-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func fixedNowHandler(t *testing.T, maxItems int) *Handler {
	h := NewHandler(&Config{MaxItems: maxItems, Timeout: 30 * time.Second}, newTestLogger(t))
	h.now = func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return h
}

func TestHandler_Execute_NilInput(t *testing.T) {
	handler := fixedNowHandler(t, 20)

	_, err := handler.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilInput)
}

func TestHandler_Execute_ScoresPerfectFit(t *testing.T) {
	handler := fixedNowHandler(t, 20)

	output, err := handler.Execute(context.Background(), &Input{
		SearchResults: []SearchResult{
			{ID: "sch-1", Score: 8.0},
		},
		DetailsData: []ScholarshipDetail{
			{
				ID:               "sch-1",
				Name:             "STEM Leaders Award",
				MinGPA:           3.0,
				FieldsOfStudy:    []string{"Computer Science"},
				States:           []string{"CA"},
				AmountMax:        10000,
				ViewCount:        300,
				ApplicationCount: 200,
				Deadline:         "2025-03-05T12:00:00Z",
			},
		},
		StudentProfile: StudentProfile{
			GPA:           3.5,
			FieldsOfStudy: []string{"Computer Science"},
			State:         "CA",
			DesiredAmount: 5000,
		},
	})

	require.NoError(t, err)
	require.Len(t, output.RankedScholarships, 1)

	r := output.RankedScholarships[0]
	assert.Equal(t, "sch-1", r.ID)
	assert.Equal(t, 80.0, r.ESScore)
	assert.Equal(t, 100.0, r.MatchScore)
	assert.Equal(t, 50.0, r.PopularityScore)
	assert.Equal(t, 100.0, r.UrgencyScore)
	// 80*0.4 + 100*0.3 + 50*0.2 + 100*0.1
	assert.Equal(t, 82.0, r.FinalScore)
}

func TestHandler_Execute_EmptyProfileIsNeutral(t *testing.T) {
	handler := fixedNowHandler(t, 20)

	output, err := handler.Execute(context.Background(), &Input{
		SearchResults: []SearchResult{{ID: "sch-1", Score: 5.0}},
		DetailsData: []ScholarshipDetail{
			{ID: "sch-1", Name: "Open Grant"},
		},
	})

	require.NoError(t, err)
	require.Len(t, output.RankedScholarships, 1)
	assert.Equal(t, 50.0, output.RankedScholarships[0].MatchScore)
}

func TestHandler_Execute_DeduplicatesAndSkipsMissingDetails(t *testing.T) {
	handler := fixedNowHandler(t, 20)

	output, err := handler.Execute(context.Background(), &Input{
		SearchResults: []SearchResult{
			{ID: "sch-1", Score: 9.0},
			{ID: "sch-1", Score: 9.0},
			{ID: "no-details", Score: 8.0},
		},
		DetailsData: []ScholarshipDetail{
			{ID: "sch-1", Name: "Merit Award"},
		},
	})

	require.NoError(t, err)
	assert.Len(t, output.RankedScholarships, 1)
	assert.Equal(t, "sch-1", output.RankedScholarships[0].ID)
}

func TestHandler_Execute_SortsDescendingAndCapsResults(t *testing.T) {
	handler := fixedNowHandler(t, 2)

	output, err := handler.Execute(context.Background(), &Input{
		SearchResults: []SearchResult{
			{ID: "low", Score: 1.0},
			{ID: "high", Score: 10.0},
			{ID: "mid", Score: 5.0},
		},
		DetailsData: []ScholarshipDetail{
			{ID: "low", Name: "Low"},
			{ID: "high", Name: "High"},
			{ID: "mid", Name: "Mid"},
		},
	})

	require.NoError(t, err)
	require.Len(t, output.RankedScholarships, 2)
	assert.Equal(t, "high", output.RankedScholarships[0].ID)
	assert.Equal(t, "mid", output.RankedScholarships[1].ID)
}

func TestHandler_Execute_ESScoreClampedAt100(t *testing.T) {
	handler := fixedNowHandler(t, 20)

	output, err := handler.Execute(context.Background(), &Input{
		SearchResults: []SearchResult{{ID: "sch-1", Score: 42.5}},
		DetailsData:   []ScholarshipDetail{{ID: "sch-1", Name: "Big Hit"}},
	})

	require.NoError(t, err)
	require.Len(t, output.RankedScholarships, 1)
	assert.Equal(t, 100.0, output.RankedScholarships[0].ESScore)
}

func TestHandler_CalculateUrgencyScore(t *testing.T) {
	handler := fixedNowHandler(t, 20)

	tests := []struct {
		name     string
		deadline string
		expected float64
	}{
		{"no deadline", "", 50},
		{"invalid deadline", "soon", 50},
		{"passed deadline", "2025-02-01", 0},
		{"within a week", "2025-03-06T12:00:00Z", 100},
		{"within a month", "2025-03-20", 80},
		{"within a quarter", "2025-05-01", 60},
		{"within half a year", "2025-08-01", 40},
		{"far out", "2026-01-01", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, handler.calculateUrgencyScore(tt.deadline))
		})
	}
}

func TestHandler_CalculateMatchScore_GPANearMiss(t *testing.T) {
	handler := fixedNowHandler(t, 20)

	detail := &ScholarshipDetail{ID: "sch-1", MinGPA: 3.5}
	profile := &StudentProfile{GPA: 3.4}

	// Within 0.2 of the minimum gets half credit on the GPA factor.
	assert.Equal(t, 50*0.3, handler.calculateMatchScore(detail, profile))
}
