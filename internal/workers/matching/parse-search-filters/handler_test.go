package parsesearchfilters

import (
	"context"
	"testing"

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

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), &testLogger{t: t})
}

func TestHandler_Execute_Defaults(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	filters := output.ParsedFilters
	assert.Empty(t, filters.FieldsOfStudy)
	assert.Empty(t, filters.States)
	assert.Equal(t, "", filters.Keywords)
	assert.Equal(t, "relevance", filters.SortBy)
	assert.Equal(t, 1, filters.Pagination.Page)
	assert.Equal(t, 20, filters.Pagination.Size)
	assert.Equal(t, 0, filters.AmountRange.Min)
	assert.Equal(t, maxAwardAmount, filters.AmountRange.Max)
	assert.Equal(t, 0, filters.DeadlineWithinDays)
}

func TestHandler_Execute_FullFilters(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		RawFilters: map[string]interface{}{
			"fieldsOfStudy":      []interface{}{"stem", "business"},
			"states":             "CA, NY, CA",
			"keywords":           "  first generation  ",
			"sortBy":             "deadline",
			"deadlineWithinDays": float64(60),
			"amountRange": map[string]interface{}{
				"min": float64(1000),
				"max": float64(10000),
			},
			"pagination": map[string]interface{}{
				"page": float64(2),
				"size": float64(50),
			},
		},
	})
	require.NoError(t, err)

	filters := output.ParsedFilters
	assert.Equal(t, []string{"stem", "business"}, filters.FieldsOfStudy)
	assert.Equal(t, []string{"CA", "NY"}, filters.States)
	assert.Equal(t, "first generation", filters.Keywords)
	assert.Equal(t, "deadline", filters.SortBy)
	assert.Equal(t, 60, filters.DeadlineWithinDays)
	assert.Equal(t, AmountRange{Min: 1000, Max: 10000}, filters.AmountRange)
	assert.Equal(t, Pagination{Page: 2, Size: 50}, filters.Pagination)
}

func TestHandler_Execute_InvalidFieldOfStudy(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		RawFilters: map[string]interface{}{
			"fieldsOfStudy": []interface{}{"astrology"},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidFilterFormat)
}

func TestHandler_Execute_InvalidSortBy(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		RawFilters: map[string]interface{}{
			"sortBy": "popularity",
		},
	})
	assert.ErrorIs(t, err, ErrInvalidFilterFormat)
}

func TestHandler_Execute_AmountMinGreaterThanMax(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		RawFilters: map[string]interface{}{
			"amountRange": map[string]interface{}{
				"min": float64(20000),
				"max": float64(5000),
			},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidFilterFormat)
}

func TestHandler_Execute_AmountAboveCapIgnored(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		RawFilters: map[string]interface{}{
			"amountRange": map[string]interface{}{
				"max": float64(9000000),
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, maxAwardAmount, output.ParsedFilters.AmountRange.Max)
}

func TestHandler_Execute_PageSizeCappedAt100(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		RawFilters: map[string]interface{}{
			"pagination": map[string]interface{}{
				"size": float64(500),
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, output.ParsedFilters.Pagination.Size)
}

func TestHandler_Execute_DeadlineOutOfRangeIgnored(t *testing.T) {
	handler := newTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		RawFilters: map[string]interface{}{
			"deadlineWithinDays": float64(400),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, output.ParsedFilters.DeadlineWithinDays)
}

func TestHandler_ParseInt(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name     string
		raw      interface{}
		expected int
		wantErr  bool
	}{
		{"float", float64(42), 42, false},
		{"int", 7, 7, false},
		{"monetary string", "$5,000.00", 5000, false},
		{"plain string", "2500", 2500, false},
		{"fractional float", 4.5, 0, true},
		{"negative", float64(-1), 0, true},
		{"garbage", "abc", 0, true},
		{"nil", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := handler.parseInt(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
