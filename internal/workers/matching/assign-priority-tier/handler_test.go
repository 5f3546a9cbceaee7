package assignprioritytier

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"scholarship-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *Config {
	return &Config{
		CacheTTL: 30 * time.Minute,
	}
}

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

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

func fixedNowHandler(t *testing.T, db *sql.DB, rdb *redis.Client) *Handler {
	h := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))
	h.now = func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return h
}

func TestHandler_DetermineTier(t *testing.T) {
	db, _ := setupMockDB(t)
	handler := fixedNowHandler(t, db, setupRedis(t))

	tests := []struct {
		name         string
		probability  int
		days         int
		expectedTier string
	}{
		{"high probability", 80, 60, TierMustApply},
		{"exactly 75", 75, 60, TierMustApply},
		{"good probability distant deadline", 60, 60, TierShouldApply},
		{"good probability urgent deadline", 60, 5, TierMustApply},
		{"moderate probability", 40, 60, TierConsider},
		{"low probability", 20, 60, TierSkip},
		{"deadline passed", 90, -1, TierSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, reason := handler.determineTier(tt.probability, tt.days)
			assert.Equal(t, tt.expectedTier, tier)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestHandler_Execute_InlineDeadline(t *testing.T) {
	db, _ := setupMockDB(t)
	handler := fixedNowHandler(t, db, setupRedis(t))

	output, err := handler.Execute(context.Background(), &Input{
		StudentID:          "student-1",
		ScholarshipID:      "sch-1",
		SuccessProbability: 62,
		Deadline:           "2025-03-05T00:00:00Z",
	})

	require.NoError(t, err)
	assert.Equal(t, TierMustApply, output.PriorityTier)
	assert.Equal(t, 3, output.DaysToDeadline)
}

func TestHandler_Execute_DeadlineFromDatabase(t *testing.T) {
	db, mock := setupMockDB(t)
	handler := fixedNowHandler(t, db, setupRedis(t))

	mock.ExpectQuery("SELECT deadline").
		WithArgs("sch-2").
		WillReturnRows(sqlmock.NewRows([]string{"deadline"}).AddRow("2025-06-01"))

	output, err := handler.Execute(context.Background(), &Input{
		ScholarshipID:      "sch-2",
		SuccessProbability: 82,
	})

	require.NoError(t, err)
	assert.Equal(t, TierMustApply, output.PriorityTier)
	assert.Equal(t, 91, output.DaysToDeadline)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DeadlineFromCache(t *testing.T) {
	db, _ := setupMockDB(t)
	rdb := setupRedis(t)
	handler := fixedNowHandler(t, db, rdb)

	rdb.Set(context.Background(), "scholarship:deadline:sch-3", "2025-02-01", time.Minute)

	output, err := handler.Execute(context.Background(), &Input{
		ScholarshipID:      "sch-3",
		SuccessProbability: 95,
	})

	require.NoError(t, err)
	assert.Equal(t, TierSkip, output.PriorityTier)
	assert.Equal(t, -1, output.DaysToDeadline)
}

func TestHandler_Execute_UnknownScholarshipTreatedAsOpen(t *testing.T) {
	db, mock := setupMockDB(t)
	handler := fixedNowHandler(t, db, setupRedis(t))

	mock.ExpectQuery("SELECT deadline").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	output, err := handler.Execute(context.Background(), &Input{
		ScholarshipID:      "missing",
		SuccessProbability: 55,
	})

	require.NoError(t, err)
	assert.Equal(t, TierShouldApply, output.PriorityTier)
	assert.Equal(t, openDeadlineDays, output.DaysToDeadline)
}
