package filtereligibility

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() *Config {
	return &Config{
		CacheTTL: 10 * time.Minute,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func setupMockRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
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

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

func createTestProfile() *models.StudentProfile {
	return &models.StudentProfile{
		StudentID: "student-123",
		GPA:       fptr(3.7),
		State:     sptr("TX"),
	}
}

func TestHandler_Execute_SingleScholarship(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestLogger(t))

	input := &Input{
		StudentID:      "student-123",
		StudentProfile: createTestProfile(),
		Scholarship: &models.Scholarship{
			ID: "sch-1",
			Criteria: &models.EligibilityCriteria{
				Academic: &models.AcademicCriteria{MinGPA: fptr(3.5)},
			},
		},
	}

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, output.Eligible)
	assert.True(t, *output.Eligible)
	assert.Empty(t, output.FailedCriteria)
	assert.Equal(t, 1, output.EvaluatedCount)
	assert.Equal(t, 1, output.EligibleCount)
}

func TestHandler_Execute_SingleScholarship_Ineligible(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestLogger(t))

	input := &Input{
		StudentProfile: createTestProfile(),
		Scholarship: &models.Scholarship{
			ID: "sch-2",
			Criteria: &models.EligibilityCriteria{
				Academic:    &models.AcademicCriteria{MinGPA: fptr(3.9)},
				Demographic: &models.DemographicCriteria{States: []string{"CA"}},
			},
		},
		Exhaustive: true,
	}

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, output.Eligible)
	assert.False(t, *output.Eligible)
	assert.Len(t, output.FailedCriteria, 2)
	assert.Equal(t, 0, output.EligibleCount)
}

func TestHandler_Execute_Batch_PreservesOrder(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestLogger(t))

	input := &Input{
		StudentProfile: createTestProfile(),
		Scholarships: []models.Scholarship{
			{ID: "s1"},
			{ID: "s2", Criteria: &models.EligibilityCriteria{
				Academic: &models.AcademicCriteria{MinGPA: fptr(3.9)},
			}},
			{ID: "s3", Criteria: &models.EligibilityCriteria{
				Demographic: &models.DemographicCriteria{States: []string{"TX", "OK"}},
			}},
		},
	}

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Nil(t, output.Eligible)
	assert.Equal(t, 3, output.EvaluatedCount)
	assert.Equal(t, 2, output.EligibleCount)
	require.Len(t, output.EligibleScholarships, 2)
	assert.Equal(t, "s1", output.EligibleScholarships[0].ID)
	assert.Equal(t, "s3", output.EligibleScholarships[1].ID)
}

func TestHandler_Execute_NoScholarships(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{StudentID: "student-123"})

	assert.ErrorIs(t, err, ErrNoScholarships)
	assert.Nil(t, output)
}

func TestHandler_Execute_FetchProfileFromDB(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	stored, _ := json.Marshal(models.StudentProfile{GPA: fptr(3.8)})
	mock.ExpectQuery("SELECT profile FROM student_profiles").
		WithArgs("student-456").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).AddRow(stored))

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestLogger(t))

	input := &Input{
		StudentID: "student-456",
		Scholarship: &models.Scholarship{
			ID: "sch-3",
			Criteria: &models.EligibilityCriteria{
				Academic: &models.AcademicCriteria{MinGPA: fptr(3.5)},
			},
		},
	}

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, output.Eligible)
	assert.True(t, *output.Eligible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MissingProfileFailsCriteria(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT profile FROM student_profiles").
		WithArgs("ghost-student").
		WillReturnError(sql.ErrNoRows)

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestLogger(t))

	input := &Input{
		StudentID: "ghost-student",
		Scholarship: &models.Scholarship{
			ID: "sch-4",
			Criteria: &models.EligibilityCriteria{
				Academic: &models.AcademicCriteria{MinGPA: fptr(3.0)},
			},
		},
	}

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, output.Eligible)
	assert.False(t, *output.Eligible)
	require.Len(t, output.FailedCriteria, 1)
	assert.Nil(t, output.FailedCriteria[0].Actual)
}
