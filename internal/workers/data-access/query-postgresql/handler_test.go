package querypostgresql

import (
	"context"
	"database/sql"
	"testing"

	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/workers/data-access/query-postgresql/queries"

	"github.com/DATA-DOG/go-sqlmock"
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

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(LoadConfig(), db, &testLogger{t: t}), mock
}

func TestHandler_Execute_StudentProfile(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT s.id, s.name, s.email").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "grade_level", "profile", "created_at", "updated_at",
		}).AddRow(
			"student-1", "Maria Lopez", "maria@example.com", "senior",
			[]byte(`{"gpa": 3.7, "state": "CA"}`),
			"2025-01-01T00:00:00Z", "2025-02-01T00:00:00Z",
		))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeStudentProfile),
		StudentID: "student-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)

	data := output.Data.(map[string]interface{})
	assert.Equal(t, "Maria Lopez", data["name"])

	profile := data["profile"].(map[string]interface{})
	assert.Equal(t, 3.7, profile["gpa"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ScholarshipDetails(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, name, provider").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "provider", "description", "amount_min", "amount_max",
			"deadline", "criteria", "application_count", "view_count",
		}).AddRow(
			"sch-1", "STEM Leaders Award", "Acme Foundation", "For STEM students",
			1000, 5000, "2026-05-01", []byte(`{"academic": {"minGpa": 3.0}}`), 120, 900,
		).AddRow(
			"sch-2", "Open Grant", "Community Trust", "Open to all",
			500, 1000, "2026-06-01", nil, 40, 210,
		))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType:      string(QueryTypeScholarshipDetails),
		ScholarshipIDs: []string{"sch-1", "sch-2"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, output.RowCount)

	rows := output.Data.([]map[string]interface{})
	assert.Equal(t, "STEM Leaders Award", rows[0]["name"])
	assert.Nil(t, rows[1]["criteria"])
}

func TestHandler_Execute_ScholarshipDeadlines(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT a.id, s.id, s.name, s.deadline, a.status").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "id", "name", "deadline", "status",
		}).AddRow("app-1", "sch-1", "STEM Leaders Award", "2026-05-01", "submitted"))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeScholarshipDeadlines),
		StudentID: "student-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)
}

func TestHandler_Execute_ApplicationStats(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT status, COUNT").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "avg"}).
			AddRow("submitted", 3, 64.5).
			AddRow("awarded", 1, 91.0))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeApplicationStats),
		StudentID: "student-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 4, output.RowCount)

	data := output.Data.(map[string]interface{})
	assert.Equal(t, 4, data["total"])
}

func TestHandler_Execute_InvalidQueryType(t *testing.T) {
	handler, _ := setupHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		QueryType: "drop_all_tables",
	})
	assert.ErrorIs(t, err, ErrInvalidQueryType)
}

func TestHandler_Execute_MissingParam(t *testing.T) {
	handler, _ := setupHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeStudentProfile),
	})
	assert.ErrorIs(t, err, ErrQueryExecutionFailed)
}

func TestHandler_Execute_StudentNotFound(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT s.id, s.name, s.email").
		WithArgs("student-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeStudentProfile),
		StudentID: "student-missing",
	})
	assert.ErrorIs(t, err, queries.ErrStudentNotFound)
}

func TestHandler_Execute_ScholarshipNotFound(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT id, name, provider").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "provider", "description", "amount_min", "amount_max",
			"deadline", "criteria", "application_count", "view_count",
		}))

	_, err := handler.Execute(context.Background(), &Input{
		QueryType:      string(QueryTypeScholarshipDetails),
		ScholarshipIDs: []string{"sch-missing"},
	})
	assert.ErrorIs(t, err, queries.ErrScholarshipMissing)
}

func TestHandler_Execute_QueryError(t *testing.T) {
	handler, mock := setupHandler(t)

	mock.ExpectQuery("SELECT s.id, s.name, s.email").
		WillReturnError(sql.ErrConnDone)

	_, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeStudentProfile),
		StudentID: "student-1",
	})
	assert.ErrorIs(t, err, ErrQueryExecutionFailed)
}
