package createapplicationrecord

import (
	"context"
	"database/sql"
	"testing"

	"scholarship-workers/internal/common/logger"

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

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTestHandler(t *testing.T, db *sql.DB) *Handler {
	return NewHandler(LoadConfig(), db, &testLogger{t: t})
}

func testInput() *Input {
	return &Input{
		StudentID:     "student-1",
		ScholarshipID: "sch-1",
		ApplicationData: map[string]interface{}{
			"personalInfo": map[string]interface{}{"name": "Maria Lopez"},
		},
		SuccessProbability: 72,
		PriorityTier:       "SHOULD_APPLY",
	}
}

func TestHandler_Execute_CreatesApplication(t *testing.T) {
	db, mock := setupMockDB(t)
	handler := newTestHandler(t, db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("student-1", "sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	output, err := handler.Execute(context.Background(), testInput())

	require.NoError(t, err)
	assert.NotEmpty(t, output.ApplicationID)
	assert.Equal(t, "submitted", output.ApplicationStatus)
	assert.NotEmpty(t, output.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DuplicateApplication(t *testing.T) {
	db, mock := setupMockDB(t)
	handler := newTestHandler(t, db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("student-1", "sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := handler.Execute(context.Background(), testInput())

	assert.ErrorIs(t, err, ErrDuplicateApplication)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	handler := newTestHandler(t, db)

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(sql.ErrConnDone)

	_, err := handler.Execute(context.Background(), testInput())

	assert.ErrorIs(t, err, ErrDatabaseInsertFailed)
}

func TestHandler_Execute_AuditFailureDoesNotFailJob(t *testing.T) {
	db, mock := setupMockDB(t)
	handler := newTestHandler(t, db)

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnError(sql.ErrConnDone)

	output, err := handler.Execute(context.Background(), testInput())

	require.NoError(t, err)
	assert.Equal(t, "submitted", output.ApplicationStatus)
}
