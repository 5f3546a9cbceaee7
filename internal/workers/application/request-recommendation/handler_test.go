package requestrecommendation

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"scholarship-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
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

func createTestConfig() *Config {
	return &Config{
		FromEmail:     "noreply@scholarmatch.example.com",
		AWSRegion:     "us-east-1",
		UploadBaseURL: "https://portal.scholarmatch.example.com",
		Timeout:       30 * time.Second,
	}
}

func newMockHandler(t *testing.T, db *sql.DB, sesClient SESService) *Handler {
	return &Handler{
		config:    createTestConfig(),
		db:        db,
		logger:    &testLogger{t: t},
		sesClient: sesClient,
	}
}

func testInput() *Input {
	return &Input{
		ApplicationID:    "app-1",
		StudentID:        "student-1",
		StudentName:      "Maria Lopez",
		ScholarshipName:  "STEM Leaders Award",
		RecommenderName:  "Dr. Chen",
		RecommenderEmail: "chen@school.example.com",
		Message:          "Thank you for supporting my application!",
	}
}

func TestHandler_Execute_RequestsRecommendation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("app-1", "chen@school.example.com", StatusRequested).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO recommendations").
		WillReturnResult(sqlmock.NewResult(1, 1))

	var sentBody string
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			assert.Equal(t, "chen@school.example.com", params.Destination.ToAddresses[0])
			sentBody = *params.Message.Body.Text.Data
			return &ses.SendEmailOutput{}, nil
		},
	}

	handler := newMockHandler(t, db, mockSES)

	output, err := handler.Execute(context.Background(), testInput())

	require.NoError(t, err)
	assert.NotEmpty(t, output.RecommendationID)
	assert.Equal(t, StatusRequested, output.Status)
	assert.Contains(t, sentBody, "Maria Lopez")
	assert.Contains(t, sentBody, "https://portal.scholarmatch.example.com/recommendations/upload/")
	assert.Contains(t, sentBody, "Thank you for supporting my application!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DuplicatePendingRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	handler := newMockHandler(t, db, nil)

	_, err = handler.Execute(context.Background(), testInput())
	assert.ErrorIs(t, err, ErrDuplicateRecommendation)
}

func TestHandler_Execute_MissingFields(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := newMockHandler(t, db, nil)

	_, err = handler.Execute(context.Background(), &Input{StudentID: "student-1"})
	assert.ErrorIs(t, err, ErrInvalidRecommendationInput)
}

func TestHandler_Execute_InvalidEmail(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	handler := newMockHandler(t, db, nil)

	input := testInput()
	input.RecommenderEmail = "not-an-email"

	_, err = handler.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidRecommendationInput)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO recommendations").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	handler := newMockHandler(t, db, mockSES)

	_, err = handler.Execute(context.Background(), testInput())
	assert.ErrorIs(t, err, ErrRecommendationEmailFailed)
}

func TestHandler_Execute_UploadLinkUsesToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec("INSERT INTO recommendations").
		WillReturnResult(sqlmock.NewResult(1, 1))

	var linkedToken string
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			body := *params.Message.Body.Text.Data
			idx := strings.LastIndex(body, "/")
			linkedToken = strings.TrimSpace(body[idx+1:])
			return &ses.SendEmailOutput{}, nil
		},
	}

	handler := newMockHandler(t, db, mockSES)

	_, err = handler.Execute(context.Background(), testInput())
	require.NoError(t, err)
	assert.NotEmpty(t, linkedToken)
}
