package sendnotification

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"scholarship-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func createTestConfig() *Config {
	return &Config{
		EmailEnabled:     true,
		SMSEnabled:       true,
		FromEmail:        "noreply@scholarmatch.example.com",
		AWSRegion:        "us-east-1",
		TemplateRegistry: "",
		Timeout:          30 * time.Second,
	}
}

func createTestInput(notificationType string) *Input {
	return &Input{
		RecipientID:      "student-001",
		RecipientType:    RecipientTypeStudent,
		NotificationType: notificationType,
		ApplicationID:    "app-001",
		ScholarshipID:    "sch-001",
		Priority:         "high",
		Metadata: map[string]interface{}{
			"scholarshipName": "STEM Leaders Award",
			"deadline":        "2026-05-01",
		},
	}
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

func loadTestTemplates() map[string]map[string]interface{} {
	templates, _ := loadTemplates("")
	return templates
}

func newMockHandler(t *testing.T, config *Config, db *sql.DB, sesClient SESService, snsClient SNSService) *Handler {
	return &Handler{
		config:      config,
		db:          db,
		logger:      newTestLogger(t),
		sesClient:   sesClient,
		snsClient:   snsClient,
		templateMap: loadTestTemplates(),
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		emailEnabled   bool
		smsEnabled     bool
		priority       string
		expectedStatus string
	}{
		{
			name:           "email and SMS for high priority",
			input:          createTestInput(TypeDeadlineReminder),
			emailEnabled:   true,
			smsEnabled:     true,
			priority:       "high",
			expectedStatus: StatusSent,
		},
		{
			name:           "email only",
			input:          createTestInput(TypeApplicationSubmitted),
			emailEnabled:   true,
			smsEnabled:     false,
			priority:       "medium",
			expectedStatus: StatusSent,
		},
		{
			name:           "SMS only for high priority",
			input:          createTestInput(TypeDeadlineReminder),
			emailEnabled:   false,
			smsEnabled:     true,
			priority:       "high",
			expectedStatus: StatusSent,
		},
		{
			name:           "no SMS for medium priority",
			input:          createTestInput(TypeApplicationSubmitted),
			emailEnabled:   false,
			smsEnabled:     true,
			priority:       "medium",
			expectedStatus: StatusDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(`SELECT email, phone FROM students WHERE id = \$1`).
				WithArgs("student-001").
				WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).
					AddRow("student@example.com", "+14155551234"))

			mockSES := &MockSESService{
				SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
					assert.Equal(t, "student@example.com", params.Destination.ToAddresses[0])
					assert.Equal(t, "noreply@scholarmatch.example.com", *params.Source)
					return &ses.SendEmailOutput{}, nil
				},
			}

			mockSNS := &MockSNSService{
				PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
					assert.Equal(t, "+14155551234", *params.PhoneNumber)
					return &sns.PublishOutput{}, nil
				},
			}

			config := createTestConfig()
			config.EmailEnabled = tt.emailEnabled
			config.SMSEnabled = tt.smsEnabled

			handler := newMockHandler(t, config, db, mockSES, mockSNS)

			tt.input.Priority = tt.priority
			output, err := handler.Execute(context.Background(), tt.input)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, output.Status)
			assert.NotEmpty(t, output.NotificationID)
			assert.NotEmpty(t, output.SentAt)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_MissingRecipientDegrades(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT email, phone FROM students WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	handler := newMockHandler(t, createTestConfig(), db, nil, nil)

	input := createTestInput(TypeApplicationSubmitted)
	input.RecipientID = "ghost"

	output, err := handler.Execute(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
}

func TestHandler_Execute_InvalidRecipientType(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := newMockHandler(t, createTestConfig(), db, nil, nil)

	input := createTestInput(TypeApplicationSubmitted)
	input.RecipientType = "alumni"

	output, err := handler.Execute(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
}

func TestHandler_Execute_UnknownTemplate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT email, phone FROM students`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).
			AddRow("student@example.com", ""))

	handler := newMockHandler(t, createTestConfig(), db, nil, nil)

	input := createTestInput("unknown_type")

	_, err = handler.Execute(context.Background(), input)
	assert.Error(t, err)
}

func TestHandler_Execute_EmailFailureReturnsFailedStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT email, phone FROM students`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).
			AddRow("student@example.com", ""))

	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	handler := newMockHandler(t, createTestConfig(), db, mockSES, nil)

	output, err := handler.Execute(context.Background(), createTestInput(TypeApplicationSubmitted))
	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
}

func TestRenderTemplate(t *testing.T) {
	result := renderTemplate(
		"Deadline for {{scholarshipName}} is {{deadline}}. {{missing}} done.",
		map[string]interface{}{
			"scholarshipName": "STEM Leaders Award",
			"deadline":        "2026-05-01",
		},
	)
	assert.Equal(t, "Deadline for STEM Leaders Award is 2026-05-01.  done.", result)
}
