package requestrecommendation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonaws "scholarship-workers/internal/common/aws"
	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "request-recommendation"
)

var (
	ErrDuplicateRecommendation    = errors.New("DUPLICATE_RECOMMENDATION")
	ErrRecommendationStoreFailed  = errors.New("RECOMMENDATION_STORE_FAILED")
	ErrRecommendationEmailFailed  = errors.New("RECOMMENDATION_EMAIL_FAILED")
	ErrInvalidRecommendationInput = errors.New("INVALID_RECOMMENDATION_INPUT")
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	logger    logger.Logger
	sesClient SESService
	errs      *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) (*Handler, error) {
	sesClient, err := commonaws.NewSESClient(context.Background(), config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}

	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		db:        db,
		logger:    scoped,
		sesClient: sesClient,
		errs:      commonerrors.NewErrorHandler(scoped),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errs.HandleJobError(context.Background(), client, job, fmt.Errorf("parse input: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errs.HandleJobError(ctx, client, job, h.standardize(&input, err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) standardize(input *Input, err error) error {
	switch {
	case errors.Is(err, ErrDuplicateRecommendation):
		return commonerrors.NewDuplicateRecommendationError(input.ApplicationID, input.RecommenderEmail)
	case errors.Is(err, ErrInvalidRecommendationInput):
		return commonerrors.NewApplicationValidationFailedError(err.Error())
	default:
		return commonerrors.NewRecommendationRequestFailedError(err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" || input.RecommenderEmail == "" {
		return nil, fmt.Errorf("%w: applicationId and recommenderEmail are required",
			ErrInvalidRecommendationInput)
	}
	if !validation.ValidateEmail(input.RecommenderEmail) {
		return nil, fmt.Errorf("%w: invalid recommender email %q",
			ErrInvalidRecommendationInput, input.RecommenderEmail)
	}

	// One outstanding request per recommender per application
	var pending bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM recommendations
			WHERE application_id = $1 AND recommender_email = $2 AND status = $3
		)`, input.ApplicationID, input.RecommenderEmail, StatusRequested).Scan(&pending)
	if err != nil {
		return nil, fmt.Errorf("%w: pending check failed: %v", ErrRecommendationStoreFailed, err)
	}
	if pending {
		return nil, fmt.Errorf("%w: a pending request already exists for %s on application %s",
			ErrDuplicateRecommendation, input.RecommenderEmail, input.ApplicationID)
	}

	recommendationID := uuid.New().String()
	uploadToken := uuid.New().String()
	requestedAt := time.Now().UTC().Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO recommendations (
			id, application_id, student_id, recommender_name, recommender_email,
			upload_token, status, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		recommendationID,
		input.ApplicationID,
		input.StudentID,
		input.RecommenderName,
		input.RecommenderEmail,
		uploadToken,
		StatusRequested,
		requestedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrRecommendationStoreFailed, err)
	}

	if err := h.sendRequestEmail(ctx, input, uploadToken); err != nil {
		// Row stays in requested state; the email can be retried from the portal
		h.logger.Error("recommendation email failed", map[string]interface{}{
			"recommendationId": recommendationID,
			"recommender":      input.RecommenderEmail,
			"error":            err,
		})
		return nil, fmt.Errorf("%w: %v", ErrRecommendationEmailFailed, err)
	}

	h.logger.Info("recommendation requested", map[string]interface{}{
		"recommendationId": recommendationID,
		"applicationId":    input.ApplicationID,
		"recommender":      input.RecommenderEmail,
	})

	return &Output{
		RecommendationID: recommendationID,
		Status:           StatusRequested,
		RequestedAt:      requestedAt,
	}, nil
}

func (h *Handler) sendRequestEmail(ctx context.Context, input *Input, uploadToken string) error {
	uploadLink := fmt.Sprintf("%s/recommendations/upload/%s",
		strings.TrimRight(h.config.UploadBaseURL, "/"), uploadToken)

	subject := fmt.Sprintf("Recommendation letter request for %s", input.StudentName)

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", input.RecommenderName)
	fmt.Fprintf(&body, "%s has requested a recommendation letter for the %s scholarship.\n\n",
		input.StudentName, input.ScholarshipName)
	if input.Message != "" {
		fmt.Fprintf(&body, "Message from the student:\n%s\n\n", input.Message)
	}
	fmt.Fprintf(&body, "Please upload your letter here: %s\n", uploadLink)

	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{input.RecommenderEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body.String())},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
