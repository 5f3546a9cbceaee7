package querypostgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/models"
	"scholarship-workers/internal/workers/data-access/query-postgresql/queries"
)

const (
	TaskType = "query-postgresql"
)

var (
	ErrDatabaseConnectionFailed = errors.New("DATABASE_CONNECTION_FAILED")
	ErrQueryExecutionFailed     = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout             = errors.New("QUERY_TIMEOUT")
	ErrInvalidQueryType         = errors.New("INVALID_QUERY_TYPE")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		logger: scoped,
		errs:   commonerrors.NewErrorHandler(scoped),
	}
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
	case errors.Is(err, ErrQueryTimeout):
		return commonerrors.NewQueryTimeoutError(input.QueryType)
	case errors.Is(err, ErrInvalidQueryType):
		return commonerrors.NewInvalidQueryTypeError(input.QueryType)
	case errors.Is(err, ErrDatabaseConnectionFailed):
		return commonerrors.NewDatabaseConnectionFailedError(err)
	case errors.Is(err, queries.ErrStudentNotFound):
		return commonerrors.NewStudentProfileNotFoundError(input.StudentID)
	case errors.Is(err, queries.ErrScholarshipMissing):
		return commonerrors.NewScholarshipNotFoundError(firstScholarshipID(input))
	default:
		return commonerrors.NewQueryExecutionFailedError(input.QueryType, err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}

	queryType := models.QueryType(input.QueryType)
	if _, exists := queries.Registry[queryType]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQueryType, input.QueryType)
	}

	params := make(map[string]interface{})
	if input.StudentID != "" {
		params["studentId"] = input.StudentID
	}
	if input.ScholarshipID != "" {
		params["scholarshipId"] = input.ScholarshipID
	}
	if len(input.ScholarshipIDs) > 0 {
		params["scholarshipIds"] = input.ScholarshipIDs
	}
	if input.Filters != nil {
		params["filters"] = input.Filters
	}

	data, rowCount, execTime, err := queries.Execute(ctx, h.db, queryType, params)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrQueryTimeout
		}
		if errors.Is(err, queries.ErrStudentNotFound) || errors.Is(err, queries.ErrScholarshipMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	h.logger.Debug("query executed", map[string]interface{}{
		"queryType":  input.QueryType,
		"rowCount":   rowCount,
		"durationMs": execTime,
	})

	return &Output{
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: execTime,
	}, nil
}

func firstScholarshipID(input *Input) string {
	if input.ScholarshipID != "" {
		return input.ScholarshipID
	}
	if len(input.ScholarshipIDs) > 0 {
		return input.ScholarshipIDs[0]
	}
	return ""
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
