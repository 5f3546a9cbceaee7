package filtereligibility

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/matching/eligibility"
	"scholarship-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "filter-eligibility"
)

var (
	ErrNoScholarships = errors.New("input carries neither scholarship nor scholarships")
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		redis:  redis,
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
		h.errs.HandleJobError(ctx, client, job, standardize(err))
		return
	}

	h.completeJob(client, job, output)
}

func standardize(err error) error {
	if errors.Is(err, ErrNoScholarships) {
		return commonerrors.NewBusinessRuleError("Eligibility input invalid", err.Error())
	}
	return commonerrors.NewEligibilityCheckFailedError(err)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Scholarship == nil && len(input.Scholarships) == 0 {
		return nil, ErrNoScholarships
	}

	profile := input.StudentProfile
	if profile == nil && input.StudentID != "" {
		var err error
		profile, err = h.getStudentProfile(ctx, input.StudentID)
		if err != nil {
			// Missing profile values fail the criteria that need them, so a
			// fetch failure degrades to an all-nil profile rather than a crash.
			h.logger.Warn("failed to fetch student profile", map[string]interface{}{
				"studentId": input.StudentID,
				"error":     err,
			})
		}
	}

	opts := eligibility.Options{Exhaustive: input.Exhaustive}

	if input.Scholarship != nil {
		result := eligibility.Evaluate(profile, input.Scholarship.Criteria, opts)

		h.logger.Info("eligibility evaluated", map[string]interface{}{
			"studentId":     input.StudentID,
			"scholarshipId": input.Scholarship.ID,
			"eligible":      result.Eligible,
			"failedCount":   len(result.FailedCriteria),
		})

		return &Output{
			Eligible:       &result.Eligible,
			FailedCriteria: result.FailedCriteria,
			EligibleCount:  boolToCount(result.Eligible),
			EvaluatedCount: 1,
		}, nil
	}

	start := time.Now()
	matched := eligibility.FilterScholarships(profile, input.Scholarships, opts)
	elapsed := time.Since(start)

	h.logger.Info("eligibility batch filtered", map[string]interface{}{
		"studentId":      input.StudentID,
		"evaluatedCount": len(input.Scholarships),
		"eligibleCount":  len(matched),
		"durationMs":     elapsed.Milliseconds(),
	})

	return &Output{
		EligibleScholarships: matched,
		EligibleCount:        len(matched),
		EvaluatedCount:       len(input.Scholarships),
	}, nil
}

func (h *Handler) getStudentProfile(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	cacheKey := "student:profile:" + studentID
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var profile models.StudentProfile
		if err := json.Unmarshal([]byte(val), &profile); err == nil {
			return &profile, nil
		}
	}

	row := h.db.QueryRowContext(ctx, `
		SELECT profile FROM student_profiles WHERE student_id = $1`, studentID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return nil, err
	}

	var profile models.StudentProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode stored profile: %w", err)
	}
	profile.StudentID = studentID

	data, _ := json.Marshal(profile)
	h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)

	return &profile, nil
}

func boolToCount(eligible bool) int {
	if eligible {
		return 1
	}
	return 0
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
