package assignprioritytier

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"scholarship-workers/internal/common/logger"
)

const (
	TaskType = "assign-priority-tier"
)

// Deadlines further out than this are treated as effectively open.
const openDeadlineDays = 365

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PRIORITY_TIER_FAILED", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "PRIORITY_TIER_FAILED", err.Error(), 0)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	deadline := input.Deadline
	if deadline == "" && input.ScholarshipID != "" {
		var err error
		deadline, err = h.getScholarshipDeadline(ctx, input.ScholarshipID)
		if err != nil {
			h.logger.Warn("failed to fetch scholarship deadline, treating as open", map[string]interface{}{
				"scholarshipId": input.ScholarshipID,
				"error":         err,
			})
		}
	}

	days := h.daysToDeadline(deadline)
	tier, reason := h.determineTier(input.SuccessProbability, days)

	h.logger.Info("priority tier assigned", map[string]interface{}{
		"studentId":      input.StudentID,
		"scholarshipId":  input.ScholarshipID,
		"probability":    input.SuccessProbability,
		"daysToDeadline": days,
		"tier":           tier,
	})

	return &Output{
		PriorityTier:   tier,
		DaysToDeadline: days,
		Reason:         reason,
	}, nil
}

func (h *Handler) getScholarshipDeadline(ctx context.Context, scholarshipID string) (string, error) {
	cacheKey := "scholarship:deadline:" + scholarshipID
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		return val, nil
	}

	row := h.db.QueryRowContext(ctx, `
		SELECT deadline
		FROM scholarships
		WHERE id = $1`, scholarshipID)

	var deadline string
	err := row.Scan(&deadline)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("scholarship not found: %s", scholarshipID)
		}
		return "", fmt.Errorf("database error: %w", err)
	}

	h.redis.Set(ctx, cacheKey, deadline, h.config.CacheTTL)
	return deadline, nil
}

func (h *Handler) daysToDeadline(deadline string) int {
	if deadline == "" {
		return openDeadlineDays
	}
	parsed, err := time.Parse(time.RFC3339, deadline)
	if err != nil {
		// Date-only deadlines come straight from the scholarships table
		parsed, err = time.Parse("2006-01-02", deadline)
		if err != nil {
			return openDeadlineDays
		}
	}
	hours := parsed.Sub(h.now()).Hours()
	if hours < 0 {
		return -1
	}
	return int(hours / 24)
}

func (h *Handler) determineTier(probability, daysToDeadline int) (string, string) {
	if daysToDeadline < 0 {
		return TierSkip, "deadline has passed"
	}

	switch {
	case probability >= 75:
		return TierMustApply, "high success probability"
	case probability >= 50:
		if daysToDeadline <= 7 {
			return TierMustApply, "good probability and deadline within a week"
		}
		return TierShouldApply, "good success probability"
	case probability >= 30:
		return TierConsider, "moderate success probability"
	default:
		return TierSkip, "low success probability"
	}
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, _ int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}
