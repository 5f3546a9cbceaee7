package validatesubscription

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
)

const (
	TaskType = "validate-subscription"
)

var (
	ErrSubscriptionInvalid     = errors.New("SUBSCRIPTION_INVALID")
	ErrSubscriptionExpired     = errors.New("SUBSCRIPTION_EXPIRED")
	ErrFeatureNotAvailable     = errors.New("FEATURE_NOT_AVAILABLE")
	ErrSubscriptionCheckFailed = errors.New("SUBSCRIPTION_CHECK_FAILED")
)

// tierFeatures maps each plan to the portal features it unlocks.
// Premium-only features gate the AI essay pipeline and unlimited matching.
var tierFeatures = map[string][]string{
	"free":    {"basic_matches"},
	"basic":   {"basic_matches", "deadline_reminders"},
	"premium": {"basic_matches", "deadline_reminders", "ai_essay_feedback", "unlimited_matches"},
}

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		redis:  redisClient,
		logger: scoped,
		errs:   commonerrors.NewErrorHandler(scoped),
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
	switch {
	case errors.Is(err, ErrSubscriptionExpired):
		return commonerrors.NewSubscriptionExpiredError(err.Error())
	case errors.Is(err, ErrFeatureNotAvailable):
		return commonerrors.NewFeatureNotAvailableError(err.Error())
	case errors.Is(err, ErrSubscriptionCheckFailed):
		return commonerrors.NewSubscriptionCheckFailedError(err)
	default:
		return commonerrors.NewSubscriptionInvalidError(err.Error())
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.StudentID == "" {
		return nil, fmt.Errorf("%w: studentId is required", ErrSubscriptionInvalid)
	}

	sub, err := h.lookupSubscription(ctx, input.StudentID)
	if err != nil {
		return nil, err
	}

	if !sub.IsValid {
		return nil, ErrSubscriptionInvalid
	}

	if sub.ExpiresAt != "" {
		exp, parseErr := time.Parse(time.RFC3339, sub.ExpiresAt)
		if parseErr != nil {
			h.logger.Debug("unparseable expiration, skipping expiry check", map[string]interface{}{
				"studentId": sub.StudentID,
				"expiresAt": sub.ExpiresAt,
				"error":     parseErr.Error(),
			})
		} else if h.now().After(exp) {
			return nil, ErrSubscriptionExpired
		}
	}

	features, known := tierFeatures[sub.Tier]
	if !known {
		return nil, fmt.Errorf("%w: unknown tier %q", ErrSubscriptionInvalid, sub.Tier)
	}

	if input.Feature != "" && !containsFeature(features, input.Feature) {
		return nil, fmt.Errorf("%w: %s requires an upgraded plan", ErrFeatureNotAvailable, input.Feature)
	}

	return &Output{IsValid: true, TierLevel: sub.Tier, Features: features}, nil
}

// lookupSubscription checks redis first, then student_subscriptions.
// Students without a row are on the free plan.
func (h *Handler) lookupSubscription(ctx context.Context, studentID string) (*Subscription, error) {
	cacheKey := "subscription:" + studentID
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var sub Subscription
		if err := json.Unmarshal([]byte(val), &sub); err == nil {
			return &sub, nil
		}
	}

	var sub Subscription
	query := `SELECT student_id, tier, expires_at, is_valid FROM student_subscriptions WHERE student_id = $1`
	err := h.db.QueryRowContext(ctx, query, studentID).Scan(
		&sub.StudentID, &sub.Tier, &sub.ExpiresAt, &sub.IsValid,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Subscription{StudentID: studentID, Tier: "free", IsValid: true}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSubscriptionCheckFailed, err)
	}

	data, _ := json.Marshal(sub)
	h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)

	return &sub, nil
}

func containsFeature(features []string, feature string) bool {
	for _, f := range features {
		if f == feature {
			return true
		}
	}
	return false
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
