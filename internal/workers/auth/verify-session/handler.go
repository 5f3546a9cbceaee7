package verifysession

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"scholarship-workers/internal/common/auth"
	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
)

const (
	TaskType = "verify-session"
)

var (
	ErrSessionInvalid     = errors.New("SESSION_INVALID")
	ErrSessionExpired     = errors.New("SESSION_EXPIRED")
	ErrSessionCheckFailed = errors.New("SESSION_CHECK_FAILED")
)

// TokenIntrospector is satisfied by auth.ProviderClient.
type TokenIntrospector interface {
	IntrospectToken(ctx context.Context, token string) (*auth.Introspection, error)
}

type Handler struct {
	config   *Config
	provider TokenIntrospector
	redis    *redis.Client
	logger   logger.Logger
	errs     *commonerrors.ErrorHandler
	now      func() time.Time
}

func NewHandler(config *Config, provider TokenIntrospector, redisClient *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		provider: provider,
		redis:    redisClient,
		logger:   scoped,
		errs:     commonerrors.NewErrorHandler(scoped),
		now:      time.Now,
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
	case errors.Is(err, ErrSessionExpired):
		return commonerrors.NewSessionExpiredError(err.Error())
	case errors.Is(err, ErrSessionCheckFailed):
		return commonerrors.NewSessionCheckFailedError(err)
	default:
		return commonerrors.NewSessionInvalidError(err.Error())
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.SessionToken == "" {
		return nil, fmt.Errorf("%w: sessionToken is required", ErrSessionInvalid)
	}

	// Tokens are hashed before use as a cache key so redis never holds
	// the raw credential.
	cacheKey := sessionCacheKey(input.SessionToken)
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var cached Output
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return &cached, nil
		}
	}

	introspection, err := h.provider.IntrospectToken(ctx, input.SessionToken)
	if err != nil {
		var stdErr *commonerrors.StandardError
		if errors.As(err, &stdErr) && !stdErr.Retryable {
			return nil, fmt.Errorf("%w: %s", ErrSessionInvalid, stdErr.Message)
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionCheckFailed, err)
	}

	if !introspection.Active {
		return nil, ErrSessionInvalid
	}

	expiresAt := time.Unix(introspection.ExpiresAt, 0)
	if introspection.ExpiresAt > 0 && h.now().After(expiresAt) {
		return nil, ErrSessionExpired
	}

	output := &Output{
		Active:    true,
		StudentID: introspection.Subject,
		Username:  introspection.Username,
		Email:     introspection.Email,
		ExpiresAt: introspection.ExpiresAt,
	}

	h.cacheSession(ctx, cacheKey, output, expiresAt)

	return output, nil
}

// cacheSession stores the verified session, capped at the token's own
// remaining lifetime so a cache entry never outlives the session.
func (h *Handler) cacheSession(ctx context.Context, cacheKey string, output *Output, expiresAt time.Time) {
	ttl := h.config.SessionCacheTTL
	if output.ExpiresAt > 0 {
		if remaining := expiresAt.Sub(h.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}

	data, _ := json.Marshal(output)
	if err := h.redis.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		h.logger.Warn("failed to cache session", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func sessionCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
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
