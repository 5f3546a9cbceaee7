package verifysession

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarship-workers/internal/common/auth"
	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
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

type stubIntrospector struct {
	calls  int
	result *auth.Introspection
	err    error
}

func (s *stubIntrospector) IntrospectToken(_ context.Context, _ string) (*auth.Introspection, error) {
	s.calls++
	return s.result, s.err
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, provider TokenIntrospector) (*Handler, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	handler := NewHandler(LoadConfig(), provider, redisClient, &testLogger{t: t})
	handler.now = func() time.Time { return fixedNow }
	return handler, mr
}

func TestHandler_Execute_ActiveSession(t *testing.T) {
	provider := &stubIntrospector{
		result: &auth.Introspection{
			Active:    true,
			Subject:   "student-1",
			Username:  "mlopez",
			Email:     "maria@example.com",
			ExpiresAt: fixedNow.Add(time.Hour).Unix(),
		},
	}
	handler, mr := newTestHandler(t, provider)

	output, err := handler.Execute(context.Background(), &Input{SessionToken: "token-abc"})

	require.NoError(t, err)
	assert.True(t, output.Active)
	assert.Equal(t, "student-1", output.StudentID)
	assert.Equal(t, "maria@example.com", output.Email)
	assert.True(t, mr.Exists(sessionCacheKey("token-abc")))
}

func TestHandler_Execute_CacheHitSkipsProvider(t *testing.T) {
	provider := &stubIntrospector{}
	handler, mr := newTestHandler(t, provider)

	cached, _ := json.Marshal(Output{Active: true, StudentID: "student-2"})
	require.NoError(t, mr.Set(sessionCacheKey("token-cached"), string(cached)))

	output, err := handler.Execute(context.Background(), &Input{SessionToken: "token-cached"})

	require.NoError(t, err)
	assert.Equal(t, "student-2", output.StudentID)
	assert.Equal(t, 0, provider.calls)
}

func TestHandler_Execute_InactiveSession(t *testing.T) {
	provider := &stubIntrospector{
		result: &auth.Introspection{Active: false},
	}
	handler, mr := newTestHandler(t, provider)

	_, err := handler.Execute(context.Background(), &Input{SessionToken: "token-revoked"})

	assert.ErrorIs(t, err, ErrSessionInvalid)
	assert.False(t, mr.Exists(sessionCacheKey("token-revoked")))
}

func TestHandler_Execute_ExpiredSession(t *testing.T) {
	provider := &stubIntrospector{
		result: &auth.Introspection{
			Active:    true,
			Subject:   "student-3",
			ExpiresAt: fixedNow.Add(-time.Minute).Unix(),
		},
	}
	handler, _ := newTestHandler(t, provider)

	_, err := handler.Execute(context.Background(), &Input{SessionToken: "token-old"})

	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestHandler_Execute_ProviderOutageIsRetryable(t *testing.T) {
	provider := &stubIntrospector{
		err: &commonerrors.StandardError{
			Code:      "AUTH_PROVIDER_API_ERROR",
			Message:   "provider unavailable",
			Retryable: true,
		},
	}
	handler, _ := newTestHandler(t, provider)

	_, err := handler.Execute(context.Background(), &Input{SessionToken: "token-x"})

	assert.ErrorIs(t, err, ErrSessionCheckFailed)
}

func TestHandler_Execute_NonRetryableProviderErrorIsInvalid(t *testing.T) {
	provider := &stubIntrospector{
		err: &commonerrors.StandardError{
			Code:      "DESERIALIZATION_ERROR",
			Message:   "bad introspection payload",
			Retryable: false,
		},
	}
	handler, _ := newTestHandler(t, provider)

	_, err := handler.Execute(context.Background(), &Input{SessionToken: "token-y"})

	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestHandler_Execute_MissingToken(t *testing.T) {
	handler, _ := newTestHandler(t, &stubIntrospector{})

	_, err := handler.Execute(context.Background(), &Input{})

	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestHandler_Execute_CacheTTLCappedByTokenLifetime(t *testing.T) {
	provider := &stubIntrospector{
		result: &auth.Introspection{
			Active:    true,
			Subject:   "student-4",
			ExpiresAt: fixedNow.Add(20 * time.Second).Unix(),
		},
	}
	handler, mr := newTestHandler(t, provider)

	_, err := handler.Execute(context.Background(), &Input{SessionToken: "token-short"})
	require.NoError(t, err)

	ttl := mr.TTL(sessionCacheKey("token-short"))
	assert.LessOrEqual(t, ttl, 20*time.Second)
	assert.Greater(t, ttl, time.Duration(0))
}
