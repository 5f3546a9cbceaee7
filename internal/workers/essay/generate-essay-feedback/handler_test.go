package generateessayfeedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"scholarship-workers/internal/common/logger"

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

func newTestHandler(t *testing.T, baseURL string) *Handler {
	return NewHandler(&Config{
		GenAIBaseURL: baseURL,
		APIKey:       "test-key",
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		MaxTokens:    800,
		Temperature:  0.4,
	}, &testLogger{t: t})
}

func feedbackResponse(feedback string, suggestions []string, confidence float64) string {
	data, _ := json.Marshal(map[string]interface{}{
		"feedback":    feedback,
		"suggestions": suggestions,
		"confidence":  confidence,
	})
	return string(data)
}

func testInput() *Input {
	return &Input{
		StudentID:    "student-1",
		Prompt:       "Describe a challenge you overcame",
		EssayText:    "Growing up on a farm taught me resilience when the drought hit our family.",
		QualityScore: 68,
		ScoreBreakdown: map[string]int{
			"lengthFit": 70, "structure": 60, "vocabulary": 75, "promptAlignment": 70,
		},
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/essay-feedback", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req["prompt"], "Describe a challenge you overcame")

		w.Write([]byte(feedbackResponse(
			"Strong personal narrative with a clear arc.",
			[]string{"Expand on the outcome of the drought", "Vary your sentence openings"},
			0.82,
		)))
	}))
	defer server.Close()

	handler := newTestHandler(t, server.URL)

	output, err := handler.Execute(context.Background(), testInput())

	require.NoError(t, err)
	assert.Equal(t, "Strong personal narrative with a clear arc.", output.Feedback)
	assert.Len(t, output.Suggestions, 2)
	assert.Equal(t, 0.82, output.Confidence)
}

func TestHandler_Execute_RetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(feedbackResponse("Better on the third try.", nil, 0.7)))
	}))
	defer server.Close()

	handler := newTestHandler(t, server.URL)

	output, err := handler.Execute(context.Background(), testInput())

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "Better on the third try.", output.Feedback)
	assert.Empty(t, output.Suggestions)
}

func TestHandler_Execute_FailsAfterRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	handler := newTestHandler(t, server.URL)

	_, err := handler.Execute(context.Background(), testInput())
	assert.ErrorIs(t, err, ErrEssayFeedbackFailed)
}

func TestHandler_Execute_TimeoutReturnsLLMTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(feedbackResponse("too late", nil, 0.9)))
	}))
	defer server.Close()

	handler := newTestHandler(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := handler.Execute(ctx, testInput())
	assert.ErrorIs(t, err, ErrLLMTimeout)
}

func TestHandler_Execute_EmptyEssayRejected(t *testing.T) {
	handler := newTestHandler(t, "http://localhost:0")

	_, err := handler.Execute(context.Background(), &Input{EssayText: "   "})
	assert.ErrorIs(t, err, ErrEssayFeedbackFailed)
}

func TestHandler_Execute_ClampsInvalidConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedbackResponse("Solid essay.", []string{"Tighten the intro"}, 3.5)))
	}))
	defer server.Close()

	handler := newTestHandler(t, server.URL)

	output, err := handler.Execute(context.Background(), testInput())

	require.NoError(t, err)
	assert.Equal(t, 0.5, output.Confidence)
}

func TestHandler_Execute_EmptyFeedbackRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedbackResponse("  ", nil, 0.9)))
	}))
	defer server.Close()

	handler := newTestHandler(t, server.URL)

	_, err := handler.Execute(context.Background(), testInput())
	assert.ErrorIs(t, err, ErrEssayFeedbackFailed)
}
