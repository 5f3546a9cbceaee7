package generateessayfeedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonerrors "scholarship-workers/internal/common/errors"
	commonhttp "scholarship-workers/internal/common/http"
	"scholarship-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-essay-feedback"
)

var (
	ErrLLMTimeout          = errors.New("LLM_TIMEOUT")
	ErrEssayFeedbackFailed = errors.New("ESSAY_FEEDBACK_FAILED")
)

type Handler struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		client: commonhttp.NewClient(config.Timeout),
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
	if errors.Is(err, ErrLLMTimeout) {
		return commonerrors.NewLLMTimeoutError()
	}
	return commonerrors.NewEssayFeedbackFailedError(err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.EssayText) == "" {
		return nil, fmt.Errorf("%w: essay text is empty", ErrEssayFeedbackFailed)
	}

	prompt := h.buildPrompt(input)
	requestBody := map[string]interface{}{
		"prompt":      prompt,
		"max_tokens":  h.config.MaxTokens,
		"temperature": h.config.Temperature,
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrLLMTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST",
			h.config.GenAIBaseURL+"/api/ai/essay-feedback", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEssayFeedbackFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if h.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
		}

		resp, lastErr = h.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return nil, ErrLLMTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrLLMTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrEssayFeedbackFailed, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrEssayFeedbackFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Feedback    string   `json:"feedback"`
		Suggestions []string `json:"suggestions"`
		Confidence  float64  `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrEssayFeedbackFailed, err)
	}

	if strings.TrimSpace(apiResponse.Feedback) == "" {
		return nil, fmt.Errorf("%w: empty feedback in response", ErrEssayFeedbackFailed)
	}

	if apiResponse.Confidence < 0.0 || apiResponse.Confidence > 1.0 {
		apiResponse.Confidence = 0.5
	}
	if apiResponse.Suggestions == nil {
		apiResponse.Suggestions = []string{}
	}

	h.logger.Info("essay feedback generated", map[string]interface{}{
		"studentId":       input.StudentID,
		"suggestionCount": len(apiResponse.Suggestions),
		"confidence":      apiResponse.Confidence,
	})

	return &Output{
		Feedback:    apiResponse.Feedback,
		Suggestions: apiResponse.Suggestions,
		Confidence:  apiResponse.Confidence,
	}, nil
}

func (h *Handler) buildPrompt(input *Input) string {
	var parts []string

	parts = append(parts, "You are an experienced scholarship essay coach. Review the essay below and give constructive, specific feedback.")
	if input.Prompt != "" {
		parts = append(parts, fmt.Sprintf("\nEssay Prompt: %s", input.Prompt))
	}
	parts = append(parts, "\nEssay:")
	parts = append(parts, input.EssayText)

	if input.QualityScore > 0 {
		parts = append(parts, fmt.Sprintf("\nAutomated quality score: %d/100", input.QualityScore))
	}
	if len(input.ScoreBreakdown) > 0 {
		breakdownJSON, _ := json.Marshal(input.ScoreBreakdown)
		parts = append(parts, fmt.Sprintf("Score breakdown: %s", breakdownJSON))
	}

	parts = append(parts, "\nInstructions:")
	parts = append(parts, "- Start with what the essay does well")
	parts = append(parts, "- List concrete suggestions the student can act on")
	parts = append(parts, "- Do not rewrite the essay for the student")
	parts = append(parts, "- Return confidence score between 0.0 and 1.0")

	return strings.Join(parts, "\n")
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
