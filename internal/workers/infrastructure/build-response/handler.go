package buildresponse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"

	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
)

const TaskType = "build-response"

var (
	ErrTemplateNotFound         = errors.New("TEMPLATE_NOT_FOUND")
	ErrTemplateValidationFailed = errors.New("TEMPLATE_VALIDATION_FAILED")
)

type templateCacheEntry struct {
	template *TemplateDefinition
	loadedAt time.Time
}

type Handler struct {
	config *Config
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]*templateCacheEntry
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		logger: scoped,
		errs:   commonerrors.NewErrorHandler(scoped),
		now:    time.Now,
		cache:  make(map[string]*templateCacheEntry),
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

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errs.HandleJobError(ctx, client, job, standardize(&input, err))
		return
	}

	h.completeJob(client, job, output)
}

func standardize(input *Input, err error) error {
	switch {
	case errors.Is(err, ErrTemplateNotFound):
		return commonerrors.NewTemplateNotFoundError(input.TemplateID)
	case errors.Is(err, ErrTemplateValidationFailed):
		return commonerrors.NewTemplateValidationFailedError(err.Error())
	default:
		return commonerrors.NewBusinessRuleError("Response build failed", err.Error())
	}
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	template, err := h.loadTemplate(input.TemplateID)
	if err != nil {
		return nil, err
	}

	if err := h.validateData(template.Schema, input.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateValidationFailed, err)
	}

	responseData := h.substituteTemplate(template.Template, input.Data)

	responseDataMap, ok := responseData.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("template %s root must substitute to an object, got %T", input.TemplateID, responseData)
	}

	payload := ResponsePayload{
		RequestID: input.RequestID,
		Status:    "success",
		Data:      responseDataMap,
		Metadata: ResponseMetadata{
			Timestamp: h.now().UTC().Format(time.RFC3339),
			Version:   template.Version,
		},
	}
	if payload.Metadata.Version == "" {
		payload.Metadata.Version = h.config.AppVersion
	}

	return &Output{Response: payload}, nil
}

// substituteTemplate walks the template structure and replaces any
// "{{key}}" string leaf with the value at that dot path in the data.
// Missing keys substitute to nil so the response shape stays stable.
func (h *Handler) substituteTemplate(templateData interface{}, inputData map[string]interface{}) interface{} {
	switch v := templateData.(type) {
	case string:
		if len(v) > 4 && strings.HasPrefix(v, "{{") && strings.HasSuffix(v, "}}") {
			key := strings.TrimSpace(v[2 : len(v)-2])
			return lookupNestedValue(inputData, key)
		}
		return v
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, child := range v {
			result[k] = h.substituteTemplate(child, inputData)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = h.substituteTemplate(item, inputData)
		}
		return result
	default:
		return v
	}
}

func lookupNestedValue(data map[string]interface{}, key string) interface{} {
	current := interface{}(data)
	for _, part := range strings.Split(key, ".") {
		currentMap, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		val, exists := currentMap[part]
		if !exists {
			return nil
		}
		current = val
	}
	return current
}

func (h *Handler) loadTemplate(id string) (*TemplateDefinition, error) {
	h.mu.RLock()
	if entry, ok := h.cache[id]; ok && time.Since(entry.loadedAt) < h.config.CacheTTL {
		h.mu.RUnlock()
		return entry.template, nil
	}
	h.mu.RUnlock()

	registryBytes, err := os.ReadFile(h.config.TemplateRegistry)
	if err != nil {
		return nil, fmt.Errorf("read template registry: %w", err)
	}

	var registry struct {
		Templates []TemplateDefinition `json:"templates"`
	}
	if err := json.Unmarshal(registryBytes, &registry); err != nil {
		return nil, fmt.Errorf("parse template registry: %w", err)
	}

	for i := range registry.Templates {
		t := registry.Templates[i]
		if t.ID == id {
			h.mu.Lock()
			h.cache[id] = &templateCacheEntry{template: &t, loadedAt: time.Now()}
			h.mu.Unlock()
			return &t, nil
		}
	}

	return nil, ErrTemplateNotFound
}

func (h *Handler) validateData(schemaMap, data map[string]interface{}) error {
	if len(schemaMap) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schemaMap),
		gojsonschema.NewGoLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("data validation failed: %v", errs)
	}

	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
	}
}
