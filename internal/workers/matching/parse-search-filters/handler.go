package parsesearchfilters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "parse-search-filters"

var ErrInvalidFilterFormat = errors.New("INVALID_FILTER_FORMAT")

const maxAwardAmount = 500000

var validFieldsOfStudy = map[string]bool{
	"stem": true, "business": true, "arts": true, "humanities": true,
	"health": true, "education": true, "law": true, "trades": true,
}

var validSortOptions = map[string]bool{
	"relevance": true, "deadline": true, "amount_max": true, "name": true,
}

type Handler struct {
	config *Config
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
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
	if errors.Is(err, ErrInvalidFilterFormat) {
		return commonerrors.NewInvalidFilterFormatError(err.Error())
	}
	return commonerrors.NewBusinessRuleError("Filter parsing failed", err.Error())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.RawFilters == nil {
		input.RawFilters = make(map[string]interface{})
	}

	parsed := ParsedFilters{
		FieldsOfStudy: []string{},
		States:        []string{},
		Keywords:      "",
		SortBy:        "relevance",
		Pagination:    Pagination{Page: 1, Size: 20},
		AmountRange:   AmountRange{Min: 0, Max: maxAwardAmount},
	}

	if fieldsRaw, ok := input.RawFilters["fieldsOfStudy"]; ok {
		parsed.FieldsOfStudy = h.parseStringArray(fieldsRaw)
		for _, f := range parsed.FieldsOfStudy {
			if !validFieldsOfStudy[strings.ToLower(f)] {
				return nil, fmt.Errorf("%w: invalid field of study '%s'", ErrInvalidFilterFormat, f)
			}
		}
	}

	if amountRaw, ok := input.RawFilters["amountRange"]; ok {
		if amountMap, ok := amountRaw.(map[string]interface{}); ok {
			if minRaw, exists := amountMap["min"]; exists {
				if min, err := h.parseInt(minRaw); err == nil && min >= 0 {
					parsed.AmountRange.Min = min
				}
			}
			if maxRaw, exists := amountMap["max"]; exists {
				if max, err := h.parseInt(maxRaw); err == nil && max > 0 && max <= maxAwardAmount {
					parsed.AmountRange.Max = max
				}
			}
			if parsed.AmountRange.Min > parsed.AmountRange.Max {
				return nil, fmt.Errorf("%w: amount min (%d) > max (%d)",
					ErrInvalidFilterFormat, parsed.AmountRange.Min, parsed.AmountRange.Max)
			}
		}
	}

	if statesRaw, ok := input.RawFilters["states"]; ok {
		parsed.States = h.parseStringArray(statesRaw)
	}

	if keywordsRaw, ok := input.RawFilters["keywords"]; ok {
		if s, ok := keywordsRaw.(string); ok {
			parsed.Keywords = strings.TrimSpace(s)
		}
	}

	if sortByRaw, ok := input.RawFilters["sortBy"]; ok {
		if s, ok := sortByRaw.(string); ok {
			s = strings.TrimSpace(s)
			if validSortOptions[s] {
				parsed.SortBy = s
			} else {
				return nil, fmt.Errorf("%w: invalid sortBy '%s'", ErrInvalidFilterFormat, s)
			}
		}
	}

	if deadlineRaw, ok := input.RawFilters["deadlineWithinDays"]; ok {
		if days, err := h.parseInt(deadlineRaw); err == nil && days >= 1 && days <= 365 {
			parsed.DeadlineWithinDays = days
		}
	}

	if paginationRaw, ok := input.RawFilters["pagination"]; ok {
		if pgMap, ok := paginationRaw.(map[string]interface{}); ok {
			if pageRaw, exists := pgMap["page"]; exists {
				if page, err := h.parseInt(pageRaw); err == nil && page >= 1 {
					parsed.Pagination.Page = page
				}
			}
			if sizeRaw, exists := pgMap["size"]; exists {
				if size, err := h.parseInt(sizeRaw); err == nil && size >= 1 {
					// Oversized pages are capped, not rejected
					if size <= 100 {
						parsed.Pagination.Size = size
					} else {
						parsed.Pagination.Size = 100
					}
				}
			}
		}
	}

	h.logger.Info("filters parsed successfully", map[string]interface{}{
		"fieldsOfStudy": parsed.FieldsOfStudy,
		"amountRange":   parsed.AmountRange,
		"states":        parsed.States,
		"keywords":      parsed.Keywords,
		"sortBy":        parsed.SortBy,
		"pagination":    parsed.Pagination,
	})

	return &Output{ParsedFilters: parsed}, nil
}

func (h *Handler) parseStringArray(raw interface{}) []string {
	result := []string{}
	if raw == nil {
		return result
	}

	seen := make(map[string]bool)

	appendTrimmed := func(s string) {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" && !seen[trimmed] {
			result = append(result, trimmed)
			seen[trimmed] = true
		}
	}

	switch v := raw.(type) {
	case string:
		if v != "" {
			for _, s := range strings.Split(v, ",") {
				appendTrimmed(s)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				appendTrimmed(s)
			}
		}
	case []string:
		for _, s := range v {
			appendTrimmed(s)
		}
	}

	return result
}

func (h *Handler) parseInt(raw interface{}) (int, error) {
	if raw == nil {
		return 0, errors.New("cannot parse nil as integer")
	}

	switch v := raw.(type) {
	case float64:
		if v < 0 || v != float64(int(v)) {
			return 0, errors.New("not a valid positive integer")
		}
		return int(v), nil

	case int:
		if v < 0 {
			return 0, errors.New("negative integer not allowed")
		}
		return v, nil

	case int64:
		if v < 0 {
			return 0, errors.New("negative integer not allowed")
		}
		return int(v), nil

	case string:
		// Monetary strings like "$5,000.00" keep only the dollar part
		cleaned := strings.ReplaceAll(v, " ", "")
		cleaned = strings.ReplaceAll(cleaned, "$", "")
		cleaned = strings.ReplaceAll(cleaned, "USD", "")
		cleaned = strings.ReplaceAll(cleaned, ",", "")

		if strings.Contains(cleaned, ".") {
			cleaned = strings.Split(cleaned, ".")[0]
		}

		re := regexp.MustCompile(`[^\d]+`)
		cleaned = re.ReplaceAllString(cleaned, "")

		if cleaned == "" {
			return 0, errors.New("not a number")
		}

		num, err := strconv.Atoi(cleaned)
		if err != nil {
			return 0, fmt.Errorf("strconv.Atoi failed: %w", err)
		}
		if num < 0 {
			return 0, errors.New("negative integer not allowed")
		}
		return num, nil

	default:
		return 0, errors.New("not a number")
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

