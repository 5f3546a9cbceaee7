package validateapplicationdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-application-data"
)

var (
	ErrApplicationValidationFailed = errors.New("APPLICATION_VALIDATION_FAILED")
)

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
		h.errs.HandleJobError(ctx, client, job, commonerrors.NewApplicationValidationFailedError(err.Error()))
		return
	}

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
		h.logger.Error("failed to complete job", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	validated := make(map[string]interface{})
	var validationErrors []ValidationError

	if personalRaw, ok := input.ApplicationData["personalInfo"]; ok {
		if personalMap, ok := personalRaw.(map[string]interface{}); ok {
			validatedPersonal, personalErrors := h.validatePersonalInfo(personalMap)
			validated["personalInfo"] = validatedPersonal
			validationErrors = append(validationErrors, personalErrors...)
		}
	} else {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "personalInfo",
			Code:    "MISSING_REQUIRED",
			Message: "personalInfo is required",
		})
	}

	if academicRaw, ok := input.ApplicationData["academicInfo"]; ok {
		if academicMap, ok := academicRaw.(map[string]interface{}); ok {
			validatedAcademic, academicErrors := h.validateAcademicInfo(academicMap)
			validated["academicInfo"] = validatedAcademic
			validationErrors = append(validationErrors, academicErrors...)
		}
	} else {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "academicInfo",
			Code:    "MISSING_REQUIRED",
			Message: "academicInfo is required",
		})
	}

	if essaysRaw, ok := input.ApplicationData["essays"]; ok {
		if essaysList, ok := essaysRaw.([]interface{}); ok {
			validatedEssays, essayErrors := h.validateEssays(essaysList)
			validated["essays"] = validatedEssays
			validationErrors = append(validationErrors, essayErrors...)
		} else {
			validationErrors = append(validationErrors, ValidationError{
				Field:   "essays",
				Code:    "INVALID_TYPE",
				Message: "essays must be an array",
			})
		}
	} else {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "essays",
			Code:    "MISSING_REQUIRED",
			Message: "essays is required",
		})
	}

	isValid := len(validationErrors) == 0
	h.logger.Info("validation completed", map[string]interface{}{
		"scholarshipId": input.ScholarshipID,
		"isValid":       isValid,
		"errorCount":    len(validationErrors),
	})

	if !isValid {
		return nil, fmt.Errorf("%w: %d validation errors", ErrApplicationValidationFailed, len(validationErrors))
	}

	return &Output{
		IsValid:          true,
		ValidatedData:    validated,
		ValidationErrors: []ValidationError{},
	}, nil
}

func (h *Handler) validatePersonalInfo(data map[string]interface{}) (map[string]interface{}, []ValidationError) {
	validated := make(map[string]interface{})
	errors := []ValidationError{}

	if nameRaw, ok := data["name"]; ok {
		if nameStr, ok := nameRaw.(string); ok {
			nameStr = strings.TrimSpace(nameStr)
			nameStr = regexp.MustCompile(`\s+`).ReplaceAllString(nameStr, " ")
			nameStr = regexp.MustCompile(`[^a-zA-Z\s\-']`).ReplaceAllString(nameStr, "")

			if nameRegex.MatchString(nameStr) {
				validated["name"] = nameStr
			} else {
				errors = append(errors, ValidationError{
					Field:   "personalInfo.name",
					Code:    "INVALID_FORMAT",
					Message: "Name must be 2-100 characters, letters, spaces, hyphens, or apostrophes",
				})
			}
		} else {
			errors = append(errors, ValidationError{
				Field:   "personalInfo.name",
				Code:    "INVALID_TYPE",
				Message: "Name must be a string",
			})
		}
	} else {
		errors = append(errors, ValidationError{
			Field:   "personalInfo.name",
			Code:    "MISSING_REQUIRED",
			Message: "Name is required",
		})
	}

	if emailRaw, ok := data["email"]; ok {
		if emailStr, ok := emailRaw.(string); ok {
			emailStr = strings.TrimSpace(emailStr)
			if validation.ValidateEmail(emailStr) {
				validated["email"] = emailStr
			} else {
				errors = append(errors, ValidationError{
					Field:   "personalInfo.email",
					Code:    "INVALID_FORMAT",
					Message: "Invalid email format",
				})
			}
		} else {
			errors = append(errors, ValidationError{
				Field:   "personalInfo.email",
				Code:    "INVALID_TYPE",
				Message: "Email must be a string",
			})
		}
	} else {
		errors = append(errors, ValidationError{
			Field:   "personalInfo.email",
			Code:    "MISSING_REQUIRED",
			Message: "Email is required",
		})
	}

	if phoneRaw, ok := data["phone"]; ok {
		if phoneStr, ok := phoneRaw.(string); ok {
			phoneStr = strings.TrimSpace(phoneStr)
			phoneStr = regexp.MustCompile(`[^\d\+]`).ReplaceAllString(phoneStr, "")

			if phoneStr == "" || !phoneRegex.MatchString(phoneStr) {
				errors = append(errors, ValidationError{
					Field:   "personalInfo.phone",
					Code:    "INVALID_FORMAT",
					Message: "Invalid phone format (E.164 recommended)",
				})
			} else {
				validated["phone"] = phoneStr
			}
		} else {
			errors = append(errors, ValidationError{
				Field:   "personalInfo.phone",
				Code:    "INVALID_TYPE",
				Message: "Phone must be a string",
			})
		}
	}
	// Phone is optional; many students apply with email only.

	return validated, errors
}

func (h *Handler) validateAcademicInfo(data map[string]interface{}) (map[string]interface{}, []ValidationError) {
	validated := make(map[string]interface{})
	errors := []ValidationError{}

	scale := 4.0
	if scaleRaw, ok := data["gpaScale"]; ok {
		if scaleNum, ok := scaleRaw.(float64); ok && validGPAScales[scaleNum] {
			scale = scaleNum
			validated["gpaScale"] = scaleNum
		} else {
			errors = append(errors, ValidationError{
				Field:   "academicInfo.gpaScale",
				Code:    "INVALID_FORMAT",
				Message: "GPA scale must be 4.0, 5.0, or 100",
			})
		}
	} else {
		validated["gpaScale"] = scale
	}

	if gpaRaw, ok := data["gpa"]; ok {
		if gpa, ok := gpaRaw.(float64); ok {
			if gpa >= 0 && gpa <= scale {
				validated["gpa"] = gpa
			} else {
				errors = append(errors, ValidationError{
					Field:   "academicInfo.gpa",
					Code:    "OUT_OF_RANGE",
					Message: fmt.Sprintf("GPA must be between 0 and %.1f", scale),
				})
			}
		} else {
			errors = append(errors, ValidationError{
				Field:   "academicInfo.gpa",
				Code:    "INVALID_TYPE",
				Message: "GPA must be a number",
			})
		}
	} else {
		errors = append(errors, ValidationError{
			Field:   "academicInfo.gpa",
			Code:    "MISSING_REQUIRED",
			Message: "GPA is required",
		})
	}

	if schoolRaw, ok := data["school"]; ok {
		if schoolStr, ok := schoolRaw.(string); ok {
			schoolStr = strings.TrimSpace(schoolStr)
			if len(schoolStr) >= 2 && len(schoolStr) <= 200 {
				validated["school"] = schoolStr
			} else {
				errors = append(errors, ValidationError{
					Field:   "academicInfo.school",
					Code:    "INVALID_FORMAT",
					Message: "School must be 2-200 characters",
				})
			}
		}
	}

	if yearRaw, ok := data["graduationYear"]; ok {
		if year, ok := yearRaw.(float64); ok && year == float64(int(year)) {
			y := int(year)
			if y >= 2000 && y <= 2100 {
				validated["graduationYear"] = y
			} else {
				errors = append(errors, ValidationError{
					Field:   "academicInfo.graduationYear",
					Code:    "OUT_OF_RANGE",
					Message: "Graduation year must be between 2000 and 2100",
				})
			}
		} else {
			errors = append(errors, ValidationError{
				Field:   "academicInfo.graduationYear",
				Code:    "INVALID_TYPE",
				Message: "Graduation year must be an integer",
			})
		}
	}

	return validated, errors
}

func (h *Handler) validateEssays(essays []interface{}) ([]map[string]interface{}, []ValidationError) {
	validated := []map[string]interface{}{}
	errors := []ValidationError{}

	if len(essays) == 0 {
		errors = append(errors, ValidationError{
			Field:   "essays",
			Code:    "MISSING_REQUIRED",
			Message: "At least one essay is required",
		})
		return validated, errors
	}

	for i, essayRaw := range essays {
		field := fmt.Sprintf("essays[%d]", i)
		essayMap, ok := essayRaw.(map[string]interface{})
		if !ok {
			errors = append(errors, ValidationError{
				Field:   field,
				Code:    "INVALID_TYPE",
				Message: "Essay must be an object",
			})
			continue
		}

		entry := make(map[string]interface{})

		prompt, _ := essayMap["prompt"].(string)
		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			errors = append(errors, ValidationError{
				Field:   field + ".prompt",
				Code:    "MISSING_REQUIRED",
				Message: "Essay prompt is required",
			})
		} else {
			entry["prompt"] = prompt
		}

		text, _ := essayMap["text"].(string)
		text = strings.TrimSpace(text)
		words := len(strings.Fields(text))
		switch {
		case text == "":
			errors = append(errors, ValidationError{
				Field:   field + ".text",
				Code:    "MISSING_REQUIRED",
				Message: "Essay text is required",
			})
		case words < minEssayWords:
			errors = append(errors, ValidationError{
				Field:   field + ".text",
				Code:    "TOO_SHORT",
				Message: fmt.Sprintf("Essay must be at least %d words, got %d", minEssayWords, words),
			})
		case words > maxEssayWords:
			errors = append(errors, ValidationError{
				Field:   field + ".text",
				Code:    "TOO_LONG",
				Message: fmt.Sprintf("Essay must be at most %d words, got %d", maxEssayWords, words),
			})
		default:
			entry["text"] = text
			entry["wordCount"] = words
		}

		validated = append(validated, entry)
	}

	return validated, errors
}
