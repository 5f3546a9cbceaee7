package calculatesuccessprobability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"scholarship-workers/internal/common/logger"
	"scholarship-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "calculate-success-probability"
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "SUCCESS_PROBABILITY_FAILED", err.Error(), 0)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var profile *models.StudentProfile
	if input.StudentProfile != nil {
		profile = input.StudentProfile
	} else if input.StudentID != "" {
		var err error
		profile, err = h.getStudentProfile(ctx, input.StudentID)
		if err != nil {
			h.logger.Warn("failed to fetch student profile", map[string]interface{}{
				"studentId": input.StudentID,
				"error":     err,
			})
		}
	}

	if profile == nil {
		return &Output{
			SuccessProbability: 50,
			Factors: ProbabilityFactors{
				AcademicMargin:      50,
				ProfileCompleteness: 50,
				CompetitivenessFit:  50,
				EssayReadiness:      50,
			},
		}, nil
	}

	academic := h.calculateAcademicMargin(profile.GPA, input.ScholarshipData.MinGPA)
	completeness := h.calculateProfileCompleteness(profile)
	fit := h.calculateCompetitivenessFit(input.ScholarshipData.Competitiveness, profile.GPA)
	essay := h.calculateEssayReadiness(profile.EssayDraftCount)

	probability := int(
		float64(academic)*0.35 +
			float64(completeness)*0.25 +
			float64(fit)*0.25 +
			float64(essay)*0.15)

	factors := ProbabilityFactors{
		AcademicMargin:      academic,
		ProfileCompleteness: completeness,
		CompetitivenessFit:  fit,
		EssayReadiness:      essay,
	}

	h.logger.Info("success probability calculated", map[string]interface{}{
		"studentId":     input.StudentID,
		"scholarshipId": input.ScholarshipData.ID,
		"probability":   probability,
		"factors":       factors,
	})

	return &Output{
		SuccessProbability: probability,
		Factors:            factors,
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

// calculateAcademicMargin scores how far the student sits above the
// scholarship's GPA floor. Without a floor, absolute GPA carries the score.
func (h *Handler) calculateAcademicMargin(gpa *float64, minGPA float64) int {
	if gpa == nil {
		return 50
	}
	if minGPA <= 0 {
		switch {
		case *gpa >= 3.5:
			return 90
		case *gpa >= 3.0:
			return 75
		default:
			return 60
		}
	}

	margin := *gpa - minGPA
	switch {
	case margin >= 0.5:
		return 100
	case margin >= 0.2:
		return 85
	case margin >= 0:
		return 70
	case margin >= -0.2:
		return 40
	default:
		return 20
	}
}

func (h *Handler) calculateProfileCompleteness(profile *models.StudentProfile) int {
	score := 0
	if profile.GPA != nil {
		score += 10
	}
	if profile.SATScore != nil || profile.ACTScore != nil {
		score += 10
	}
	if profile.ClassRank != nil && profile.ClassSize != nil {
		score += 10
	}
	if profile.GradeLevel != nil {
		score += 10
	}
	if profile.State != nil {
		score += 10
	}
	if profile.Major != nil || len(profile.FieldsOfStudy) > 0 {
		score += 10
	}
	if profile.VolunteerHours != nil {
		score += 10
	}
	if len(profile.Activities) > 0 {
		score += 10
	}
	if profile.HouseholdIncome != nil {
		score += 10
	}
	if profile.EssayDraftCount != nil {
		score += 10
	}
	return score
}

func (h *Handler) calculateCompetitivenessFit(competitiveness string, gpa *float64) int {
	studentGPA := 0.0
	if gpa != nil {
		studentGPA = *gpa
	}

	switch competitiveness {
	case "low":
		return 90
	case "moderate":
		if studentGPA >= 3.5 {
			return 85
		}
		return 65
	case "high":
		switch {
		case studentGPA >= 3.8:
			return 75
		case studentGPA >= 3.5:
			return 55
		default:
			return 35
		}
	default:
		return 50
	}
}

func (h *Handler) calculateEssayReadiness(draftCount *int) int {
	if draftCount == nil {
		return 50
	}
	switch {
	case *draftCount >= 3:
		return 100
	case *draftCount == 2:
		return 85
	case *draftCount == 1:
		return 60
	default:
		return 30
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
