package applyrelevanceranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"scholarship-workers/internal/common/logger"
)

const (
	TaskType = "apply-relevance-ranking"
)

var ErrNilInput = errors.New("input cannot be nil")

// Ranking weights. They must sum to 1.0.
const (
	weightES         = 0.4
	weightMatch      = 0.3
	weightPopularity = 0.2
	weightUrgency    = 0.1
)

type Handler struct {
	config *Config
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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
		h.failJob(client, job, "RANKING_FAILED", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "RANKING_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	start := h.now()

	detailsMap := make(map[string]*ScholarshipDetail, len(input.DetailsData))
	for i := range input.DetailsData {
		detailsMap[input.DetailsData[i].ID] = &input.DetailsData[i]
	}

	processedIDs := make(map[string]bool, len(input.SearchResults))
	ranked := make([]RankedScholarship, 0, len(input.SearchResults))

	for _, hit := range input.SearchResults {
		if processedIDs[hit.ID] {
			continue
		}
		detail, ok := detailsMap[hit.ID]
		if !ok {
			// Hits without stored details cannot be scored fairly.
			continue
		}
		processedIDs[hit.ID] = true

		esScore := math.Min(math.Max(hit.Score*10, 0), 100)
		matchScore := h.calculateMatchScore(detail, &input.StudentProfile)
		popularityScore := math.Min(float64(detail.ViewCount+detail.ApplicationCount)/10, 100)
		urgencyScore := h.calculateUrgencyScore(detail.Deadline)

		finalScore := esScore*weightES +
			matchScore*weightMatch +
			popularityScore*weightPopularity +
			urgencyScore*weightUrgency

		ranked = append(ranked, RankedScholarship{
			ID:              detail.ID,
			Name:            detail.Name,
			FinalScore:      math.Round(finalScore*100) / 100,
			ESScore:         math.Round(esScore*100) / 100,
			MatchScore:      math.Round(matchScore*100) / 100,
			PopularityScore: math.Round(popularityScore*100) / 100,
			UrgencyScore:    math.Round(urgencyScore*100) / 100,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	if h.config.MaxItems > 0 && len(ranked) > h.config.MaxItems {
		ranked = ranked[:h.config.MaxItems]
	}

	durationMs := h.now().Sub(start).Milliseconds()
	if durationMs > 500 {
		h.logger.Warn("ranking took longer than expected", map[string]interface{}{
			"durationMs": durationMs,
			"hits":       len(input.SearchResults),
		})
	}

	h.logger.Info("ranking complete", map[string]interface{}{
		"hits":       len(input.SearchResults),
		"ranked":     len(ranked),
		"durationMs": durationMs,
	})

	return &Output{RankedScholarships: ranked}, nil
}

// calculateMatchScore measures how well a scholarship fits the student
// profile. A student with no profile data gets the neutral 50.
func (h *Handler) calculateMatchScore(detail *ScholarshipDetail, profile *StudentProfile) float64 {
	if profile.GPA == 0 && len(profile.FieldsOfStudy) == 0 && profile.State == "" && profile.DesiredAmount == 0 {
		return 50
	}

	var score float64

	// Field of study fit (35%)
	if len(profile.FieldsOfStudy) > 0 {
		if len(detail.FieldsOfStudy) == 0 {
			// Open to all majors
			score += 70 * 0.35
		} else if fieldsIntersect(profile.FieldsOfStudy, detail.FieldsOfStudy) {
			score += 100 * 0.35
		}
	}

	// GPA fit (30%)
	if profile.GPA > 0 {
		switch {
		case detail.MinGPA == 0:
			score += 70 * 0.3
		case profile.GPA >= detail.MinGPA:
			score += 100 * 0.3
		case profile.GPA >= detail.MinGPA-0.2:
			score += 50 * 0.3
		}
	}

	// State fit (15%)
	if profile.State != "" {
		if len(detail.States) == 0 {
			score += 70 * 0.15
		} else if stateMatches(profile.State, detail.States) {
			score += 100 * 0.15
		}
	}

	// Award amount fit (20%)
	if profile.DesiredAmount > 0 {
		switch {
		case detail.AmountMax >= profile.DesiredAmount:
			score += 100 * 0.2
		case detail.AmountMax*2 >= profile.DesiredAmount:
			score += 60 * 0.2
		default:
			score += 30 * 0.2
		}
	}

	return score
}

// calculateUrgencyScore favors scholarships closing soon. Passed
// deadlines score zero so they sink to the bottom of the ranking.
func (h *Handler) calculateUrgencyScore(deadline string) float64 {
	if deadline == "" {
		return 50
	}
	parsed, err := time.Parse(time.RFC3339, deadline)
	if err != nil {
		parsed, err = time.Parse("2006-01-02", deadline)
		if err != nil {
			return 50
		}
	}

	hours := parsed.Sub(h.now()).Hours()
	if hours < 0 {
		return 0
	}

	days := math.Round(hours / 24)
	switch {
	case days <= 7:
		return 100
	case days <= 30:
		return 80
	case days <= 90:
		return 60
	case days <= 180:
		return 40
	default:
		return 20
	}
}

func fieldsIntersect(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(strings.TrimSpace(x), strings.TrimSpace(y)) {
				return true
			}
		}
	}
	return false
}

func stateMatches(state string, states []string) bool {
	for _, s := range states {
		if strings.EqualFold(strings.TrimSpace(state), strings.TrimSpace(s)) {
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
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
