package scoreessayquality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	commonerrors "scholarship-workers/internal/common/errors"
	"scholarship-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-essay-quality"
)

var (
	ErrEssayTooShort = errors.New("ESSAY_TOO_SHORT")
)

// Essays below this length cannot be scored meaningfully.
const minScorableWords = 50

// Default target length when the prompt does not specify one.
const defaultTargetWords = 600

var stopWords = map[string]bool{
	"the": true, "and": true, "that": true, "this": true, "with": true,
	"from": true, "your": true, "have": true, "what": true, "about": true,
	"which": true, "their": true, "would": true, "there": true, "been": true,
	"were": true, "when": true, "will": true, "how": true, "why": true,
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
	if errors.Is(err, ErrEssayTooShort) {
		return commonerrors.NewEssayTooShortError(err.Error())
	}
	return commonerrors.NewEssayScoringFailedError(err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	text := strings.TrimSpace(input.EssayText)
	words := strings.Fields(text)
	wordCount := len(words)

	if wordCount < minScorableWords {
		return nil, fmt.Errorf("%w: essay has %d words, minimum is %d",
			ErrEssayTooShort, wordCount, minScorableWords)
	}

	lengthFit := lengthFitScore(wordCount, input.TargetWordCount)
	structure := structureScore(text)
	vocabulary := vocabularyScore(words)
	alignment := promptAlignmentScore(input.Prompt, text)

	// Weighted: length(25%) + structure(25%) + vocabulary(20%) + alignment(30%)
	finalScore := int(
		float64(lengthFit)*0.25 +
			float64(structure)*0.25 +
			float64(vocabulary)*0.20 +
			float64(alignment)*0.30)

	level := classifyQualityLevel(finalScore)

	breakdown := ScoreBreakdown{
		LengthFit:       lengthFit,
		Structure:       structure,
		Vocabulary:      vocabulary,
		PromptAlignment: alignment,
	}

	h.logger.Info("essay quality scored", map[string]interface{}{
		"studentId": input.StudentID,
		"wordCount": wordCount,
		"score":     finalScore,
		"level":     level,
		"breakdown": breakdown,
	})

	return &Output{
		QualityScore:   finalScore,
		QualityLevel:   level,
		WordCount:      wordCount,
		ScoreBreakdown: breakdown,
	}, nil
}

func lengthFitScore(wordCount, target int) int {
	if target <= 0 {
		target = defaultTargetWords
	}
	ratio := float64(wordCount) / float64(target)
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return 100
	case ratio >= 0.6 && ratio <= 1.4:
		return 70
	case ratio >= 0.4 && ratio <= 1.6:
		return 40
	default:
		return 10
	}
}

func structureScore(text string) int {
	paragraphs := splitParagraphs(text)
	score := 0

	// Paragraph organization (max 40)
	switch n := len(paragraphs); {
	case n >= 3 && n <= 7:
		score += 40
	case n == 2 || n == 8:
		score += 25
	default:
		score += 10
	}

	// Sentence rhythm (max 30)
	sentences := splitSentences(text)
	if len(sentences) > 0 {
		totalWords := 0
		for _, s := range sentences {
			totalWords += len(strings.Fields(s))
		}
		avg := float64(totalWords) / float64(len(sentences))
		switch {
		case avg >= 12 && avg <= 25:
			score += 30
		case avg >= 8 && avg <= 30:
			score += 20
		default:
			score += 10
		}
	}

	// Substantive opening and closing paragraphs (max 30)
	if len(paragraphs) >= 3 {
		first := splitSentences(paragraphs[0])
		last := splitSentences(paragraphs[len(paragraphs)-1])
		if len(first) >= 2 && len(last) >= 2 {
			score += 30
		} else {
			score += 15
		}
	}

	return clamp(score, 0, 100)
}

// vocabularyScore uses the type-token ratio as a richness proxy. A
// ratio of 0.6 or above earns full marks.
func vocabularyScore(words []string) int {
	if len(words) == 0 {
		return 0
	}
	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[normalizeWord(w)] = true
	}
	ratio := float64(len(unique)) / float64(len(words))
	return clamp(int(ratio/0.6*100), 0, 100)
}

func promptAlignmentScore(prompt, text string) int {
	significant := []string{}
	for _, w := range strings.Fields(strings.ToLower(prompt)) {
		w = normalizeWord(w)
		if len(w) > 3 && !stopWords[w] {
			significant = append(significant, w)
		}
	}
	if len(significant) == 0 {
		return 50
	}

	essayWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		essayWords[normalizeWord(w)] = true
	}

	matched := 0
	for _, w := range significant {
		if essayWords[w] {
			matched++
		}
	}

	coverage := float64(matched) / float64(len(significant))
	if coverage >= 0.6 {
		return 100
	}
	return int(coverage / 0.6 * 100)
}

func classifyQualityLevel(score int) string {
	switch {
	case score >= 85:
		return LevelExcellent
	case score >= 70:
		return LevelStrong
	case score >= 50:
		return LevelDeveloping
	default:
		return LevelNeedsWork
	}
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(current.String())
			if len(strings.Fields(s)) > 0 {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	tail := strings.TrimSpace(current.String())
	if len(strings.Fields(tail)) > 0 {
		sentences = append(sentences, tail)
	}
	return sentences
}

func normalizeWord(w string) string {
	return strings.Trim(strings.ToLower(w), ".,;:!?\"'()[]")
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
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
