package scoreessayquality

import (
	"context"
	"strings"
	"testing"

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

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), &testLogger{t: t})
}

// A structurally sound essay: five paragraphs, multi-sentence intro and
// conclusion, varied vocabulary, and prompt keywords in the body.
func wellFormedEssay() string {
	paragraphs := []string{
		"Growing up in a small rural town shaped every ambition I carry today. My family ran a struggling farm, and every season brought a new challenge that demanded resilience.",
		"During my sophomore year, a drought nearly destroyed our harvest and threatened everything my parents had built over two decades. I watched them adapt, borrow equipment, and negotiate with neighbors until the farm survived another winter season.",
		"That experience taught me how to approach an obstacle with patience rather than panic. When our school cancelled its science program for budget reasons, I organized a community fundraiser and recruited volunteer mentors from a nearby university campus.",
		"The program we rebuilt now serves ninety students each semester, and several have gone on to study engineering. Leading that effort convinced me that persistence matters more than circumstance.",
		"I overcame the limits of my environment by refusing to accept them as permanent. This scholarship would let me continue building programs that help other students discover the same truth about themselves.",
	}
	return strings.Join(paragraphs, "\n\n")
}

func TestHandler_Execute_WellFormedEssay(t *testing.T) {
	handler := newTestHandler(t)

	essay := wellFormedEssay()
	wordCount := len(strings.Fields(essay))

	output, err := handler.Execute(context.Background(), &Input{
		StudentID:       "student-1",
		Prompt:          "Describe a challenge you overcame",
		EssayText:       essay,
		TargetWordCount: wordCount,
	})

	require.NoError(t, err)
	assert.Equal(t, wordCount, output.WordCount)
	assert.Equal(t, 100, output.ScoreBreakdown.LengthFit)
	assert.Equal(t, 100, output.ScoreBreakdown.Structure)
	assert.Equal(t, 100, output.ScoreBreakdown.PromptAlignment)
	assert.GreaterOrEqual(t, output.ScoreBreakdown.Vocabulary, 70)
	assert.GreaterOrEqual(t, output.QualityScore, 85)
	assert.Equal(t, LevelExcellent, output.QualityLevel)
}

func TestHandler_Execute_TooShort(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		Prompt:    "Describe a challenge you overcame",
		EssayText: "I worked hard and overcame many challenges in my life.",
	})
	assert.ErrorIs(t, err, ErrEssayTooShort)
}

func TestHandler_Execute_RepetitiveEssayScoresLowVocabulary(t *testing.T) {
	handler := newTestHandler(t)

	essay := strings.TrimSpace(strings.Repeat("very good work ", 100))

	output, err := handler.Execute(context.Background(), &Input{
		Prompt:    "Describe a challenge you overcame",
		EssayText: essay,
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, output.ScoreBreakdown.Vocabulary, 5)
	assert.Equal(t, 0, output.ScoreBreakdown.PromptAlignment)
	assert.Equal(t, LevelNeedsWork, output.QualityLevel)
}

func TestLengthFitScore(t *testing.T) {
	tests := []struct {
		name     string
		words    int
		target   int
		expected int
	}{
		{"exact target", 600, 600, 100},
		{"within 20 percent", 700, 600, 100},
		{"within 40 percent", 400, 600, 70},
		{"half the target", 300, 600, 40},
		{"far too short", 100, 600, 10},
		{"far too long", 1500, 600, 10},
		{"default target used", 600, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lengthFitScore(tt.words, tt.target))
		})
	}
}

func TestClassifyQualityLevel(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{92, LevelExcellent},
		{85, LevelExcellent},
		{84, LevelStrong},
		{70, LevelStrong},
		{69, LevelDeveloping},
		{50, LevelDeveloping},
		{49, LevelNeedsWork},
		{0, LevelNeedsWork},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, classifyQualityLevel(tt.score))
	}
}

func TestPromptAlignmentScore(t *testing.T) {
	t.Run("full coverage", func(t *testing.T) {
		score := promptAlignmentScore(
			"Describe a challenge you overcame",
			"The biggest challenge I faced was one I overcame slowly. Let me describe it.",
		)
		assert.Equal(t, 100, score)
	})

	t.Run("no coverage", func(t *testing.T) {
		score := promptAlignmentScore(
			"Describe a challenge you overcame",
			"My favorite subject is mathematics and I enjoy solving equations daily.",
		)
		assert.Equal(t, 0, score)
	})

	t.Run("empty prompt is neutral", func(t *testing.T) {
		assert.Equal(t, 50, promptAlignmentScore("", "Any essay text at all."))
	})
}

func TestVocabularyScore(t *testing.T) {
	t.Run("all unique words", func(t *testing.T) {
		words := strings.Fields("alpha beta gamma delta epsilon zeta")
		assert.Equal(t, 100, vocabularyScore(words))
	})

	t.Run("heavy repetition", func(t *testing.T) {
		words := strings.Fields(strings.TrimSpace(strings.Repeat("same ", 20)))
		assert.Equal(t, 8, vocabularyScore(words))
	})
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("First sentence. Second one! Third? Trailing fragment")
	assert.Len(t, sentences, 4)
}
