package scoreessayquality

type Input struct {
	StudentID       string `json:"studentId,omitempty"`
	Prompt          string `json:"prompt"`
	EssayText       string `json:"essayText"`
	TargetWordCount int    `json:"targetWordCount,omitempty"`
}

type Output struct {
	QualityScore   int            `json:"qualityScore"`
	QualityLevel   string         `json:"qualityLevel"`
	WordCount      int            `json:"wordCount"`
	ScoreBreakdown ScoreBreakdown `json:"scoreBreakdown"`
}

type ScoreBreakdown struct {
	LengthFit       int `json:"lengthFit"`
	Structure       int `json:"structure"`
	Vocabulary      int `json:"vocabulary"`
	PromptAlignment int `json:"promptAlignment"`
}

// Quality levels
const (
	LevelExcellent  = "excellent"
	LevelStrong     = "strong"
	LevelDeveloping = "developing"
	LevelNeedsWork  = "needs_work"
)
