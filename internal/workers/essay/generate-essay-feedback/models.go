package generateessayfeedback

type Input struct {
	StudentID      string         `json:"studentId,omitempty"`
	Prompt         string         `json:"prompt"`
	EssayText      string         `json:"essayText"`
	QualityScore   int            `json:"qualityScore,omitempty"`
	ScoreBreakdown map[string]int `json:"scoreBreakdown,omitempty"`
}

type Output struct {
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
}
