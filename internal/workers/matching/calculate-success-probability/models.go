package calculatesuccessprobability

import "scholarship-workers/internal/models"

type Input struct {
	StudentID       string                 `json:"studentId"`
	ScholarshipData ScholarshipData        `json:"scholarshipData"`
	StudentProfile  *models.StudentProfile `json:"studentProfile,omitempty"`
}

type ScholarshipData struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	MinGPA          float64 `json:"minGpa,omitempty"`
	AmountMax       int     `json:"amountMax,omitempty"`
	Competitiveness string  `json:"competitiveness,omitempty"` // "low", "moderate", "high"
}

type Output struct {
	SuccessProbability int                `json:"successProbability"`
	Factors            ProbabilityFactors `json:"probabilityFactors"`
}

type ProbabilityFactors struct {
	AcademicMargin      int `json:"academicMargin"`
	ProfileCompleteness int `json:"profileCompleteness"`
	CompetitivenessFit  int `json:"competitivenessFit"`
	EssayReadiness      int `json:"essayReadiness"`
}
