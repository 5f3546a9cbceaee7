package filtereligibility

import (
	"scholarship-workers/internal/matching/eligibility"
	"scholarship-workers/internal/models"
)

// Input carries either a single scholarship or a batch. The profile may be
// inlined by the workflow or resolved from storage via studentId.
type Input struct {
	StudentID      string                 `json:"studentId"`
	StudentProfile *models.StudentProfile `json:"studentProfile,omitempty"`
	Scholarship    *models.Scholarship    `json:"scholarship,omitempty"`
	Scholarships   []models.Scholarship   `json:"scholarships,omitempty"`
	Exhaustive     bool                   `json:"exhaustive,omitempty"`
}

type Output struct {
	// Single-scholarship result
	Eligible       *bool                         `json:"eligible,omitempty"`
	FailedCriteria []eligibility.FailedCriterion `json:"failedCriteria,omitempty"`

	// Batch result
	EligibleScholarships []models.Scholarship `json:"eligibleScholarships,omitempty"`
	EligibleCount        int                  `json:"eligibleCount"`
	EvaluatedCount       int                  `json:"evaluatedCount"`
}
