// internal/models/student.go
package models

type Student struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	PlanTier string `json:"planTier"`
}

// StudentProfile holds everything the matching pipeline knows about a
// student. Every field is optional: a nil pointer or empty slice means the
// student never provided the value, which fails any criterion that needs it.
type StudentProfile struct {
	StudentID string `json:"studentId"`

	// Academic
	GPA        *float64 `json:"gpa,omitempty"`
	GPAScale   *float64 `json:"gpaScale,omitempty"`
	SATScore   *int     `json:"satScore,omitempty"`
	ACTScore   *int     `json:"actScore,omitempty"`
	ClassRank  *int     `json:"classRank,omitempty"`
	ClassSize  *int     `json:"classSize,omitempty"`
	GradeLevel *string  `json:"gradeLevel,omitempty"`

	// Demographic
	Gender          *string  `json:"gender,omitempty"`
	Ethnicity       []string `json:"ethnicity,omitempty"`
	State           *string  `json:"state,omitempty"`
	Citizenship     *string  `json:"citizenship,omitempty"`
	Age             *int     `json:"age,omitempty"`
	FirstGeneration *bool    `json:"firstGeneration,omitempty"`

	// Major / field of study
	Major         *string  `json:"major,omitempty"`
	FieldsOfStudy []string `json:"fieldsOfStudy,omitempty"`
	CareerGoal    *string  `json:"careerGoal,omitempty"`

	// Experience
	VolunteerHours      *int     `json:"volunteerHours,omitempty"`
	HasLeadership       *bool    `json:"hasLeadership,omitempty"`
	WorkExperienceYears *int     `json:"workExperienceYears,omitempty"`
	Activities          []string `json:"activities,omitempty"`

	// Financial
	HouseholdIncome *float64 `json:"householdIncome,omitempty"`
	FinancialNeed   *bool    `json:"financialNeed,omitempty"`
	FAFSACompleted  *bool    `json:"fafsaCompleted,omitempty"`

	// Special circumstances
	HasDisability       *bool    `json:"hasDisability,omitempty"`
	MilitaryAffiliation *string  `json:"militaryAffiliation,omitempty"`
	Affiliations        []string `json:"affiliations,omitempty"`

	// Optional extras used by scoring
	EssayDraftCount   *int `json:"essayDraftCount,omitempty"`
	CompletedSections *int `json:"completedSections,omitempty"`
}
