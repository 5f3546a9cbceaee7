// internal/models/scholarship.go
package models

type Scholarship struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Description      string               `json:"description"`
	Provider         string               `json:"provider,omitempty"`
	AmountMin        int                  `json:"amountMin"`
	AmountMax        int                  `json:"amountMax"`
	FieldsOfStudy    []string             `json:"fieldsOfStudy,omitempty"`
	Deadline         string               `json:"deadline,omitempty"` // RFC3339
	Competitiveness  string               `json:"competitiveness,omitempty"`
	Criteria         *EligibilityCriteria `json:"criteria,omitempty"`
	ApplicationCount int                  `json:"applicationCount"`
	ViewCount        int                  `json:"viewCount"`
	CreatedAt        string               `json:"createdAt,omitempty"`
	UpdatedAt        string               `json:"updatedAt,omitempty"`
}

// EligibilityCriteria groups a scholarship's hard requirements. A nil group
// or nil field places no constraint on applicants.
type EligibilityCriteria struct {
	Academic    *AcademicCriteria    `json:"academic,omitempty"`
	Demographic *DemographicCriteria `json:"demographic,omitempty"`
	Major       *MajorCriteria       `json:"major,omitempty"`
	Experience  *ExperienceCriteria  `json:"experience,omitempty"`
	Financial   *FinancialCriteria   `json:"financial,omitempty"`
	Special     *SpecialCriteria     `json:"special,omitempty"`
}

type AcademicCriteria struct {
	MinGPA              *float64 `json:"minGpa,omitempty"`
	MaxGPA              *float64 `json:"maxGpa,omitempty"`
	MinSATScore         *int     `json:"minSatScore,omitempty"`
	MinACTScore         *int     `json:"minActScore,omitempty"`
	TopClassRankPercent *float64 `json:"topClassRankPercent,omitempty"`
	GradeLevels         []string `json:"gradeLevels,omitempty"`
}

type DemographicCriteria struct {
	Genders         []string `json:"genders,omitempty"`
	Ethnicities     []string `json:"ethnicities,omitempty"`
	States          []string `json:"states,omitempty"`
	Citizenships    []string `json:"citizenships,omitempty"`
	MinAge          *int     `json:"minAge,omitempty"`
	MaxAge          *int     `json:"maxAge,omitempty"`
	FirstGeneration *bool    `json:"firstGeneration,omitempty"`
}

type MajorCriteria struct {
	Majors             []string `json:"majors,omitempty"`
	FieldsOfStudy      []string `json:"fieldsOfStudy,omitempty"`
	CareerGoalKeywords []string `json:"careerGoalKeywords,omitempty"`
}

type ExperienceCriteria struct {
	MinVolunteerHours      *int     `json:"minVolunteerHours,omitempty"`
	RequiresLeadership     *bool    `json:"requiresLeadership,omitempty"`
	MinWorkExperienceYears *int     `json:"minWorkExperienceYears,omitempty"`
	Activities             []string `json:"activities,omitempty"`
}

type FinancialCriteria struct {
	MaxHouseholdIncome    *float64 `json:"maxHouseholdIncome,omitempty"`
	RequiresFinancialNeed *bool    `json:"requiresFinancialNeed,omitempty"`
	RequiresFAFSA         *bool    `json:"requiresFafsa,omitempty"`
}

type SpecialCriteria struct {
	RequiresDisability   *bool    `json:"requiresDisability,omitempty"`
	MilitaryAffiliations []string `json:"militaryAffiliations,omitempty"`
	Affiliations         []string `json:"affiliations,omitempty"`
}

type ScholarshipDeadline struct {
	ScholarshipID string `json:"scholarshipId"`
	Name          string `json:"name"`
	Deadline      string `json:"deadline"`
	DaysRemaining int    `json:"daysRemaining"`
}
