package validateapplicationdata

import "regexp"

type Input struct {
	ApplicationData map[string]interface{} `json:"applicationData"`
	ScholarshipID   string                 `json:"scholarshipId"`
}

type Output struct {
	IsValid          bool                   `json:"isValid"`
	ValidatedData    map[string]interface{} `json:"validatedData"`
	ValidationErrors []ValidationError      `json:"validationErrors"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	// E.164: optional +, must start with 1-9, 7-15 digits total
	phoneRegex = regexp.MustCompile(`^[\+]?[1-9][\d]{6,14}$`)
	nameRegex  = regexp.MustCompile(`^[a-zA-Z\s\-\']{2,100}$`)
)

// Word-count bounds applied to every essay in the application.
const (
	minEssayWords = 100
	maxEssayWords = 1500
)

// GPA scales accepted on academicInfo.
var validGPAScales = map[float64]bool{
	4.0: true, 5.0: true, 100.0: true,
}
