// internal/models/application.go
package models

type Application struct {
	ID                 string                 `json:"id"`
	StudentID          string                 `json:"studentId"`
	ScholarshipID      string                 `json:"scholarshipId"`
	ApplicationData    map[string]interface{} `json:"applicationData"`
	SuccessProbability int                    `json:"successProbability"`
	PriorityTier       string                 `json:"priorityTier"`
	Status             string                 `json:"status"`
	CreatedAt          string                 `json:"createdAt"`
	UpdatedAt          string                 `json:"updatedAt"`
}

type ApplicationData struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	AcademicInfo AcademicInfo `json:"academicInfo"`
	Essays       []Essay      `json:"essays,omitempty"`
}

type PersonalInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	State   string `json:"state,omitempty"`
}

type AcademicInfo struct {
	School     string  `json:"school"`
	GradeLevel string  `json:"gradeLevel,omitempty"`
	GPA        float64 `json:"gpa"`
	GPAScale   float64 `json:"gpaScale,omitempty"`
	Major      string  `json:"major,omitempty"`
	GradYear   int     `json:"gradYear,omitempty"`
}

type Essay struct {
	Prompt    string `json:"prompt"`
	Text      string `json:"text"`
	WordCount int    `json:"wordCount,omitempty"`
}

type Recommendation struct {
	ID               string `json:"id"`
	ApplicationID    string `json:"applicationId"`
	RecommenderName  string `json:"recommenderName"`
	RecommenderEmail string `json:"recommenderEmail"`
	Token            string `json:"token"`
	Status           string `json:"status"` // "requested", "submitted", "declined"
	RequestedAt      string `json:"requestedAt"`
}
