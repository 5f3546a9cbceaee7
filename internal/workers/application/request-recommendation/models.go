package requestrecommendation

type Input struct {
	ApplicationID    string `json:"applicationId"`
	StudentID        string `json:"studentId"`
	StudentName      string `json:"studentName"`
	ScholarshipName  string `json:"scholarshipName"`
	RecommenderName  string `json:"recommenderName"`
	RecommenderEmail string `json:"recommenderEmail"`
	Message          string `json:"message,omitempty"`
}

type Output struct {
	RecommendationID string `json:"recommendationId"`
	Status           string `json:"status"`
	RequestedAt      string `json:"requestedAt"` // ISO 8601
}

// Recommendation statuses
const (
	StatusRequested = "requested"
	StatusReceived  = "received"
	StatusDeclined  = "declined"
)
