package createapplicationrecord

type Input struct {
	StudentID          string                 `json:"studentId"`
	ScholarshipID      string                 `json:"scholarshipId"`
	ApplicationData    map[string]interface{} `json:"applicationData"`
	SuccessProbability int                    `json:"successProbability"`
	PriorityTier       string                 `json:"priorityTier"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	CreatedAt         string `json:"createdAt"` // ISO 8601
}
