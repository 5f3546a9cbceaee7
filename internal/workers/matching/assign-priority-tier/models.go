package assignprioritytier

type Input struct {
	StudentID          string `json:"studentId"`
	ScholarshipID      string `json:"scholarshipId"`
	SuccessProbability int    `json:"successProbability"`
	Deadline           string `json:"deadline,omitempty"` // RFC3339, overrides the stored deadline
}

type Output struct {
	PriorityTier   string `json:"priorityTier"`
	DaysToDeadline int    `json:"daysToDeadline"`
	Reason         string `json:"reason"`
}

const (
	TierMustApply   = "MUST_APPLY"
	TierShouldApply = "SHOULD_APPLY"
	TierConsider    = "CONSIDER"
	TierSkip        = "SKIP"
)
