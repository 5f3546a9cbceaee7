package validatesubscription

type Input struct {
	StudentID string `json:"studentId"`
	Feature   string `json:"feature,omitempty"`
}

// Output reports the plan the student is on and the features it unlocks.
type Output struct {
	IsValid   bool     `json:"isValid"`
	TierLevel string   `json:"tierLevel"`
	Features  []string `json:"features,omitempty"`
}

// Subscription is a row from student_subscriptions.
type Subscription struct {
	StudentID string `json:"studentId"`
	Tier      string `json:"tier"`
	ExpiresAt string `json:"expiresAt"`
	IsValid   bool   `json:"isValid"`
}
