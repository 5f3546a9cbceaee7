package verifysession

type Input struct {
	SessionToken string `json:"sessionToken"`
}

type Output struct {
	Active    bool   `json:"active"`
	StudentID string `json:"studentId,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	ExpiresAt int64  `json:"expiresAt,omitempty"` // unix seconds
}
