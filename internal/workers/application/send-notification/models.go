package sendnotification

type Input struct {
	RecipientID      string                 `json:"recipientId"`
	RecipientType    string                 `json:"recipientType"` // "student", "counselor", or "parent"
	NotificationType string                 `json:"notificationType"`
	ApplicationID    string                 `json:"applicationId,omitempty"`
	ScholarshipID    string                 `json:"scholarshipId,omitempty"`
	Priority         string                 `json:"priority,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeApplicationSubmitted   = "application_submitted"
	TypeDeadlineReminder       = "deadline_reminder"
	TypeRecommendationReceived = "recommendation_received"
	TypeMatchFound             = "match_found"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Recipient types
const (
	RecipientTypeStudent   = "student"
	RecipientTypeCounselor = "counselor"
	RecipientTypeParent    = "parent"
)
