// internal/models/subscription.go
package models

type StudentSubscription struct {
	StudentID        string `json:"studentId"`
	SubscriptionTier string `json:"subscriptionTier"`
	IsValid          bool   `json:"isValid"`
	ExpiresAt        string `json:"expiresAt,omitempty"`
}
