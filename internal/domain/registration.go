package domain

import "time"

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Registration is a user's sign-up for a webinar, workshop or internship.
type Registration struct {
	RegistrationID string             `json:"id" dynamodbav:"registration_id"`
	UserID         string             `json:"user_id" dynamodbav:"user_id"`
	AkvoraID       string             `json:"akvora_id,omitempty" dynamodbav:"akvora_id,omitempty"`
	EventID        string             `json:"event_id" dynamodbav:"event_id"`
	EventType      NotificationKind   `json:"event_type" dynamodbav:"event_type"`
	EventTitle     string             `json:"event_title" dynamodbav:"event_title"`
	Status         RegistrationStatus `json:"status" dynamodbav:"status"`
	Note           string             `json:"note,omitempty" dynamodbav:"note,omitempty"`
	CreatedAt      time.Time          `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time          `json:"updated" dynamodbav:"updated_at"`
}

// CreateRegistrationRequest names the event to sign up for; its type and
// title are resolved server-side.
type CreateRegistrationRequest struct {
	EventID string `json:"event_id" validate:"required,max=128"`
}

type UpdateRegistrationStatusRequest struct {
	Status RegistrationStatus `json:"status" validate:"required,oneof=approved rejected"`
	Note   string             `json:"note" validate:"max=1000"`
}
