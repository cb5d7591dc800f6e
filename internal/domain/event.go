package domain

import "time"

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Event is a webinar, workshop or internship run by an admin.
// CurrentParticipants counts approved registrations.
type Event struct {
	EventID             string           `json:"id" dynamodbav:"event_id"`
	Type                NotificationKind `json:"type" dynamodbav:"type"`
	Title               string           `json:"title" dynamodbav:"title"`
	Description         string           `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Date                time.Time        `json:"date" dynamodbav:"date"`
	Duration            string           `json:"duration,omitempty" dynamodbav:"duration,omitempty"`
	Location            string           `json:"location,omitempty" dynamodbav:"location,omitempty"`
	Instructor          string           `json:"instructor,omitempty" dynamodbav:"instructor,omitempty"`
	MaxParticipants     int              `json:"max_participants" dynamodbav:"max_participants"`
	CurrentParticipants int              `json:"current_participants" dynamodbav:"current_participants"`
	Status              EventStatus      `json:"status" dynamodbav:"status"`
	ImageKey            string           `json:"-" dynamodbav:"image_key,omitempty"`
	ImageURL            string           `json:"image_url,omitempty" dynamodbav:"-"`
	CreatedBy           string           `json:"created_by" dynamodbav:"created_by"`
	CreatedAt           time.Time        `json:"created" dynamodbav:"created_at"`
	UpdatedAt           time.Time        `json:"updated" dynamodbav:"updated_at"`
}

// OpenForRegistration reports whether new registrations are accepted.
func (e *Event) OpenForRegistration() bool {
	return e.Status == EventUpcoming || e.Status == EventOngoing
}

// Full reports whether a capped event has no seats left.
func (e *Event) Full() bool {
	return e.MaxParticipants > 0 && e.CurrentParticipants >= e.MaxParticipants
}

type CreateEventRequest struct {
	Type            NotificationKind `json:"type" validate:"required,oneof=webinar workshop internship"`
	Title           string           `json:"title" validate:"required,max=200"`
	Description     string           `json:"description" validate:"max=5000"`
	Date            time.Time        `json:"date" validate:"required"`
	Duration        string           `json:"duration" validate:"max=100"`
	Location        string           `json:"location" validate:"max=300"`
	Instructor      string           `json:"instructor" validate:"max=200"`
	MaxParticipants int              `json:"max_participants" validate:"min=0"`
	Status          EventStatus      `json:"status" validate:"omitempty,oneof=upcoming ongoing completed cancelled"`
}

type UpdateEventRequest struct {
	Type            *NotificationKind `json:"type" validate:"omitempty,oneof=webinar workshop internship"`
	Title           *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string           `json:"description" validate:"omitempty,max=5000"`
	Date            *time.Time        `json:"date"`
	Duration        *string           `json:"duration" validate:"omitempty,max=100"`
	Location        *string           `json:"location" validate:"omitempty,max=300"`
	Instructor      *string           `json:"instructor" validate:"omitempty,max=200"`
	MaxParticipants *int              `json:"max_participants" validate:"omitempty,min=0"`
	Status          *EventStatus      `json:"status" validate:"omitempty,oneof=upcoming ongoing completed cancelled"`
}

// EventFilter narrows an event listing. Empty fields match everything.
type EventFilter struct {
	Type   NotificationKind
	Status EventStatus
}

// EventTypeStats aggregates the events of one type.
type EventTypeStats struct {
	Type              NotificationKind `json:"type"`
	Count             int              `json:"count"`
	TotalParticipants int              `json:"total_participants"`
	Upcoming          int              `json:"upcoming"`
}

// EventStats is the admin dashboard summary.
type EventStats struct {
	TotalEvents       int              `json:"total_events"`
	TotalParticipants int              `json:"total_participants"`
	ByType            []EventTypeStats `json:"by_type"`
}
