package domain

import (
	"fmt"
	"time"
)

type AnnouncementStatus string

const (
	AnnouncementActive  AnnouncementStatus = "active"
	AnnouncementExpired AnnouncementStatus = "expired"
)

type DurationUnit string

const (
	UnitHours DurationUnit = "hours"
	UnitDays  DurationUnit = "days"
)

// Announcement is a time-bounded broadcast message created by an admin.
type Announcement struct {
	AnnouncementID string             `json:"id" dynamodbav:"announcement_id"`
	Title          string             `json:"title" dynamodbav:"title"`
	Message        string             `json:"message" dynamodbav:"message"`
	Link           string             `json:"link,omitempty" dynamodbav:"link,omitempty"`
	Status         AnnouncementStatus `json:"status" dynamodbav:"status"`
	CreatedBy      string             `json:"created_by" dynamodbav:"created_by"`
	DurationValue  int                `json:"duration_value" dynamodbav:"duration_value"`
	DurationUnit   DurationUnit       `json:"duration_unit" dynamodbav:"duration_unit"`
	ExpiresAt      time.Time          `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt      time.Time          `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time          `json:"updated" dynamodbav:"updated_at"`
}

// RefreshStatus flips an active announcement to expired once now is past
// its expiry. It reports whether the status changed.
func (a *Announcement) RefreshStatus(now time.Time) bool {
	if a.Status != AnnouncementExpired && now.After(a.ExpiresAt) {
		a.Status = AnnouncementExpired
		return true
	}
	return false
}

// ExpiryFrom returns start plus value units, truncated to whole seconds.
func ExpiryFrom(start time.Time, value int, unit DurationUnit) (time.Time, error) {
	if value < 1 {
		return time.Time{}, fmt.Errorf("duration must be positive: %w", ErrBadRequest)
	}
	var step time.Duration
	switch unit {
	case UnitHours:
		step = time.Hour
	case UnitDays:
		step = 24 * time.Hour
	default:
		return time.Time{}, fmt.Errorf("unknown duration unit %q: %w", unit, ErrBadRequest)
	}
	return start.Add(time.Duration(value) * step).UTC().Truncate(time.Second), nil
}

type CreateAnnouncementRequest struct {
	Title         string       `json:"title" validate:"required,max=200"`
	Message       string       `json:"message" validate:"required,max=5000"`
	Link          string       `json:"link" validate:"omitempty,max=2048"`
	DurationValue int          `json:"duration_value" validate:"required,min=1,max=8760"`
	DurationUnit  DurationUnit `json:"duration_unit" validate:"required,oneof=hours days"`
}

type UpdateAnnouncementRequest struct {
	Title         *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Message       *string       `json:"message" validate:"omitempty,min=1,max=5000"`
	Link          *string       `json:"link" validate:"omitempty,max=2048"`
	DurationValue *int          `json:"duration_value" validate:"omitempty,min=1,max=8760"`
	DurationUnit  *DurationUnit `json:"duration_unit" validate:"omitempty,oneof=hours days"`
}
