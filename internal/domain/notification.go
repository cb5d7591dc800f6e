package domain

import "time"

// NotificationKind classifies a notification for the client UI.
type NotificationKind string

const (
	KindAnnouncement NotificationKind = "announcement"
	KindRegistration NotificationKind = "registration"
	KindApproval     NotificationKind = "approval"
	KindRejection    NotificationKind = "rejection"
	KindWebinar      NotificationKind = "webinar"
	KindWorkshop     NotificationKind = "workshop"
	KindInternship   NotificationKind = "internship"
)

func (k NotificationKind) Valid() bool {
	switch k {
	case KindAnnouncement, KindRegistration, KindApproval, KindRejection,
		KindWebinar, KindWorkshop, KindInternship:
		return true
	}
	return false
}

// Notification is one durable per-recipient record. The only mutation after
// creation is IsRead going from false to true.
type Notification struct {
	NotificationID string           `json:"id" dynamodbav:"notification_id"`
	UserID         string           `json:"user_id" dynamodbav:"user_id"`
	Kind           NotificationKind `json:"type" dynamodbav:"kind"`
	Title          string           `json:"title" dynamodbav:"title"`
	Message        string           `json:"message" dynamodbav:"message"`
	Link           string           `json:"link,omitempty" dynamodbav:"link,omitempty"`
	IsRead         bool             `json:"is_read" dynamodbav:"is_read"`
	AnnouncementID string           `json:"announcement_id,omitempty" dynamodbav:"announcement_id,omitempty"`
	RegistrationID string           `json:"registration_id,omitempty" dynamodbav:"registration_id,omitempty"`
	Metadata       map[string]any   `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	ExpiresAt      int64            `json:"expires_at,omitempty" dynamodbav:"expires_at,omitempty"` // TTL (Unix seconds)
	CreatedAt      time.Time        `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether the record's expiry has passed at now.
// Records without an expiry never expire.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt > 0 && now.Unix() >= n.ExpiresAt
}

// NotificationQuery selects a window of one recipient's live records,
// newest first. Cursor is the opaque value returned with the previous window.
type NotificationQuery struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Cursor     string
	Now        time.Time
}

// NotificationPage is one page of a recipient's notifications, newest first.
type NotificationPage struct {
	Items       []Notification `json:"notifications"`
	Total       int            `json:"total"`
	Page        int            `json:"current_page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	UnreadCount int            `json:"unread_count"`
	NextCursor  string         `json:"next_cursor,omitempty"`
}
