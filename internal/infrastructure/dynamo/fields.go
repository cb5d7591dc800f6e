package dynamo

// DynamoDB attribute names used in expressions across all repos.
const (
	fieldCurrentCount   = "current_count"
	fieldUserID         = "user_id"
	fieldIsRead         = "is_read"
	fieldAnnouncementID = "announcement_id"
	fieldStatus         = "status"
	fieldExpiresAt      = "expires_at"
	fieldExternalID     = "external_id"
	fieldAkvoraID       = "akvora_id"
	fieldRegisteredYear = "registered_year"
	fieldUpdatedAt      = "updated_at"
	fieldAttempts       = "attempts"
	fieldType           = "type"
	fieldParticipants   = "current_participants"
	fieldMaxSeats       = "max_participants"
)

// Global secondary index names.
const (
	indexUserCreated     = "user_id-created_at-index"
	indexAnnouncement    = "announcement_id-index"
	indexUser            = "user_id-index"
	indexEmail           = "email-index"
	indexAkvoraID        = "akvora_id-index"
	indexStatusExpiresAt = "status-expires_at-index"
	indexEvent           = "event_id-index"
	indexTypeDate        = "type-date-index"
)
