package domain

// Role names carried in tokens and on user records.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
