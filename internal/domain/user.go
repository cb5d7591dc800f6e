package domain

import "time"

// User is a registrant or an admin. Registrants are keyed by the identity
// provider subject; admins get a generated id and a password hash.
type User struct {
	UserID           string    `json:"id" dynamodbav:"user_id"`
	AkvoraID         string    `json:"akvora_id,omitempty" dynamodbav:"akvora_id,omitempty"`
	RegisteredYear   int       `json:"registered_year,omitempty" dynamodbav:"registered_year,omitempty"`
	ExternalID       string    `json:"-" dynamodbav:"external_id,omitempty"`
	Email            string    `json:"email" dynamodbav:"email,omitempty"`
	FirstName        string    `json:"first_name" dynamodbav:"first_name"`
	LastName         string    `json:"last_name" dynamodbav:"last_name"`
	Phone            string    `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	CertificateName  string    `json:"certificate_name,omitempty" dynamodbav:"certificate_name,omitempty"`
	AvatarURL        string    `json:"avatar_url,omitempty" dynamodbav:"avatar_url,omitempty"`
	EmailVerified    bool      `json:"email_verified" dynamodbav:"email_verified"`
	ProfileCompleted bool      `json:"profile_completed" dynamodbav:"profile_completed"`
	IsBlocked        bool      `json:"is_blocked" dynamodbav:"is_blocked"`
	IsDeleted        bool      `json:"is_deleted" dynamodbav:"is_deleted"`
	Role             string    `json:"role" dynamodbav:"role"`
	PasswordHash     string    `json:"-" dynamodbav:"password_hash,omitempty"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Linked reports whether the user signed in through the identity provider.
func (u *User) Linked() bool { return u.ExternalID != "" }

// Active reports whether the user may use authenticated endpoints.
func (u *User) Active() bool { return !u.IsBlocked && !u.IsDeleted }

// Identity is the verified subset of an identity provider token.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
	Picture       string
}

type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName        *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone           *string `json:"phone" validate:"omitempty,min=7,max=20"`
	CertificateName *string `json:"certificate_name" validate:"omitempty,max=150"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
