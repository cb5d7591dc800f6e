package domain

import "time"

// Certificate is an issued certificate file stored in object storage.
type Certificate struct {
	CertificateID string    `json:"id" dynamodbav:"certificate_id"`
	UserID        string    `json:"user_id" dynamodbav:"user_id"`
	AkvoraID      string    `json:"akvora_id" dynamodbav:"akvora_id"`
	Title         string    `json:"title" dynamodbav:"title"`
	ObjectKey     string    `json:"-" dynamodbav:"object_key"`
	ContentType   string    `json:"content_type" dynamodbav:"content_type"`
	Size          int64     `json:"size" dynamodbav:"size"`
	IssuedBy      string    `json:"issued_by" dynamodbav:"issued_by"`
	URL           string    `json:"url,omitempty" dynamodbav:"-"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CheckUserRequest struct {
	AkvoraID string `json:"akvora_id" validate:"required"`
}

type UpdateCertificateRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}
