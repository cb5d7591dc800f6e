package domain

import "time"

// Video is a YouTube recording listed on the public site.
type Video struct {
	VideoID   string    `json:"id" dynamodbav:"video_id"`
	Title     string    `json:"title" dynamodbav:"title"`
	EmbedURL  string    `json:"embed_url" dynamodbav:"embed_url"`
	CreatedBy string    `json:"created_by" dynamodbav:"created_by"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateVideoRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	EmbedURL string `json:"embed_url" validate:"required,youtube_embed"`
}

type UpdateVideoRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	EmbedURL *string `json:"embed_url" validate:"omitempty,youtube_embed"`
}
