package domain

import "time"

// PushEndpoint is one browser push subscription. The endpoint URL is unique
// across all users; EndpointID is derived from it.
type PushEndpoint struct {
	EndpointID string    `json:"id" dynamodbav:"endpoint_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Endpoint   string    `json:"endpoint" dynamodbav:"endpoint"`
	Keys       PushKeys  `json:"keys" dynamodbav:"keys"`
	UserAgent  string    `json:"user_agent,omitempty" dynamodbav:"user_agent,omitempty"`
	DeviceInfo string    `json:"device_info,omitempty" dynamodbav:"device_info,omitempty"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

type PushKeys struct {
	P256dh string `json:"p256dh" dynamodbav:"p256dh" validate:"required"`
	Auth   string `json:"auth" dynamodbav:"auth" validate:"required"`
}

type PushSubscription struct {
	Endpoint string   `json:"endpoint" validate:"required,url"`
	Keys     PushKeys `json:"keys" validate:"required"`
}

type SubscribeRequest struct {
	Subscription PushSubscription `json:"subscription" validate:"required"`
	UserAgent    string           `json:"userAgent" validate:"max=512"`
	DeviceInfo   string           `json:"deviceInfo" validate:"max=128"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// PushPayload is the JSON body encrypted into each web-push message.
type PushPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon,omitempty"`
	Badge string         `json:"badge,omitempty"`
	Tag   string         `json:"tag,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// PushResult counts settled push attempts.
type PushResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Pruned int `json:"pruned"`
}

func (r *PushResult) Add(o PushResult) {
	r.Sent += o.Sent
	r.Failed += o.Failed
	r.Pruned += o.Pruned
}

const (
	pushIcon  = "/logo.png"
	pushBadge = "/badge.png"
)

// NewPushPayload builds a payload with the default icon and badge.
func NewPushPayload(title, body, tag string, data map[string]any) PushPayload {
	return PushPayload{
		Title: title,
		Body:  body,
		Icon:  pushIcon,
		Badge: pushBadge,
		Tag:   tag,
		Data:  data,
	}
}
