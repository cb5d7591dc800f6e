package device

import "strings"

// Device classes recorded on push subscriptions.
const (
	ClassMobile  = "mobile"
	ClassTablet  = "tablet"
	ClassDesktop = "desktop"
	ClassUnknown = "unknown"
)

// Classify derives a coarse device class from a browser user agent.
func Classify(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case ua == "":
		return ClassUnknown
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		return ClassTablet
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android"):
		return ClassMobile
	default:
		return ClassDesktop
	}
}
