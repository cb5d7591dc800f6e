package domain

import "fmt"

// AkvoraCounter is the name of the counter backing registrant identifiers.
const AkvoraCounter = "akvoraId"

// SequenceCounter is a named, monotonically increasing counter.
type SequenceCounter struct {
	Name         string `json:"name" dynamodbav:"name"`
	CurrentCount int64  `json:"current_count" dynamodbav:"current_count"`
}

// IssuedIdentifier is a formatted registrant id plus its parts.
type IssuedIdentifier struct {
	Identifier string `json:"akvora_id"`
	Year       int    `json:"year"`
	Sequence   int64  `json:"sequence"`
}

// FormatAkvoraID renders AKVORA:<year>:<seq> with seq zero-padded to at least three digits.
func FormatAkvoraID(year int, seq int64) string {
	return fmt.Sprintf("AKVORA:%d:%03d", year, seq)
}
