package id

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

var derivedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://akvora.com/ids"))

// Derived returns a stable name-based UUID for parts, so the same tuple
// always maps to the same key.
func Derived(parts ...string) string {
	return uuid.NewSHA1(derivedNamespace, []byte(strings.Join(parts, "/"))).String()
}
