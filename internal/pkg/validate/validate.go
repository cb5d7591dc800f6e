package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/akvora-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New(validator.WithRequiredStructEnabled())

var youtubeEmbed = regexp.MustCompile(`^https://(www\.)?(youtube\.com|youtube-nocookie\.com)/embed/[a-zA-Z0-9_-]+(\?.*)?$`)

func init() {
	_ = v.RegisterValidation("youtube_embed", func(fl validator.FieldLevel) bool {
		return youtubeEmbed.MatchString(fl.Field().String())
	})
}

// Struct validates the given struct using its validate tags.
// Failures are wrapped with domain.ErrBadRequest.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrBadRequest)
	}
	return nil
}
