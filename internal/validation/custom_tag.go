package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var roomNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func init() {
	MustRegisterGin("roomname", ValidateRoomName)
	MustRegisterGinAlias("langcode", "bcp47_language_tag")
}

// ValidateRoomName validates room name format: 1-64 characters, alphanumeric with hyphens and underscores
func ValidateRoomName(fl validator.FieldLevel) bool {
	return roomNameRegex.MatchString(fl.Field().String())
}
