// Package validate holds the request validation rules shared by the
// HTTP handlers. The account rules are registered as custom validator
// tags (gmail, phone10, userpw) so they work both through the helpers
// and inside `validate:"..."` struct tags on request bodies.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	gmailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@gmail\.com$`)
	phoneRe = regexp.MustCompile(`^\d{10}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	rules := map[string]validator.Func{
		"gmail": func(fl validator.FieldLevel) bool {
			return gmailRe.MatchString(fl.Field().String())
		},
		"phone10": func(fl validator.FieldLevel) bool {
			return phoneRe.MatchString(fl.Field().String())
		},
		"userpw": func(fl validator.FieldLevel) bool {
			return strongPassword(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

// Struct runs the validator tags on a request struct.
func Struct(v any) error {
	return validate.Struct(v)
}

// Gmail accepts only @gmail.com addresses.
func Gmail(email string) bool {
	return validate.Var(email, "gmail") == nil
}

// Phone accepts exactly ten digits.
func Phone(phone string) bool {
	return validate.Var(phone, "phone10") == nil
}

// Password requires at least six characters with at least one letter,
// one digit, and one special character.
func Password(password string) bool {
	return validate.Var(password, "userpw") == nil
}

func strongPassword(password string) bool {
	if len(password) < 6 {
		return false
	}
	var hasLetter, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsLetter(c):
			hasLetter = true
		case unicode.IsDigit(c):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}

// Image reports whether the content type is any image type.
func Image(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// Video reports whether the content type is any video type.
func Video(contentType string) bool {
	return strings.HasPrefix(contentType, "video/")
}
