package utils

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	minNameLength     = 2

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

var phoneRegex = regexp.MustCompile(`^\+51\s?9\d{8}$`)

// Custom validation tags, usable in binding struct tags once registered.
const (
	TagPersonName = "personname"
	TagPassword   = "password"
	TagPhone      = "phone"
	TagNotBlank   = "notblank"
)

// RegisterValidators adds the storefront tags to v and reports fields by their JSON names.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]func(string) bool{
		TagPersonName: ValidatePersonName,
		TagPassword:   ValidatePassword,
		TagPhone:      ValidatePhone,
		TagNotBlank:   func(s string) bool { return strings.TrimSpace(s) != "" },
	}

	for tag, rule := range rules {
		rule := rule
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rule(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePersonName accepts letters and spaces, at least two characters after trimming.
func ValidatePersonName(name string) bool {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minNameLength {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' {
			return false
		}
	}
	return true
}

// ValidatePassword requires eight visible characters, one of them a digit,
// and at most MaxPasswordBytes bytes in total.
func ValidatePassword(password string) bool {
	if len(password) > MaxPasswordBytes {
		return false
	}
	visible := 0
	hasDigit := false
	for _, r := range password {
		if unicode.IsSpace(r) {
			continue
		}
		visible++
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	return visible >= minPasswordLength && hasDigit
}

// ValidatePhone accepts Peruvian mobile numbers, e.g. "+51 912345678".
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomainAllowed reports whether the email domain is in allowed. An empty list allows all.
func EmailDomainAllowed(email string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, d := range allowed {
		if strings.EqualFold(strings.TrimSpace(d), domain) {
			return true
		}
	}
	return false
}
