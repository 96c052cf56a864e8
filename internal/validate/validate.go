// Package validate holds the input rules shared by services and HTTP binding.
package validate

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

const maxEmailLength = 254

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	strict       = bluemonday.StrictPolicy()
)

func Email(email string) error {
	if email == "" || len(email) > maxEmailLength || !emailPattern.MatchString(email) {
		return domain.NewValidationError("email", "invalid email address")
	}
	return nil
}

// AllowedDomain checks the e-mail host against an allow-list; an empty list allows all.
func AllowedDomain(email string, domains []string) error {
	if len(domains) == 0 {
		return nil
	}
	_, host, ok := strings.Cut(strings.ToLower(email), "@")
	if !ok {
		return domain.NewValidationError("email", "invalid email address")
	}
	for _, d := range domains {
		if host == strings.ToLower(d) {
			return nil
		}
	}
	return domain.NewValidationError("email", fmt.Sprintf("email domain must be one of: %s", strings.Join(domains, ", ")))
}

func Password(password string) error {
	if len(password) < 8 {
		return domain.NewValidationError("password", "password must be at least 8 characters long")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return domain.NewValidationError("password", "password must contain at least one uppercase letter")
	case !lower:
		return domain.NewValidationError("password", "password must contain at least one lowercase letter")
	case !digit:
		return domain.NewValidationError("password", "password must contain at least one digit")
	}
	return nil
}

// Length checks the trimmed rune length of value.
func Length(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n == 0 && min > 0 {
		return domain.NewValidationError(field, "is required")
	}
	if n < min {
		return domain.NewValidationError(field, fmt.Sprintf("must be at least %d characters", min))
	}
	if max > 0 && utf8.RuneCountInString(value) > max {
		return domain.NewValidationError(field, fmt.Sprintf("must not exceed %d characters", max))
	}
	return nil
}

func IntRange(field string, v, min, max int) error {
	if v < min {
		return domain.NewValidationError(field, fmt.Sprintf("must be at least %d", min))
	}
	if v > max {
		return domain.NewValidationError(field, fmt.Sprintf("must not exceed %d", max))
	}
	return nil
}

// Sanitize strips markup from user text and returns it as plain text.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// NormalizeEquipment splits on newlines and commas and re-joins with ", ".
func NormalizeEquipment(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ',' || r == '\r' })
	items := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			items = append(items, f)
		}
	}
	return strings.Join(items, ", ")
}

// Register adds the custom binding tags used by request structs.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("campusrole", func(fl validator.FieldLevel) bool {
		role := domain.Role(fl.Field().String())
		return role == domain.RoleStudent || role == domain.RoleStaff
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.ValidCategory(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}
