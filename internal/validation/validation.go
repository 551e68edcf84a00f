package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Allowed child age band, inclusive
const (
	MinChildAge = 5
	MaxChildAge = 17
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateDisplayName checks if a display name is valid
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "display_name", Message: "display name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "display_name", Message: "display name must be at least 2 characters"}
	}
	return nil
}

// ValidateChildBirthDate checks that a birth date puts the child inside the
// allowed age band (5-17 inclusive) at the given time
func ValidateChildBirthDate(birthDate, now time.Time) error {
	if birthDate.IsZero() {
		return ValidationError{Field: "birth_date", Message: "birth date is required"}
	}
	if birthDate.After(now) {
		return ValidationError{Field: "birth_date", Message: "birth date is in the future"}
	}

	age := ageInYears(birthDate, now)
	if age < MinChildAge || age > MaxChildAge {
		return ValidationError{
			Field:   "birth_date",
			Message: fmt.Sprintf("child age must be between %d and %d", MinChildAge, MaxChildAge),
		}
	}
	return nil
}

// ValidateQualityRating checks that a session quality rating is in bounds
func ValidateQualityRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ValidationError{Field: "quality_rating", Message: "quality rating must be between 1 and 5"}
	}
	return nil
}

func ageInYears(birthDate, now time.Time) int {
	years := now.Year() - birthDate.Year()
	if now.YearDay() < birthDate.YearDay() {
		years--
	}
	return years
}
