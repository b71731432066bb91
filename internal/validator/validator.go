package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidPin         = errors.New("pin must be 4 digits")
	ErrInvalidDisplayName = errors.New("invalid display name")
	ErrInvalidEmail       = errors.New("invalid email")
)

var (
	// Leading optional +, then 8-15 digits.
	phoneRegex = regexp.MustCompile(`^\+?\d{8,15}$`)
	pinRegex   = regexp.MustCompile(`^\d{4}$`)
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

func ValidatePin(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ErrInvalidPin
	}
	return nil
}

func ValidateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || len(trimmed) > 60 {
		return ErrInvalidDisplayName
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}
