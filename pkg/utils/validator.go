package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlRegex = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// Input limits for free-text fields
const (
	MaxCompanyNameLength = 120
	MaxJobDetailsLength  = 8000
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateCompanyName checks the length of a company name
func ValidateCompanyName(name string) error {
	if utf8.RuneCountInString(name) > MaxCompanyNameLength {
		return fmt.Errorf("company name exceeds %d characters", MaxCompanyNameLength)
	}
	return nil
}

// ValidateJobDetails checks the length of a job description
func ValidateJobDetails(details string) error {
	if utf8.RuneCountInString(details) > MaxJobDetailsLength {
		return fmt.Errorf("job details exceed %d characters", MaxJobDetailsLength)
	}
	return nil
}

// SanitizeString removes control characters other than tab and newlines
// and trims surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlRegex.ReplaceAllString(s, ""))
}
