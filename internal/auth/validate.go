package auth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/docupilot/docupilot/internal/apperr"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidDocTypes lists the accepted document type values.
var ValidDocTypes = []string{"api", "architecture", "module", "guide", "tutorial", "reference", "other"}

// ValidateTitle checks and normalizes a document title.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if len(trimmed) < 3 {
		return "", fmt.Errorf("%w: title must be at least 3 characters long", apperr.ErrValidation)
	}
	if len(title) > 200 {
		return "", fmt.Errorf("%w: title must be less than 200 characters", apperr.ErrValidation)
	}
	return trimmed, nil
}

// ValidateContent checks and normalizes document content.
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < 10 {
		return "", fmt.Errorf("%w: content must be at least 10 characters long", apperr.ErrValidation)
	}
	if len(content) > 100000 {
		return "", fmt.Errorf("%w: content must be less than 100,000 characters", apperr.ErrValidation)
	}
	return trimmed, nil
}

// ValidateEmail checks and normalizes an email address.
func ValidateEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: invalid email format", apperr.ErrValidation)
	}
	return normalized, nil
}

// ValidatePassword enforces password strength rules.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", apperr.ErrValidation)
	}
	if len(password) > 128 {
		return fmt.Errorf("%w: password must be less than 128 characters", apperr.ErrValidation)
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", apperr.ErrValidation)
	}
	if !hasLower {
		return fmt.Errorf("%w: password must contain at least one lowercase letter", apperr.ErrValidation)
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one number", apperr.ErrValidation)
	}
	return nil
}

// ValidateDocType checks and normalizes a document type.
func ValidateDocType(docType string) (string, error) {
	normalized := strings.ToLower(docType)
	for _, valid := range ValidDocTypes {
		if normalized == valid {
			return normalized, nil
		}
	}
	return "", fmt.Errorf("%w: document type must be one of: %s", apperr.ErrValidation, strings.Join(ValidDocTypes, ", "))
}

// ValidateChunkSize bounds the embedding chunk size.
func ValidateChunkSize(chunkSize int) error {
	if chunkSize < 100 {
		return fmt.Errorf("%w: chunk size must be at least 100 characters", apperr.ErrValidation)
	}
	if chunkSize > 5000 {
		return fmt.Errorf("%w: chunk size must be less than 5000 characters", apperr.ErrValidation)
	}
	return nil
}

// ValidateTopK bounds the number of search results.
func ValidateTopK(topK int) error {
	if topK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1", apperr.ErrValidation)
	}
	if topK > 50 {
		return fmt.Errorf("%w: top_k must be less than 50", apperr.ErrValidation)
	}
	return nil
}
