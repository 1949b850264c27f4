package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateTitle validates a survey title.
//
// The validation rules are intentionally conservative:
//   - No empty titles
//   - No control characters
//   - Maximum length of 200 characters
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return New(ErrCodeInvalidTitle, "survey title cannot be empty")
	}

	if len(title) > 200 {
		return New(ErrCodeInvalidTitle, "survey title too long (max 200 characters)")
	}

	for _, r := range title {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTitle, "survey title contains invalid control characters")
		}
	}

	return nil
}

// ValidateQuestionText validates a question prompt. Newlines are
// allowed; other control characters are not.
func ValidateQuestionText(text string) error {
	const maxTextLength = 2000
	if len(text) > maxTextLength {
		return New(ErrCodeInvalidInput, "question text too long (max %d characters)", maxTextLength)
	}

	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return New(ErrCodeInvalidInput, "question text contains invalid control characters")
		}
	}

	return nil
}

// ValidateMediaURL validates a media asset URL.
// It ensures the URL has a safe scheme (http or https).
func ValidateMediaURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "media URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidURL, "media URL must use http or https scheme")
	}

	return nil
}

// questionIDRegex matches the id alphabet the engine generates: the
// numeric root, uuid-based manual ids, and slug-suffixed branch
// children.
var questionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateQuestionID validates a question id supplied by a client.
func ValidateQuestionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "question id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "question id too long (max 256 characters)")
	}

	if !questionIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid question id: %q", id)
	}

	return nil
}
