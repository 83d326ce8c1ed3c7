// Package validation rejects malformed email payloads before any prompt is
// rendered or any backend is called.
package validation

import (
	"github.com/go-playground/validator/v10"
)

// EmptyEmailMessage is returned to the caller whenever ValidateEmail fails.
const EmptyEmailMessage = "subject & content cannot be null or empty"

var validate = validator.New(validator.WithRequiredStructEnabled())

// EmailMessage is the email a reply or summary is generated for. It is
// checked once per request and never modified afterwards.
type EmailMessage struct {
	Subject string `json:"subject" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// ValidateEmail reports whether email is present and carries both a subject
// and a content. Whitespace is not trimmed, so "   " counts as present.
func ValidateEmail(email *EmailMessage) bool {
	if email == nil {
		return false
	}
	return validate.Struct(email) == nil
}
