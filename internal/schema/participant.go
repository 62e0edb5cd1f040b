package schema

import (
	"strings"

	"eventticketing/internal/domain"
)

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return emailRegexp.MatchString(s)
}

// ResolveParticipant picks who a registration is for. An explicit name or email
// wins; otherwise the first email field of the form supplies the email and a
// field whose id or label is "name" supplies the name. A missing name is taken
// from the local part of the email. The email is empty when neither source has
// one; the registration stands and only the ticket cannot be sent. values must
// already be validated.
func ResolveParticipant(form *domain.Form, name, email string, values map[string]any) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email != "" && !IsEmail(email) {
		return "", "", &domain.ValidationError{
			Kind:   domain.KindInvalidFieldFormat,
			Value:  email,
			Detail: "participant email is not a valid email address",
		}
	}
	if email == "" {
		for _, field := range form.Fields {
			if field.Type != domain.FieldEmail {
				continue
			}
			if v, ok := values[field.ID].(string); ok && v != "" {
				email = v
				break
			}
		}
	}

	if name == "" {
		for _, field := range form.Fields {
			if field.Type != domain.FieldText {
				continue
			}
			if !strings.EqualFold(field.ID, "name") && !strings.EqualFold(field.Label, "name") {
				continue
			}
			if v, ok := values[field.ID].(string); ok && v != "" {
				name = v
				break
			}
		}
	}
	if name == "" && email != "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return name, email, nil
}
