package domain

import "fmt"

// ValidationKind classifies a submission validation failure.
type ValidationKind string

const (
	KindMissingRequiredField ValidationKind = "missing_required_field"
	KindInvalidOption        ValidationKind = "invalid_option"
	KindInvalidFileType      ValidationKind = "invalid_file_type"
	KindFileTooLarge         ValidationKind = "file_too_large"
	KindInvalidFieldFormat   ValidationKind = "invalid_field_format"
	KindUnknownField         ValidationKind = "unknown_field"
)

// ValidationError is a field-level failure of a submission against a form.
// swagger:model ValidationError
type ValidationError struct {
	Kind    ValidationKind `json:"kind"`
	FieldID string         `json:"fieldId,omitempty"`
	Value   any            `json:"value,omitempty"`
	Detail  string         `json:"detail"`
}

func (e *ValidationError) Error() string {
	if e.FieldID == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.FieldID, e.Detail)
}

// FieldDefinitionError reports a field definition rejected at form save time.
type FieldDefinitionError struct {
	FieldID string
	Label   string
	Reason  string
}

func (e *FieldDefinitionError) Error() string {
	name := e.Label
	if name == "" {
		name = e.FieldID
	}
	return fmt.Sprintf("field %q: %s", name, e.Reason)
}

// Unwrap lets callers match ErrInvalidFormDefinition with errors.Is.
func (e *FieldDefinitionError) Unwrap() error {
	return ErrInvalidFormDefinition
}
