package domain

import (
	"context"
	"time"
)

// FieldType is the tag of a FormField variant.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldSelect, FieldCheckbox, FieldFile:
		return true
	}
	return false
}

// HasOptions reports whether the field type carries an option list.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldCheckbox
}

// File size limits for file fields, in megabytes.
const (
	MinFileSizeMB = 1
	MaxFileSizeMB = 50
)

// FormField is one typed input slot of a Form.
// Options is used by select/checkbox fields; FileTypes and MaxFileSize by file fields.
// swagger:model FormField
type FormField struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	FileTypes   []string  `json:"fileTypes,omitempty"`
	MaxFileSize int       `json:"maxFileSize,omitempty"`
}

// TicketSettings configures the ticket email sent after a registration.
type TicketSettings struct {
	EmailSubject string `json:"emailSubject"`
	EmailMessage string `json:"emailMessage"`
	IncludeQR    bool   `json:"includeQR"`
}

// Form is a registration form that belongs to exactly one event.
// Fields may be edited after responses exist; stored responses are not migrated.
// swagger:model Form
type Form struct {
	ID          string         `json:"id"`
	EventID     string         `json:"event_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Fields      []FormField    `json:"fields"`
	Ticket      TicketSettings `json:"ticket"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Field returns the field with the given id.
func (f *Form) Field(id string) (FormField, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FormField{}, false
}

// FormRepository defines the interface for form storage.
type FormRepository interface {
	Create(ctx context.Context, form *Form) error
	GetByID(ctx context.Context, id string) (*Form, error)
	Update(ctx context.Context, form *Form) error
}

// FormInput is the editable part of a form.
type FormInput struct {
	Title       string
	Description string
	Fields      []FormField
	Ticket      TicketSettings
}

// FormService defines form management operations.
type FormService interface {
	CreateForm(ctx context.Context, eventID, principalID string, in FormInput) (*Form, error)
	UpdateForm(ctx context.Context, eventID, formID, principalID string, in FormInput) (*Form, error)
	GetForm(ctx context.Context, eventID, formID string) (*Form, error)
}
