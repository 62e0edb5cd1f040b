package domain

import (
	"context"
	"time"
)

// Response is one participant's validated, persisted submission of a Form.
// Only the check-in fields change after creation, and only through check-in.
// swagger:model Response
type Response struct {
	ID               string         `json:"id"`
	FormID           string         `json:"form_id"`
	EventID          string         `json:"event_id"`
	UserID           string         `json:"user_id,omitempty"`
	ParticipantName  string         `json:"participant_name"`
	ParticipantEmail string         `json:"participant_email"`
	Values           map[string]any `json:"values"`
	CheckedIn        bool           `json:"checked_in"`
	CheckedInAt      *time.Time     `json:"checked_in_at,omitempty"`
	CheckedInBy      string         `json:"checked_in_by,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// NewResponse returns an unchecked Response. ID is set by the repository on create.
func NewResponse(formID, eventID, userID, name, email string, values map[string]any, createdAt time.Time) *Response {
	return &Response{
		FormID:           formID,
		EventID:          eventID,
		UserID:           userID,
		ParticipantName:  name,
		ParticipantEmail: email,
		Values:           values,
		CreatedAt:        createdAt,
	}
}

// ResponseRepository defines storage operations for form responses.
type ResponseRepository interface {
	Create(ctx context.Context, resp *Response) error
	// GetForCheckIn finds the response with the given id that belongs to formID and eventID.
	GetForCheckIn(ctx context.Context, formID, eventID, responseID string) (*Response, error)
	ListByFormID(ctx context.Context, formID string, params PaginationParams) ([]*Response, int, error)
	ListAllByFormID(ctx context.Context, formID string) ([]*Response, error)
}

// Submission is the raw input of a registration.
type Submission struct {
	Name   string
	Email  string
	Values map[string]any
}

// RegistrationService accepts form submissions and manages their tickets.
type RegistrationService interface {
	// Register validates and persists a submission, then dispatches its ticket on a
	// best-effort basis. principalID is empty for anonymous registrants.
	Register(ctx context.Context, eventID, formID, principalID string, sub Submission) (*Response, error)
	ListResponses(ctx context.Context, eventID, formID, principalID string, params PaginationParams) ([]*Response, int, error)
	ResendTicket(ctx context.Context, eventID, formID, responseID, principalID string) error
	ResendAllTickets(ctx context.Context, eventID, formID, principalID string) (sent int, failed []string, err error)
}
