package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Credential is the bundle encoded in a ticket's QR code. It is bearer-style:
// CheckInCode is a uniqueness tag, not a signature, and ParticipantID (the
// response id) is the lookup key at check-in.
type Credential struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Event         string `json:"event"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	CheckInCode   string `json:"checkInCode"`
	FormID        string `json:"formId"`
	EventID       string `json:"eventId"`
}

// ScannedCredential is what a gate operator submits after reading a QR code.
// Raw keeps the original payload for the audit record.
type ScannedCredential struct {
	ParticipantID string          `json:"participantId"`
	CheckInCode   string          `json:"checkInCode"`
	Name          string          `json:"name,omitempty"`
	Email         string          `json:"email,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// CheckInRecord is the unique audit fact that a response was admitted.
// At most one exists per (FormID, EventID, ParticipantID).
// swagger:model CheckInRecord
type CheckInRecord struct {
	ID               string          `json:"id"`
	FormID           string          `json:"form_id"`
	EventID          string          `json:"event_id"`
	ParticipantID    string          `json:"participant_id"`
	ParticipantName  string          `json:"participant_name"`
	ParticipantEmail string          `json:"participant_email"`
	CheckInCode      string          `json:"check_in_code"`
	CheckedInBy      string          `json:"checked_in_by"`
	CheckedInAt      time.Time       `json:"checked_in_at"`
	QRData           json.RawMessage `json:"qr_data,omitempty"`
}

// Key returns the uniqueness key of the record.
func (r *CheckInRecord) Key() CheckInKey {
	return CheckInKey{FormID: r.FormID, EventID: r.EventID, ParticipantID: r.ParticipantID}
}

// CheckInKey identifies the single admission slot of a response.
type CheckInKey struct {
	FormID        string
	EventID       string
	ParticipantID string
}

func (k CheckInKey) String() string {
	return k.FormID + ":" + k.EventID + ":" + k.ParticipantID
}

// Reason returned when the scanned participant has no response on the form.
const ReasonParticipantNotFound = "participant not found for this form"

// CheckInResult is the outcome of a scan. Valid=false carries Reason and is a
// normal result, not an error.
// swagger:model CheckInResult
type CheckInResult struct {
	Valid            bool       `json:"valid"`
	AlreadyCheckedIn bool       `json:"alreadyCheckedIn"`
	CheckInID        string     `json:"checkInId,omitempty"`
	CheckedInAt      *time.Time `json:"checkedInAt,omitempty"`
	CheckedInBy      string     `json:"checkedInBy,omitempty"`
	Reason           string     `json:"reason,omitempty"`
}

// CheckInRepository stores CheckInRecords.
type CheckInRepository interface {
	// Admit atomically creates rec unless a record with the same key exists, and
	// marks the response as checked in within the same transaction. It returns the
	// stored record and whether this call created it. Concurrent calls for one key
	// yield exactly one created=true.
	Admit(ctx context.Context, rec *CheckInRecord) (stored *CheckInRecord, created bool, err error)
	Get(ctx context.Context, key CheckInKey) (*CheckInRecord, error)
	ListByFormID(ctx context.Context, formID string, params PaginationParams) ([]*CheckInRecord, int, error)
}

// CheckInCache holds admitted records. Records are immutable once written, so a
// cache hit is always an "already checked in" answer.
type CheckInCache interface {
	Get(ctx context.Context, key CheckInKey) (*CheckInRecord, error)
	Put(ctx context.Context, rec *CheckInRecord) error
}

// CheckInService admits scanned credentials.
type CheckInService interface {
	CheckIn(ctx context.Context, eventID, formID string, scanned ScannedCredential, principalID string) (*CheckInResult, error)
	ListCheckIns(ctx context.Context, eventID, formID, principalID string, params PaginationParams) ([]*CheckInRecord, int, error)
}
