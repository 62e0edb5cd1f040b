package domain

import "context"

// EmailAttachment is a binary part of an email. A non-empty ContentID makes it
// inline, referenced from HTML as cid:<ContentID>.
type EmailAttachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Data        []byte
}

// EmailMessage is a fully formed outbound email.
type EmailMessage struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []EmailAttachment
}

// Mailer defines the contract for sending emails (infrastructure port).
// Delivery guarantees and retries belong to the implementation.
type Mailer interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// QREncoder renders a payload as a PNG QR code.
type QREncoder interface {
	Encode(payload []byte) ([]byte, error)
}

// TicketEmailData holds data for the ticket email template.
type TicketEmailData struct {
	RecipientName  string
	RecipientEmail string
	ParticipantID  string
	Subject        string
	MessageLines   []string
	Message        string
	Event          *Event
	IncludeQR      bool
}

// TicketIssuer derives a Credential from a persisted response and sends it.
type TicketIssuer interface {
	Issue(ctx context.Context, resp *Response, event *Event, settings TicketSettings) (*Credential, error)
}
