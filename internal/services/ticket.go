package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"eventticketing/internal/domain"
)

const (
	ticketTemplate = "ticket"
	qrContentID    = "qrcode"
	qrFilename     = "event-ticket-qr.png"
	qrContentType  = "image/png"
	defaultSubject = "Your Ticket for %s"
)

type ticketIssuer struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	qr       domain.QREncoder
	now      func() time.Time
}

// NewTicketIssuer returns a TicketIssuer that emails a credential, optionally as
// an inline QR image.
func NewTicketIssuer(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, qr domain.QREncoder) domain.TicketIssuer {
	return &ticketIssuer{mailer: mailer, renderer: renderer, qr: qr, now: time.Now}
}

// Issue builds the credential for resp and sends it. The participant id is always
// the response id, so issuing again keeps earlier credentials valid. Transport
// failures and responses without an email address wrap domain.ErrTicketDispatch.
func (t *ticketIssuer) Issue(ctx context.Context, resp *domain.Response, event *domain.Event, settings domain.TicketSettings) (*domain.Credential, error) {
	if resp == nil || event == nil {
		return nil, fmt.Errorf("%w: response and event are required", domain.ErrInvalidInput)
	}
	if resp.ParticipantEmail == "" {
		return nil, fmt.Errorf("%w: response %s has no email address", domain.ErrTicketDispatch, resp.ID)
	}
	cred := &domain.Credential{
		ParticipantID: resp.ID,
		Name:          resp.ParticipantName,
		Email:         resp.ParticipantEmail,
		Event:         event.Title,
		Date:          event.Date,
		Time:          event.Time,
		CheckInCode:   resp.ID + "-" + strconv.FormatInt(t.now().UnixMilli(), 10),
		FormID:        resp.FormID,
		EventID:       resp.EventID,
	}

	subject := settings.EmailSubject
	if subject == "" {
		subject = fmt.Sprintf(defaultSubject, event.Title)
	}
	data := &domain.TicketEmailData{
		RecipientName:  resp.ParticipantName,
		RecipientEmail: resp.ParticipantEmail,
		ParticipantID:  resp.ID,
		Subject:        subject,
		Message:        settings.EmailMessage,
		Event:          event,
		IncludeQR:      settings.IncludeQR,
	}
	if settings.EmailMessage != "" {
		data.MessageLines = strings.Split(settings.EmailMessage, "\n")
	}

	renderedSubject, htmlBody, textBody, err := t.renderer.Render(ticketTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("render ticket template: %w", err)
	}
	msg := &domain.EmailMessage{
		To:      resp.ParticipantEmail,
		Subject: renderedSubject,
		HTML:    htmlBody,
		Text:    textBody,
	}

	if settings.IncludeQR {
		payload, err := json.Marshal(cred)
		if err != nil {
			return nil, fmt.Errorf("encode credential: %w", err)
		}
		png, err := t.qr.Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("encode qr code: %w", err)
		}
		msg.Attachments = append(msg.Attachments, domain.EmailAttachment{
			Filename:    qrFilename,
			ContentType: qrContentType,
			ContentID:   qrContentID,
			Data:        png,
		})
	}

	if err := t.mailer.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTicketDispatch, err)
	}
	return cred, nil
}
