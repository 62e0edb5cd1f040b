package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventticketing/internal/domain"
	"eventticketing/internal/schema"
)

type formService struct {
	eventRepo      domain.EventRepository
	formRepo       domain.FormRepository
	gate           domain.AccessGate
	contextTimeout time.Duration
}

func NewFormService(eventRepo domain.EventRepository, formRepo domain.FormRepository, gate domain.AccessGate, timeout time.Duration) domain.FormService {
	return &formService{
		eventRepo:      eventRepo,
		formRepo:       formRepo,
		gate:           gate,
		contextTimeout: timeout,
	}
}

func (s *formService) CreateForm(ctx context.Context, eventID, principalID string, in domain.FormInput) (*domain.Form, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := checkIDs(eventID); err != nil {
		return nil, err
	}
	event, err := loadEvent(ctx, s.eventRepo, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(ctx, s.gate, principalID, event); err != nil {
		return nil, err
	}

	form := &domain.Form{EventID: eventID}
	if err := applyFormInput(form, in); err != nil {
		return nil, err
	}
	now := time.Now()
	form.CreatedAt = now
	form.UpdatedAt = now
	if err := s.formRepo.Create(ctx, form); err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	return form, nil
}

// UpdateForm replaces the editable part of a form. Stored responses are left as
// they are even when fields they reference are removed.
func (s *formService) UpdateForm(ctx context.Context, eventID, formID, principalID string, in domain.FormInput) (*domain.Form, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := checkIDs(eventID, formID); err != nil {
		return nil, err
	}
	event, err := loadEvent(ctx, s.eventRepo, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireManage(ctx, s.gate, principalID, event); err != nil {
		return nil, err
	}
	form, err := loadForm(ctx, s.formRepo, eventID, formID)
	if err != nil {
		return nil, err
	}
	if err := applyFormInput(form, in); err != nil {
		return nil, err
	}
	form.UpdatedAt = time.Now()
	if err := s.formRepo.Update(ctx, form); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrFormNotFound
		}
		return nil, fmt.Errorf("update form: %w", err)
	}
	return form, nil
}

func (s *formService) GetForm(ctx context.Context, eventID, formID string) (*domain.Form, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := checkIDs(eventID, formID); err != nil {
		return nil, err
	}
	return loadForm(ctx, s.formRepo, eventID, formID)
}

func applyFormInput(form *domain.Form, in domain.FormInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	fields, err := schema.NormalizeFields(in.Fields)
	if err != nil {
		return err
	}
	form.Title = title
	form.Description = strings.TrimSpace(in.Description)
	form.Fields = fields
	form.Ticket = domain.TicketSettings{
		EmailSubject: strings.TrimSpace(in.Ticket.EmailSubject),
		EmailMessage: strings.TrimSpace(in.Ticket.EmailMessage),
		IncludeQR:    in.Ticket.IncludeQR,
	}
	return nil
}
