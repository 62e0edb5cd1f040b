package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"eventticketing/internal/domain"
)

// checkIDs returns ErrMalformedIdentifier unless every id is a UUID.
func checkIDs(ids ...string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%w: %q", domain.ErrMalformedIdentifier, id)
		}
	}
	return nil
}

func loadEvent(ctx context.Context, events domain.EventRepository, eventID string) (*domain.Event, error) {
	event, err := events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// loadForm returns ErrFormNotFound when the form is absent or belongs to another event.
func loadForm(ctx context.Context, forms domain.FormRepository, eventID, formID string) (*domain.Form, error) {
	form, err := forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrFormNotFound
		}
		return nil, fmt.Errorf("get form: %w", err)
	}
	if form.EventID != eventID {
		return nil, domain.ErrFormNotFound
	}
	return form, nil
}
