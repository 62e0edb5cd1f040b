package domain

import "errors"

// Sentinel errors shared by services and repositories.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrMalformedIdentifier = errors.New("malformed identifier")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrEventNotFound       = errors.New("event not found")
	ErrFormNotFound        = errors.New("form not found")
	ErrResponseNotFound    = errors.New("response not found")

	ErrInvalidFormDefinition = errors.New("invalid form definition")

	// ErrTicketDispatch wraps failures of the email transport while issuing a ticket.
	// It is retriable: the response it belongs to is already persisted.
	ErrTicketDispatch = errors.New("ticket dispatch failed")
)
