package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID = "6c1f3b0e-0d4e-4d7a-9a49-0f6b0d1b7c11"
	testFormID  = "0a7d5e52-8d0c-4b55-8a0e-3a7a1d2c9f22"
)

type fakeFormService struct {
	form      *domain.Form
	err       error
	lastInput domain.FormInput
	lastUser  string
}

func (f *fakeFormService) CreateForm(ctx context.Context, eventID, principalID string, in domain.FormInput) (*domain.Form, error) {
	f.lastInput, f.lastUser = in, principalID
	if f.err != nil {
		return nil, f.err
	}
	return f.form, nil
}

func (f *fakeFormService) UpdateForm(ctx context.Context, eventID, formID, principalID string, in domain.FormInput) (*domain.Form, error) {
	f.lastInput, f.lastUser = in, principalID
	if f.err != nil {
		return nil, f.err
	}
	return f.form, nil
}

func (f *fakeFormService) GetForm(ctx context.Context, eventID, formID string) (*domain.Form, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.form, nil
}

type fakeRegistrationService struct {
	resp       *domain.Response
	resps      []*domain.Response
	total      int
	sent       int
	failed     []string
	err        error
	lastUser   string
	lastSub    domain.Submission
	lastParams domain.PaginationParams
}

func (f *fakeRegistrationService) Register(ctx context.Context, eventID, formID, principalID string, sub domain.Submission) (*domain.Response, error) {
	f.lastUser, f.lastSub = principalID, sub
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeRegistrationService) ListResponses(ctx context.Context, eventID, formID, principalID string, params domain.PaginationParams) ([]*domain.Response, int, error) {
	f.lastUser, f.lastParams = principalID, params
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.resps, f.total, nil
}

func (f *fakeRegistrationService) ResendTicket(ctx context.Context, eventID, formID, responseID, principalID string) error {
	f.lastUser = principalID
	return f.err
}

func (f *fakeRegistrationService) ResendAllTickets(ctx context.Context, eventID, formID, principalID string) (int, []string, error) {
	f.lastUser = principalID
	if f.err != nil {
		return 0, nil, f.err
	}
	return f.sent, f.failed, nil
}

type fakeCheckInService struct {
	result      *domain.CheckInResult
	recs        []*domain.CheckInRecord
	err         error
	lastScanned domain.ScannedCredential
	lastUser    string
}

func (f *fakeCheckInService) CheckIn(ctx context.Context, eventID, formID string, scanned domain.ScannedCredential, principalID string) (*domain.CheckInResult, error) {
	f.lastScanned, f.lastUser = scanned, principalID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeCheckInService) ListCheckIns(ctx context.Context, eventID, formID, principalID string, params domain.PaginationParams) ([]*domain.CheckInRecord, int, error) {
	f.lastUser = principalID
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.recs, len(f.recs), nil
}

// decodeEnvelope decodes the APIResponse envelope and re-decodes data into dest when given.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if dest != nil && envelope.Error == nil {
		require.NoError(t, json.Unmarshal(envelope.Data, dest))
	}
	return envelope.Error
}
