package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
	"eventticketing/internal/metrics"
)

type registrationHarness struct {
	fx      *fixture
	issuer  *fakeIssuer
	metrics *metrics.Metrics
	svc     domain.RegistrationService
}

func newRegistrationHarness() *registrationHarness {
	fx := newFixture()
	h := &registrationHarness{fx: fx, issuer: &fakeIssuer{}, metrics: newTestMetrics()}
	h.svc = NewRegistrationService(fx.events, fx.forms, fx.responses, h.issuer, fx.gate, h.metrics, discardLogger(), time.Second, time.Second)
	return h
}

func TestRegistrationService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		values    map[string]any
		wantKind  domain.ValidationKind
		wantField string
	}{
		{
			name:      "option outside the set",
			values:    map[string]any{"name": "Ana", "email": "ana@example.com", "size": "XL"},
			wantKind:  domain.KindInvalidOption,
			wantField: "size",
		},
		{
			name:      "blank required name",
			values:    map[string]any{"name": "", "email": "ana@example.com", "size": "M"},
			wantKind:  domain.KindMissingRequiredField,
			wantField: "name",
		},
		{
			name:      "unknown key",
			values:    map[string]any{"name": "Ana", "email": "ana@example.com", "shoe": "42"},
			wantKind:  domain.KindUnknownField,
			wantField: "shoe",
		},
		{
			name:   "valid submission",
			values: map[string]any{"name": "Ana", "email": "Ana@Example.com", "size": "M"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRegistrationHarness()
			resp, err := h.svc.Register(ctx, h.fx.event.ID, h.fx.form.ID, "", domain.Submission{Values: tt.values})

			if tt.wantKind != "" {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantKind, verr.Kind)
				assert.Equal(t, tt.wantField, verr.FieldID)
				all, _ := h.fx.responses.ListAllByFormID(ctx, h.fx.form.ID)
				assert.Empty(t, all, "nothing is persisted on validation failure")
				assert.Equal(t, 0, h.issuer.count())
				assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Rejections.WithLabelValues(string(tt.wantKind))))
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, resp.ID)
			assert.False(t, resp.CheckedIn)
			assert.Nil(t, resp.CheckedInAt)
			assert.Equal(t, "Ana", resp.ParticipantName)
			assert.Equal(t, "ana@example.com", resp.ParticipantEmail)
			assert.Equal(t, 1, h.issuer.count())
			assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Registrations))
		})
	}
}

func TestRegistrationService_Register_TicketFailureKeepsResponse(t *testing.T) {
	h := newRegistrationHarness()
	h.issuer.err = domain.ErrTicketDispatch
	ctx := context.Background()

	resp, err := h.svc.Register(ctx, h.fx.event.ID, h.fx.form.ID, "user-9", domain.Submission{
		Values: map[string]any{"name": "Bo", "email": "bo@example.com"},
	})
	require.NoError(t, err)

	stored, err := h.fx.responses.GetForCheckIn(ctx, h.fx.form.ID, h.fx.event.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-9", stored.UserID)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Tickets.WithLabelValues(metrics.TicketFailed)))
}

func TestRegistrationService_Register_FormWithoutEmailField(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	form := &domain.Form{
		EventID: fx.event.ID,
		Title:   "F1",
		Fields: []domain.FormField{
			{ID: "name", Label: "Name", Type: domain.FieldText, Required: true},
			{ID: "size", Label: "Size", Type: domain.FieldSelect, Options: []string{"S", "M", "L"}},
		},
		Ticket: domain.TicketSettings{IncludeQR: true},
	}
	require.NoError(t, fx.forms.Create(ctx, form))

	mailer := &fakeMailer{}
	issuer := NewTicketIssuer(mailer, &fakeRenderer{}, fakeQR{})
	m := newTestMetrics()
	svc := NewRegistrationService(fx.events, fx.forms, fx.responses, issuer, fx.gate, m, discardLogger(), time.Second, time.Second)

	resp, err := svc.Register(ctx, fx.event.ID, form.ID, "", domain.Submission{
		Values: map[string]any{"name": "Ana", "size": "M"},
	})
	require.NoError(t, err)

	stored, err := fx.responses.GetForCheckIn(ctx, form.ID, fx.event.ID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", stored.ParticipantName)
	assert.Empty(t, stored.ParticipantEmail)
	assert.Equal(t, map[string]any{"name": "Ana", "size": "M"}, stored.Values)
	assert.False(t, stored.CheckedIn)

	assert.Empty(t, mailer.sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tickets.WithLabelValues(metrics.TicketFailed)))
}

func TestRegistrationService_Register_Preconditions(t *testing.T) {
	h := newRegistrationHarness()
	ctx := context.Background()
	sub := domain.Submission{Values: map[string]any{"name": "Ana", "email": "ana@example.com"}}

	_, err := h.svc.Register(ctx, h.fx.event.ID, uuid.NewString(), "", sub)
	assert.ErrorIs(t, err, domain.ErrFormNotFound)

	_, err = h.svc.Register(ctx, uuid.NewString(), h.fx.form.ID, "", sub)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	_, err = h.svc.Register(ctx, "x", h.fx.form.ID, "", sub)
	assert.ErrorIs(t, err, domain.ErrMalformedIdentifier)

	h.fx.responses.createErr = errStorage
	_, err = h.svc.Register(ctx, h.fx.event.ID, h.fx.form.ID, "", sub)
	assert.ErrorIs(t, err, errStorage)
}

func TestRegistrationService_ListResponses(t *testing.T) {
	h := newRegistrationHarness()
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		h.fx.addResponse(name)
	}

	resps, total, err := h.svc.ListResponses(ctx, h.fx.event.ID, h.fx.form.ID, h.fx.admin, domain.PaginationParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, resps, 2)

	_, _, err = h.svc.ListResponses(ctx, h.fx.event.ID, h.fx.form.ID, h.fx.member, domain.PaginationParams{Page: 1, PageSize: 2})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRegistrationService_ResendTicket(t *testing.T) {
	h := newRegistrationHarness()
	ctx := context.Background()
	resp := h.fx.addResponse("ana")

	require.NoError(t, h.svc.ResendTicket(ctx, h.fx.event.ID, h.fx.form.ID, resp.ID, h.fx.admin))
	assert.Equal(t, []string{resp.ID}, h.issuer.issued)

	err := h.svc.ResendTicket(ctx, h.fx.event.ID, h.fx.form.ID, uuid.NewString(), h.fx.admin)
	assert.ErrorIs(t, err, domain.ErrResponseNotFound)

	err = h.svc.ResendTicket(ctx, h.fx.event.ID, h.fx.form.ID, resp.ID, h.fx.member)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	h.issuer.err = domain.ErrTicketDispatch
	err = h.svc.ResendTicket(ctx, h.fx.event.ID, h.fx.form.ID, resp.ID, h.fx.admin)
	assert.ErrorIs(t, err, domain.ErrTicketDispatch)
}

func TestRegistrationService_ResendAllTickets(t *testing.T) {
	h := newRegistrationHarness()
	ctx := context.Background()
	var ids []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		ids = append(ids, h.fx.addResponse(name).ID)
	}
	h.issuer.failOn = map[string]bool{ids[1]: true}

	sent, failed, err := h.svc.ResendAllTickets(ctx, h.fx.event.ID, h.fx.form.ID, h.fx.admin)
	require.NoError(t, err)
	assert.Equal(t, 4, sent)
	assert.Equal(t, []string{ids[1]}, failed)
}
