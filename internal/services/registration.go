package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"eventticketing/internal/domain"
	"eventticketing/internal/metrics"
	"eventticketing/internal/schema"
)

// resendConcurrency bounds parallel sends in ResendAllTickets.
const resendConcurrency = 4

type registrationService struct {
	eventRepo      domain.EventRepository
	formRepo       domain.FormRepository
	responseRepo   domain.ResponseRepository
	issuer         domain.TicketIssuer
	gate           domain.AccessGate
	metrics        *metrics.Metrics
	logger         *slog.Logger
	contextTimeout time.Duration
	ticketTimeout  time.Duration
}

func NewRegistrationService(
	eventRepo domain.EventRepository,
	formRepo domain.FormRepository,
	responseRepo domain.ResponseRepository,
	issuer domain.TicketIssuer,
	gate domain.AccessGate,
	m *metrics.Metrics,
	logger *slog.Logger,
	timeout time.Duration,
	ticketTimeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		eventRepo:      eventRepo,
		formRepo:       formRepo,
		responseRepo:   responseRepo,
		issuer:         issuer,
		gate:           gate,
		metrics:        m,
		logger:         logger,
		contextTimeout: timeout,
		ticketTimeout:  ticketTimeout,
	}
}

// Register validates sub against the form and persists it. The ticket is sent
// afterwards with its own deadline; a failed send is logged and does not undo
// the registration.
func (s *registrationService) Register(ctx context.Context, eventID, formID, principalID string, sub domain.Submission) (*domain.Response, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := checkIDs(eventID, formID); err != nil {
		return nil, err
	}
	event, err := loadEvent(dbCtx, s.eventRepo, eventID)
	if err != nil {
		return nil, err
	}
	form, err := loadForm(dbCtx, s.formRepo, eventID, formID)
	if err != nil {
		return nil, err
	}

	values, err := schema.Validate(form, sub.Values)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}
	name, email, err := schema.ResolveParticipant(form, sub.Name, sub.Email, values)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	resp := domain.NewResponse(form.ID, eventID, principalID, name, email, values, time.Now())
	if err := s.responseRepo.Create(dbCtx, resp); err != nil {
		return nil, fmt.Errorf("create response: %w", err)
	}
	s.metrics.IncrementRegistration()

	if err := s.sendTicket(ctx, resp, event, form.Ticket); err != nil {
		s.logger.WarnContext(ctx, "ticket dispatch failed",
			"response_id", resp.ID,
			"form_id", form.ID,
			"error", err,
		)
	}
	return resp, nil
}

func (s *registrationService) ListResponses(ctx context.Context, eventID, formID, principalID string, params domain.PaginationParams) ([]*domain.Response, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	form, _, err := s.managedForm(ctx, eventID, formID, principalID)
	if err != nil {
		return nil, 0, err
	}
	resps, total, err := s.responseRepo.ListByFormID(ctx, form.ID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list responses: %w", err)
	}
	if resps == nil {
		resps = []*domain.Response{}
	}
	return resps, total, nil
}

func (s *registrationService) ResendTicket(ctx context.Context, eventID, formID, responseID, principalID string) error {
	dbCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := checkIDs(responseID); err != nil {
		return err
	}
	form, event, err := s.managedForm(dbCtx, eventID, formID, principalID)
	if err != nil {
		return err
	}
	resp, err := s.responseRepo.GetForCheckIn(dbCtx, form.ID, eventID, responseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrResponseNotFound
		}
		return fmt.Errorf("get response: %w", err)
	}
	return s.sendTicket(ctx, resp, event, form.Ticket)
}

// ResendAllTickets sends a ticket for every response of the form and reports the
// response ids whose send failed.
func (s *registrationService) ResendAllTickets(ctx context.Context, eventID, formID, principalID string) (int, []string, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	form, event, err := s.managedForm(dbCtx, eventID, formID, principalID)
	if err != nil {
		return 0, nil, err
	}
	resps, err := s.responseRepo.ListAllByFormID(dbCtx, form.ID)
	if err != nil {
		return 0, nil, fmt.Errorf("list responses: %w", err)
	}

	var (
		mu     sync.Mutex
		sent   int
		failed = []string{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resendConcurrency)
	for _, resp := range resps {
		g.Go(func() error {
			err := s.sendTicket(gctx, resp, event, form.Ticket)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, resp.ID)
				s.logger.WarnContext(gctx, "ticket resend failed", "response_id", resp.ID, "error", err)
				return nil
			}
			sent++
			return nil
		})
	}
	_ = g.Wait()
	slices.Sort(failed)
	return sent, failed, nil
}

// managedForm loads the event and form and checks that principalID may manage them.
func (s *registrationService) managedForm(ctx context.Context, eventID, formID, principalID string) (*domain.Form, *domain.Event, error) {
	if err := checkIDs(eventID, formID); err != nil {
		return nil, nil, err
	}
	event, err := loadEvent(ctx, s.eventRepo, eventID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireManage(ctx, s.gate, principalID, event); err != nil {
		return nil, nil, err
	}
	form, err := loadForm(ctx, s.formRepo, eventID, formID)
	if err != nil {
		return nil, nil, err
	}
	return form, event, nil
}

// sendTicket issues with a deadline that outlives the caller's cancellation.
func (s *registrationService) sendTicket(ctx context.Context, resp *domain.Response, event *domain.Event, settings domain.TicketSettings) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ticketTimeout)
	defer cancel()

	if _, err := s.issuer.Issue(ctx, resp, event, settings); err != nil {
		s.metrics.IncrementTicket(metrics.TicketFailed)
		return err
	}
	s.metrics.IncrementTicket(metrics.TicketSent)
	s.logger.InfoContext(ctx, "ticket sent", "response_id", resp.ID, "email", resp.ParticipantEmail)
	return nil
}

func (s *registrationService) countRejection(err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		s.metrics.IncrementRejection(string(verr.Kind))
	}
}
