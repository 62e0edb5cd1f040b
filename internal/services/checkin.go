package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"eventticketing/internal/domain"
	"eventticketing/internal/metrics"
)

type checkInService struct {
	eventRepo      domain.EventRepository
	formRepo       domain.FormRepository
	responseRepo   domain.ResponseRepository
	checkInRepo    domain.CheckInRepository
	cache          domain.CheckInCache
	gate           domain.AccessGate
	metrics        *metrics.Metrics
	logger         *slog.Logger
	contextTimeout time.Duration
	group          singleflight.Group
	now            func() time.Time
}

func NewCheckInService(
	eventRepo domain.EventRepository,
	formRepo domain.FormRepository,
	responseRepo domain.ResponseRepository,
	checkInRepo domain.CheckInRepository,
	cache domain.CheckInCache,
	gate domain.AccessGate,
	m *metrics.Metrics,
	logger *slog.Logger,
	timeout time.Duration,
) domain.CheckInService {
	return &checkInService{
		eventRepo:      eventRepo,
		formRepo:       formRepo,
		responseRepo:   responseRepo,
		checkInRepo:    checkInRepo,
		cache:          cache,
		gate:           gate,
		metrics:        m,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// admission is the shared outcome of one Admit call. fresh is true until the
// one caller that owns the created record claims it.
type admission struct {
	rec   *domain.CheckInRecord
	fresh atomic.Bool
}

func (s *checkInService) CheckIn(ctx context.Context, eventID, formID string, scanned domain.ScannedCredential, principalID string) (*domain.CheckInResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	result, outcome, err := s.checkIn(ctx, eventID, formID, scanned, principalID)
	if err != nil {
		outcome = metrics.OutcomeError
	}
	s.metrics.ObserveCheckIn(outcome, start)
	return result, err
}

func (s *checkInService) checkIn(ctx context.Context, eventID, formID string, scanned domain.ScannedCredential, principalID string) (*domain.CheckInResult, string, error) {
	if err := checkIDs(eventID, formID); err != nil {
		return nil, "", err
	}
	participantID := strings.TrimSpace(scanned.ParticipantID)
	code := strings.TrimSpace(scanned.CheckInCode)
	if participantID == "" || code == "" {
		return nil, "", fmt.Errorf("%w: participantId and checkInCode are required", domain.ErrMalformedCredential)
	}
	if _, err := uuid.Parse(participantID); err != nil {
		return nil, "", fmt.Errorf("%w: participantId is not a valid id", domain.ErrMalformedCredential)
	}

	event, err := loadEvent(ctx, s.eventRepo, eventID)
	if err != nil {
		return nil, "", err
	}
	ok, err := s.gate.CanCheckIn(ctx, principalID, event)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", domain.ErrForbidden
	}
	form, err := loadForm(ctx, s.formRepo, eventID, formID)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.responseRepo.GetForCheckIn(ctx, form.ID, eventID, participantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.InfoContext(ctx, "check-in credential has no response",
				"form_id", form.ID,
				"participant_id", participantID,
			)
			return &domain.CheckInResult{Valid: false, Reason: domain.ReasonParticipantNotFound}, metrics.OutcomeNotFound, nil
		}
		return nil, "", fmt.Errorf("get response: %w", err)
	}

	key := domain.CheckInKey{FormID: form.ID, EventID: eventID, ParticipantID: resp.ID}
	if cached, err := s.cache.Get(ctx, key); err == nil {
		return alreadyCheckedIn(cached), metrics.OutcomeAlreadyChecked, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "check-in cache read failed", "key", key.String(), "error", err)
	}

	rec := &domain.CheckInRecord{
		FormID:           form.ID,
		EventID:          eventID,
		ParticipantID:    resp.ID,
		ParticipantName:  resp.ParticipantName,
		ParticipantEmail: resp.ParticipantEmail,
		CheckInCode:      code,
		CheckedInBy:      principalID,
		CheckedInAt:      s.now().UTC().Truncate(time.Microsecond),
		QRData:           scanned.Raw,
	}
	stored, created, err := s.admit(ctx, rec)
	if err != nil {
		return nil, "", err
	}
	if err := s.cache.Put(ctx, stored); err != nil {
		s.logger.WarnContext(ctx, "check-in cache write failed", "key", key.String(), "error", err)
	}

	if !created {
		return alreadyCheckedIn(stored), metrics.OutcomeAlreadyChecked, nil
	}
	s.logger.InfoContext(ctx, "participant checked in",
		"check_in_id", stored.ID,
		"participant_id", stored.ParticipantID,
		"checked_in_by", stored.CheckedInBy,
	)
	at := stored.CheckedInAt
	return &domain.CheckInResult{
		Valid:       true,
		CheckInID:   stored.ID,
		CheckedInAt: &at,
		CheckedInBy: stored.CheckedInBy,
	}, metrics.OutcomeAdmitted, nil
}

// admit collapses concurrent scans of one key in this process into a single
// storage call. Across processes the storage uniqueness constraint decides.
// The shared call is detached from the first caller's context so one
// operator's cancellation cannot fail the scans waiting on it; each caller
// still stops waiting when its own context ends.
func (s *checkInService) admit(ctx context.Context, rec *domain.CheckInRecord) (*domain.CheckInRecord, bool, error) {
	ch := s.group.DoChan(rec.Key().String(), func() (any, error) {
		admitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
		defer cancel()
		stored, created, err := s.checkInRepo.Admit(admitCtx, rec)
		if err != nil {
			return nil, err
		}
		a := &admission{rec: stored}
		a.fresh.Store(created)
		return a, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("admit check-in: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, false, fmt.Errorf("admit check-in: %w", res.Err)
		}
		a := res.Val.(*admission)
		return a.rec, a.fresh.CompareAndSwap(true, false), nil
	}
}

func (s *checkInService) ListCheckIns(ctx context.Context, eventID, formID, principalID string, params domain.PaginationParams) ([]*domain.CheckInRecord, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := checkIDs(eventID, formID); err != nil {
		return nil, 0, err
	}
	event, err := loadEvent(ctx, s.eventRepo, eventID)
	if err != nil {
		return nil, 0, err
	}
	ok, err := s.gate.CanCheckIn(ctx, principalID, event)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, domain.ErrForbidden
	}
	form, err := loadForm(ctx, s.formRepo, eventID, formID)
	if err != nil {
		return nil, 0, err
	}
	recs, total, err := s.checkInRepo.ListByFormID(ctx, form.ID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list check-ins: %w", err)
	}
	if recs == nil {
		recs = []*domain.CheckInRecord{}
	}
	return recs, total, nil
}

func alreadyCheckedIn(rec *domain.CheckInRecord) *domain.CheckInResult {
	at := rec.CheckedInAt
	return &domain.CheckInResult{
		Valid:            true,
		AlreadyCheckedIn: true,
		CheckInID:        rec.ID,
		CheckedInAt:      &at,
		CheckedInBy:      rec.CheckedInBy,
	}
}
