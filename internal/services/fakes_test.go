package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"eventticketing/internal/domain"
	"eventticketing/internal/metrics"
)

var errStorage = errors.New("storage unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID map[string]*domain.Event
	err  error
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[string]*domain.Event)}
	for _, e := range events {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

// fakeMembershipRepo maps communityID:userID to a role.
type fakeMembershipRepo struct {
	roles map[string]domain.Role
	err   error
}

func (f *fakeMembershipRepo) GetRole(ctx context.Context, communityID, userID string) (domain.Role, error) {
	if f.err != nil {
		return domain.RoleNone, f.err
	}
	if role, ok := f.roles[communityID+":"+userID]; ok {
		return role, nil
	}
	return domain.RoleNone, nil
}

// fakeFormRepo is an in-memory FormRepository for tests.
type fakeFormRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Form
	err  error
}

func newFakeFormRepo(forms ...*domain.Form) *fakeFormRepo {
	f := &fakeFormRepo{byID: make(map[string]*domain.Form)}
	for _, form := range forms {
		f.byID[form.ID] = form
	}
	return f
}

func (f *fakeFormRepo) Create(ctx context.Context, form *domain.Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	form.ID = uuid.NewString()
	cp := *form
	f.byID[form.ID] = &cp
	return nil
}

func (f *fakeFormRepo) GetByID(ctx context.Context, id string) (*domain.Form, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	form, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *form
	return &cp, nil
}

func (f *fakeFormRepo) Update(ctx context.Context, form *domain.Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[form.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *form
	f.byID[form.ID] = &cp
	return nil
}

// fakeResponseRepo is an in-memory ResponseRepository for tests.
type fakeResponseRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Response
	createErr error
}

func newFakeResponseRepo(resps ...*domain.Response) *fakeResponseRepo {
	f := &fakeResponseRepo{byID: make(map[string]*domain.Response)}
	for _, r := range resps {
		f.byID[r.ID] = r
	}
	return f
}

func (f *fakeResponseRepo) Create(ctx context.Context, resp *domain.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	resp.ID = uuid.NewString()
	cp := *resp
	f.byID[resp.ID] = &cp
	return nil
}

func (f *fakeResponseRepo) GetForCheckIn(ctx context.Context, formID, eventID, responseID string) (*domain.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[responseID]
	if !ok || r.FormID != formID || r.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResponseRepo) ListByFormID(ctx context.Context, formID string, params domain.PaginationParams) ([]*domain.Response, int, error) {
	all, _ := f.ListAllByFormID(ctx, formID)
	total := len(all)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)
	return all[start:end], total, nil
}

func (f *fakeResponseRepo) ListAllByFormID(ctx context.Context, formID string) ([]*domain.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Response
	for _, r := range f.byID {
		if r.FormID == formID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeResponseRepo) markCheckedIn(id, by string, at time.Time) bool {
	r, ok := f.byID[id]
	if !ok {
		return false
	}
	r.CheckedIn = true
	r.CheckedInAt = &at
	r.CheckedInBy = by
	return true
}

// fakeCheckInRepo emulates the unique (form, event, participant) constraint.
// With precision set, stored times are truncated the way a database column
// would while the created record echoes the caller's value. With hold set,
// Admit signals entered and blocks until hold is closed or ctx ends.
type fakeCheckInRepo struct {
	mu        sync.Mutex
	byKey     map[domain.CheckInKey]*domain.CheckInRecord
	responses *fakeResponseRepo
	admits    int
	err       error
	precision time.Duration
	hold      chan struct{}
	entered   chan struct{}
}

func newFakeCheckInRepo(responses *fakeResponseRepo) *fakeCheckInRepo {
	return &fakeCheckInRepo{byKey: make(map[domain.CheckInKey]*domain.CheckInRecord), responses: responses}
}

func (f *fakeCheckInRepo) Admit(ctx context.Context, rec *domain.CheckInRecord) (*domain.CheckInRecord, bool, error) {
	if f.hold != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
		select {
		case <-f.hold:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admits++
	if f.err != nil {
		return nil, false, f.err
	}
	if existing, ok := f.byKey[rec.Key()]; ok {
		cp := *existing
		return &cp, false, nil
	}
	f.responses.mu.Lock()
	marked := f.responses.markCheckedIn(rec.ParticipantID, rec.CheckedInBy, rec.CheckedInAt)
	f.responses.mu.Unlock()
	if !marked {
		return nil, false, domain.ErrResponseNotFound
	}
	created := *rec
	created.ID = uuid.NewString()
	stored := created
	if f.precision > 0 {
		stored.CheckedInAt = stored.CheckedInAt.Truncate(f.precision)
	}
	f.byKey[rec.Key()] = &stored
	return &created, true, nil
}

func (f *fakeCheckInRepo) Get(ctx context.Context, key domain.CheckInKey) (*domain.CheckInRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byKey[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeCheckInRepo) ListByFormID(ctx context.Context, formID string, params domain.PaginationParams) ([]*domain.CheckInRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.CheckInRecord
	for _, rec := range f.byKey {
		if rec.FormID == formID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeCheckInRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byKey)
}

// fakeCheckInCache is a map-backed CheckInCache with first-write-wins puts.
type fakeCheckInCache struct {
	mu     sync.Mutex
	byKey  map[domain.CheckInKey]*domain.CheckInRecord
	getErr error
}

func newFakeCheckInCache() *fakeCheckInCache {
	return &fakeCheckInCache{byKey: make(map[domain.CheckInKey]*domain.CheckInRecord)}
}

func (f *fakeCheckInCache) Get(ctx context.Context, key domain.CheckInKey) (*domain.CheckInRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.byKey[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeCheckInCache) Put(ctx context.Context, rec *domain.CheckInRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byKey[rec.Key()]; !ok {
		cp := *rec
		f.byKey[rec.Key()] = &cp
	}
	return nil
}

// fakeIssuer records issued responses and optionally fails.
type fakeIssuer struct {
	mu     sync.Mutex
	issued []string
	failOn map[string]bool
	err    error
}

func (f *fakeIssuer) Issue(ctx context.Context, resp *domain.Response, event *domain.Event, settings domain.TicketSettings) (*domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil || f.failOn[resp.ID] {
		return nil, errors.Join(domain.ErrTicketDispatch, errors.New("smtp down"))
	}
	f.issued = append(f.issued, resp.ID)
	return &domain.Credential{ParticipantID: resp.ID}, nil
}

func (f *fakeIssuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.issued)
}

// fakeMailer captures sent messages.
type fakeMailer struct {
	sent []*domain.EmailMessage
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg *domain.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// fakeRenderer echoes the template data back into the rendered parts.
type fakeRenderer struct {
	lastName string
	lastData any
	err      error
}

func (f *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	if f.err != nil {
		return "", "", "", f.err
	}
	f.lastName = name
	f.lastData = data
	td := data.(*domain.TicketEmailData)
	return td.Subject, "<p>" + td.RecipientName + "</p>", td.RecipientName, nil
}

// fakeQR returns the payload unchanged so tests can decode it.
type fakeQR struct{}

func (fakeQR) Encode(payload []byte) ([]byte, error) {
	return append([]byte(nil), payload...), nil
}

// fixture is the shared world used by service tests.
type fixture struct {
	community string
	admin     string
	member    string
	outsider  string
	event     *domain.Event
	form      *domain.Form
	events    *fakeEventRepo
	forms     *fakeFormRepo
	responses *fakeResponseRepo
	checkIns  *fakeCheckInRepo
	cache     *fakeCheckInCache
	gate      domain.AccessGate
	members   *fakeMembershipRepo
}

func newFixture() *fixture {
	fx := &fixture{
		community: uuid.NewString(),
		admin:     "admin-1",
		member:    "volunteer-1",
		outsider:  "stranger-1",
	}
	fx.event = &domain.Event{ID: uuid.NewString(), CommunityID: fx.community, Title: "GopherCon", Date: "2026-11-20", Time: "09:00"}
	fx.form = &domain.Form{
		ID:      uuid.NewString(),
		EventID: fx.event.ID,
		Title:   "F1",
		Fields: []domain.FormField{
			{ID: "name", Label: "Name", Type: domain.FieldText, Required: true},
			{ID: "email", Label: "Email", Type: domain.FieldEmail, Required: true},
			{ID: "size", Label: "Size", Type: domain.FieldSelect, Options: []string{"S", "M", "L"}},
		},
		Ticket: domain.TicketSettings{IncludeQR: true},
	}
	fx.events = newFakeEventRepo(fx.event)
	fx.forms = newFakeFormRepo(fx.form)
	fx.responses = newFakeResponseRepo()
	fx.checkIns = newFakeCheckInRepo(fx.responses)
	fx.cache = newFakeCheckInCache()
	fx.members = &fakeMembershipRepo{roles: map[string]domain.Role{
		fx.community + ":" + fx.admin:  domain.RoleAdmin,
		fx.community + ":" + fx.member: domain.RoleMember,
	}}
	fx.gate = NewAccessGate(fx.members)
	return fx
}

// addResponse stores an unchecked response on the fixture's form.
func (fx *fixture) addResponse(name string) *domain.Response {
	resp := domain.NewResponse(fx.form.ID, fx.event.ID, "", name, name+"@example.com", map[string]any{"name": name}, time.Now())
	resp.ID = uuid.NewString()
	fx.responses.mu.Lock()
	fx.responses.byID[resp.ID] = resp
	fx.responses.mu.Unlock()
	return resp
}
