package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkdirekt/booking-be/internal/booking/domain"
	"github.com/tolkdirekt/booking-be/internal/booking/lifecycle"
	"github.com/tolkdirekt/booking-be/internal/booking/matching"
	"github.com/tolkdirekt/booking-be/internal/booking/notify"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time    { return c.now }
func (c *fakeClock) IsNightTime() bool { return false }
func (c *fakeClock) NextBusinessTime() time.Time {
	return c.now.Add(12 * time.Hour)
}

// fakeStore is an in-memory Store. The mutex makes the acceptance guard
// behave like the database's conditional update under concurrent calls.
type fakeStore struct {
	mu          sync.Mutex
	nextJobID   int64
	nextRelID   int64
	jobs        map[int64]*domain.Job
	assignments map[int64]*domain.TranslatorAssignment
	users       map[int64]*domain.User
	meta        map[int64]*domain.UserMeta
	languages   map[int64][]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextJobID:   1,
		nextRelID:   1,
		jobs:        map[int64]*domain.Job{},
		assignments: map[int64]*domain.TranslatorAssignment{},
		users:       map[int64]*domain.User{},
		meta:        map[int64]*domain.UserMeta{},
		languages:   map[int64][]int64{},
	}
}

func (f *fakeStore) FindJob(ctx context.Context, id int64) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (f *fakeStore) CreateJob(ctx context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.ID = f.nextJobID
	f.nextJobID++
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeStore) SaveJob(ctx context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeStore) MarkAssigned(ctx context.Context, jobID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok || j.Status != domain.StatusPending {
		return false, nil
	}
	j.Status = domain.StatusAssigned
	return true, nil
}

func (f *fakeStore) FindActiveAssignment(ctx context.Context, jobID int64) (*domain.TranslatorAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.JobID == jobID && a.Active() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateAssignment(ctx context.Context, a *domain.TranslatorAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.nextRelID
	f.nextRelID++
	cp := *a
	f.assignments[a.ID] = &cp
	return nil
}

func (f *fakeStore) CancelAssignment(ctx context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.assignments[id]; ok {
		a.CancelAt = &at
	}
	return nil
}

func (f *fakeStore) CancelActiveAssignments(ctx context.Context, jobID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.JobID == jobID && a.Active() {
			a.CancelAt = &at
		}
	}
	return nil
}

func (f *fakeStore) CompleteAssignment(ctx context.Context, id int64, at time.Time, by int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.assignments[id]; ok {
		a.CompletedAt = &at
		a.CompletedBy = &by
	}
	return nil
}

func (f *fakeStore) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeStore) MetaFor(ctx context.Context, userID int64) (*domain.UserMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meta[userID]
	if !ok {
		return &domain.UserMeta{UserID: userID}, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) LanguagesFor(ctx context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.languages[userID]...), nil
}

func (f *fakeStore) TranslatorBooked(ctx context.Context, userID int64, due time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.UserID != userID || !a.Active() {
			continue
		}
		if j, ok := f.jobs[a.JobID]; ok && j.Due.Equal(due) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) JobsByUser(ctx context.Context, userID int64, statuses []domain.Status) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Job
	for _, j := range f.jobs {
		if j.UserID == userID && statusIn(j.Status, statuses) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) JobsByTranslator(ctx context.Context, userID int64, statuses []domain.Status) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Job
	for _, a := range f.assignments {
		if a.UserID != userID || !a.Active() {
			continue
		}
		if j, ok := f.jobs[a.JobID]; ok && statusIn(j.Status, statuses) {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) JobsHistoryByUser(ctx context.Context, userID int64, statuses []domain.Status, page, pageSize int) ([]domain.Job, int, error) {
	jobs, _ := f.JobsByUser(ctx, userID, statuses)
	return jobs, len(jobs), nil
}

func (f *fakeStore) JobsHistoryByTranslator(ctx context.Context, userID int64, statuses []domain.Status, page, pageSize int) ([]domain.Job, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Job
	for _, a := range f.assignments {
		if a.UserID != userID || a.CompletedAt == nil {
			continue
		}
		if j, ok := f.jobs[a.JobID]; ok && statusIn(j.Status, statuses) {
			out = append(out, *j)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) PendingJobsForType(ctx context.Context, jobType domain.JobType) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Job
	for _, j := range f.jobs {
		if j.Status == domain.StatusPending && j.JobType == jobType {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Job
	for _, j := range f.jobs {
		if len(filter.Statuses) > 0 && !statusIn(j.Status, filter.Statuses) {
			continue
		}
		out = append(out, *j)
	}
	return out, nil
}

func statusIn(s domain.Status, list []domain.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *fakeStore) activeAssignments(jobID int64) []*domain.TranslatorAssignment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.TranslatorAssignment
	for _, a := range f.assignments {
		if a.JobID == jobID && a.Active() {
			out = append(out, a)
		}
	}
	return out
}

type noopSink struct{}

func (noopSink) Publish(ctx context.Context, e domain.Event) {}

type fakeDirectory struct {
	store *fakeStore
}

func (d *fakeDirectory) ActiveTranslators(ctx context.Context, job *domain.Job, excludeUserID int64) ([]matching.Candidate, error) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	var out []matching.Candidate
	for _, u := range d.store.users {
		if u.UserType != domain.UserTypeTranslator || u.Status != domain.UserStatusActive || u.ID == excludeUserID {
			continue
		}
		meta := d.store.meta[u.ID]
		if meta == nil {
			meta = &domain.UserMeta{UserID: u.ID}
		}
		out = append(out, matching.Candidate{
			User:        *u,
			Meta:        *meta,
			LanguageIDs: append([]int64(nil), d.store.languages[u.ID]...),
		})
	}
	return out, nil
}

func (d *fakeDirectory) AssignedTranslator(ctx context.Context, jobID int64) (*domain.User, error) {
	a, _ := d.store.FindActiveAssignment(ctx, jobID)
	if a == nil {
		return nil, nil
	}
	return d.store.UserByID(ctx, a.UserID)
}

func (d *fakeDirectory) MetaFor(ctx context.Context, userID int64) (*domain.UserMeta, error) {
	return d.store.MetaFor(ctx, userID)
}

func (d *fakeDirectory) LanguageName(ctx context.Context, languageID int64) (string, error) {
	return "engelska", nil
}

type noopPush struct{}

func (noopPush) SendPush(ctx context.Context, p notify.PushPayload) error { return nil }

type recordPush struct {
	mu       sync.Mutex
	payloads []notify.PushPayload
}

func (r *recordPush) SendPush(ctx context.Context, p notify.PushPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	return nil
}

func newTestService(t *testing.T, store *fakeStore, clock *fakeClock) *Service {
	t.Helper()
	return newTestServiceWithPush(t, store, clock, noopPush{})
}

func newTestServiceWithPush(t *testing.T, store *fakeStore, clock *fakeClock, push notify.PushSender) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := notify.NewDispatcher(notify.Config{
		Templates: notify.SwedishTemplates{},
		Email:     &notify.LogEmailSender{Logger: logger},
		SMS:       &notify.LogSMSSender{Logger: logger},
		Push:      push,
		Directory: &fakeDirectory{store: store},
		Matcher:   matching.New(),
		Clock:     clock,
		Logger:    logger,
	})
	return New(Config{
		Store:        store,
		Engine:       lifecycle.NewEngine(clock, logger),
		Dispatcher:   dispatcher,
		Matcher:      matching.New(),
		Clock:        clock,
		Events:       noopSink{},
		Logger:       logger,
		SupportPhone: "+46 73 75 86 865",
	})
}

func seedCustomer(store *fakeStore, id int64) {
	store.users[id] = &domain.User{
		ID: id, Name: "Kund", Email: "kund@example.com",
		UserType: domain.UserTypeCustomer, Status: domain.UserStatusActive,
	}
	store.meta[id] = &domain.UserMeta{UserID: id, ConsumerType: "paid"}
}

func seedTranslator(store *fakeStore, id int64, email string) {
	store.users[id] = &domain.User{
		ID: id, Name: "Tolk", Email: email,
		UserType: domain.UserTypeTranslator, Status: domain.UserStatusActive,
	}
	store.meta[id] = &domain.UserMeta{UserID: id, TranslatorType: domain.TranslatorTypeProfessional}
	store.languages[id] = []int64{3}
}

func TestStore_PastDueRejected(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	svc := newTestService(t, store, &fakeClock{now: now})

	_, err := svc.Store(context.Background(), CreateParams{
		UserID:       1,
		Due:          now.Add(-time.Hour),
		Duration:     60,
		FromLanguage: 3,
		PhoneType:    true,
	})

	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureValidation, f.Kind)
	assert.Equal(t, "past_due", f.Code)
	assert.Empty(t, store.jobs)
}

func TestStore_ImmediateOverridesDueAndPhone(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	svc := newTestService(t, store, &fakeClock{now: now})

	job, err := svc.Store(context.Background(), CreateParams{
		UserID:       1,
		Immediate:    true,
		Due:          now.Add(-48 * time.Hour), // ignored
		Duration:     30,
		FromLanguage: 3,
		PhysicalType: true,
	})

	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), job.Due)
	assert.True(t, job.CustomerPhoneType)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, domain.JobTypePaid, job.JobType)
}

func TestStore_TranslatorCannotCreate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedTranslator(store, 2, "tolk@example.com")
	svc := newTestService(t, store, &fakeClock{now: now})

	_, err := svc.Store(context.Background(), CreateParams{
		UserID:       2,
		Immediate:    true,
		FromLanguage: 3,
	})

	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "translator_cannot_create", f.Code)
}

func TestAccept_ConcurrentOneWinner(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	seedTranslator(store, 3, "b@example.com")
	store.jobs[10] = &domain.Job{
		ID: 10, UserID: 1, Status: domain.StatusPending,
		Due: now.Add(48 * time.Hour), Duration: 60, FromLanguageID: 3,
		JobType: domain.JobTypePaid, CreatedAt: now,
	}
	svc := newTestService(t, store, &fakeClock{now: now})

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, translatorID := range []int64{2, 3} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := svc.Accept(context.Background(), 10, id)
			errs <- err
		}(translatorID)
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		f, ok := domain.AsFailure(err)
		require.True(t, ok)
		assert.Equal(t, domain.FailureConflict, f.Kind)
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	job, err := store.FindJob(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, job.Status)
	assert.Len(t, store.activeAssignments(10), 1)
}

func TestAccept_DoubleBookedTranslator(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	store.jobs[10] = &domain.Job{ID: 10, UserID: 1, Status: domain.StatusAssigned, Due: due, CreatedAt: now}
	store.jobs[11] = &domain.Job{ID: 11, UserID: 1, Status: domain.StatusPending, Due: due, CreatedAt: now}
	store.assignments[1] = &domain.TranslatorAssignment{ID: 1, JobID: 10, UserID: 2, CreatedAt: now}
	svc := newTestService(t, store, &fakeClock{now: now})

	_, err := svc.Accept(context.Background(), 11, 2)

	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "already_booked", f.Code)

	job, _ := store.FindJob(context.Background(), 11)
	assert.Equal(t, domain.StatusPending, job.Status)
}

func TestCancel_TranslatorInsideWindowRefused(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	store.jobs[10] = &domain.Job{ID: 10, UserID: 1, Status: domain.StatusAssigned, Due: now.Add(12 * time.Hour), CreatedAt: now}
	store.assignments[1] = &domain.TranslatorAssignment{ID: 1, JobID: 10, UserID: 2, CreatedAt: now}
	svc := newTestService(t, store, &fakeClock{now: now})

	_, err := svc.Cancel(context.Background(), 10, 2)

	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "inside_cancellation_window", f.Code)
	assert.Contains(t, f.Message, "+46 73 75 86 865")

	job, _ := store.FindJob(context.Background(), 10)
	assert.Equal(t, domain.StatusAssigned, job.Status)
	assert.Len(t, store.activeAssignments(10), 1)
}

func TestCancel_TranslatorOutsideWindowReleasesJob(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	store.jobs[10] = &domain.Job{ID: 10, UserID: 1, Status: domain.StatusAssigned, Due: now.Add(48 * time.Hour), CreatedAt: now.Add(-time.Hour)}
	store.assignments[1] = &domain.TranslatorAssignment{ID: 1, JobID: 10, UserID: 2, CreatedAt: now.Add(-time.Hour)}
	svc := newTestService(t, store, &fakeClock{now: now})

	job, err := svc.Cancel(context.Background(), 10, 2)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, now, job.CreatedAt)
	assert.Empty(t, store.activeAssignments(10))
}

func TestCancel_CustomerWithdrawClassification(t *testing.T) {
	tests := []struct {
		name       string
		untilDue   time.Duration
		wantStatus domain.Status
	}{
		{"two days ahead is before24", 48 * time.Hour, domain.StatusWithdrawBefore24},
		{"exactly the cutoff is before24", 24 * time.Hour, domain.StatusWithdrawBefore24},
		{"half a day ahead is after24", 12 * time.Hour, domain.StatusWithdrawAfter24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
			store := newFakeStore()
			seedCustomer(store, 1)
			seedTranslator(store, 2, "a@example.com")
			store.jobs[10] = &domain.Job{ID: 10, UserID: 1, Status: domain.StatusAssigned, Due: now.Add(tt.untilDue), CreatedAt: now.Add(-time.Hour)}
			store.assignments[1] = &domain.TranslatorAssignment{ID: 1, JobID: 10, UserID: 2, CreatedAt: now.Add(-time.Hour)}
			svc := newTestService(t, store, &fakeClock{now: now})

			job, err := svc.Cancel(context.Background(), 10, 1)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, job.Status)
			require.NotNil(t, job.WithdrawAt)
			assert.Equal(t, now, *job.WithdrawAt)
			assert.Empty(t, store.activeAssignments(10))
		})
	}
}

func TestEnd_ClosesStartedSession(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 5, 30, 0, time.UTC)
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	store.jobs[10] = &domain.Job{ID: 10, UserID: 1, Status: domain.StatusStarted, Due: due, CreatedAt: due.Add(-time.Hour)}
	store.assignments[1] = &domain.TranslatorAssignment{ID: 1, JobID: 10, UserID: 2, CreatedAt: due.Add(-time.Hour)}
	svc := newTestService(t, store, &fakeClock{now: now})

	job, err := svc.End(context.Background(), 10, 2)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, "2:05:30", job.SessionTime)
	require.NotNil(t, job.EndAt)

	a := store.assignments[1]
	require.NotNil(t, a.CompletedAt)
	require.NotNil(t, a.CompletedBy)
	assert.Equal(t, int64(2), *a.CompletedBy)
}

func TestEnd_NotStartedIsIdempotentSuccess(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	store.jobs[10] = &domain.Job{ID: 10, UserID: 1, Status: domain.StatusCompleted, Due: now.Add(-2 * time.Hour), SessionTime: "1:00:00"}
	svc := newTestService(t, store, &fakeClock{now: now})

	job, err := svc.End(context.Background(), 10, 2)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, "1:00:00", job.SessionTime)
}

func TestReopen_TimedOutSpawnsSuccessor(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	store.nextJobID = 11
	store.jobs[10] = &domain.Job{
		ID: 10, UserID: 1, Status: domain.StatusTimedOut,
		Due: now.Add(48 * time.Hour), Duration: 60, FromLanguageID: 3,
		JobType: domain.JobTypePaid, CreatedAt: now.Add(-72 * time.Hour),
		SessionTime: "stale",
	}
	svc := newTestService(t, store, &fakeClock{now: now})

	job, err := svc.Reopen(context.Background(), 10, 1)

	require.NoError(t, err)
	assert.NotEqual(t, int64(10), job.ID)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, "This booking is a reopening of booking #10", job.AdminComments)
	assert.Empty(t, job.SessionTime)
	assert.Equal(t, now, job.CreatedAt)

	// Original stays as history with a cancelled marker row.
	orig, _ := store.FindJob(context.Background(), 10)
	assert.Equal(t, domain.StatusTimedOut, orig.Status)
	var marker *domain.TranslatorAssignment
	for _, a := range store.assignments {
		if a.JobID == 10 {
			marker = a
		}
	}
	require.NotNil(t, marker)
	assert.NotNil(t, marker.CancelAt)
}

func TestReopen_OtherStatesResetInPlace(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	withdrawn := now.Add(-time.Hour)
	store.jobs[10] = &domain.Job{
		ID: 10, UserID: 1, Status: domain.StatusWithdrawBefore24,
		Due: now.Add(48 * time.Hour), CreatedAt: now.Add(-24 * time.Hour),
		WithdrawAt: &withdrawn,
	}
	store.assignments[1] = &domain.TranslatorAssignment{ID: 1, JobID: 10, UserID: 2, CreatedAt: now.Add(-24 * time.Hour)}
	svc := newTestService(t, store, &fakeClock{now: now})

	job, err := svc.Reopen(context.Background(), 10, 1)

	require.NoError(t, err)
	assert.Equal(t, int64(10), job.ID)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Nil(t, job.WithdrawAt)
	assert.Empty(t, store.activeAssignments(10))
}

func TestUpdate_RejectedTransitionPersistsNothing(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	store.jobs[10] = &domain.Job{
		ID: 10, UserID: 1, Status: domain.StatusCompleted,
		Due: now.Add(-time.Hour), AdminComments: "closed fine",
	}
	svc := newTestService(t, store, &fakeClock{now: now})

	_, err := svc.Update(context.Background(), UpdateParams{
		JobID:   10,
		ActorID: 99,
		Status:  domain.StatusTimedOut,
	})

	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureValidation, f.Kind)

	job, _ := store.FindJob(context.Background(), 10)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, "closed fine", job.AdminComments)
}

func TestUpdate_TranslatorEmailWinsOverID(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	seedTranslator(store, 3, "b@example.com")
	store.jobs[10] = &domain.Job{
		ID: 10, UserID: 1, Status: domain.StatusPending,
		Due: now.Add(48 * time.Hour), FromLanguageID: 3, CreatedAt: now,
	}
	svc := newTestService(t, store, &fakeClock{now: now})

	job, err := svc.Update(context.Background(), UpdateParams{
		JobID:           10,
		ActorID:         99,
		Status:          domain.StatusAssigned,
		TranslatorID:    2,
		TranslatorEmail: "b@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, job.Status)
	active := store.activeAssignments(10)
	require.Len(t, active, 1)
	assert.Equal(t, int64(3), active[0].UserID)
}

func TestUpdate_UnknownTranslatorEmail(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	store.jobs[10] = &domain.Job{ID: 10, UserID: 1, Status: domain.StatusPending, Due: now.Add(48 * time.Hour), CreatedAt: now}
	svc := newTestService(t, store, &fakeClock{now: now})

	_, err := svc.Update(context.Background(), UpdateParams{
		JobID:           10,
		TranslatorEmail: "nobody@example.com",
	})

	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureNotFound, f.Kind)
}

func TestUpdate_TranslatorSwapKeepsOneActiveAssignment(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	seedTranslator(store, 3, "b@example.com")
	store.nextRelID = 2
	store.jobs[10] = &domain.Job{ID: 10, UserID: 1, Status: domain.StatusAssigned, Due: now.Add(48 * time.Hour), FromLanguageID: 3, CreatedAt: now}
	store.assignments[1] = &domain.TranslatorAssignment{ID: 1, JobID: 10, UserID: 2, CreatedAt: now}
	svc := newTestService(t, store, &fakeClock{now: now})

	_, err := svc.Update(context.Background(), UpdateParams{
		JobID:        10,
		ActorID:      99,
		TranslatorID: 3,
	})

	require.NoError(t, err)
	active := store.activeAssignments(10)
	require.Len(t, active, 1)
	assert.Equal(t, int64(3), active[0].UserID)
	assert.NotNil(t, store.assignments[1].CancelAt)
}

func TestUpdate_EmailOfCurrentTranslatorReissuesAssignment(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	store.nextRelID = 2
	store.jobs[10] = &domain.Job{ID: 10, UserID: 1, Status: domain.StatusAssigned, Due: now.Add(48 * time.Hour), FromLanguageID: 3, CreatedAt: now.Add(-time.Hour)}
	store.assignments[1] = &domain.TranslatorAssignment{ID: 1, JobID: 10, UserID: 2, CreatedAt: now.Add(-time.Hour)}
	svc := newTestService(t, store, &fakeClock{now: now})

	_, err := svc.Update(context.Background(), UpdateParams{
		JobID:           10,
		ActorID:         99,
		TranslatorEmail: "a@example.com",
	})

	require.NoError(t, err)
	require.NotNil(t, store.assignments[1].CancelAt)
	active := store.activeAssignments(10)
	require.Len(t, active, 1)
	assert.Equal(t, int64(2), active[0].UserID)
	assert.NotEqual(t, int64(1), active[0].ID)
	assert.Equal(t, now, active[0].CreatedAt)
}

func TestResendNotifications_RebroadcastsToEligible(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	store.jobs[10] = &domain.Job{
		ID: 10, UserID: 1, Status: domain.StatusPending, Due: now.Add(48 * time.Hour),
		FromLanguageID: 3, JobType: domain.JobTypePaid, CreatedAt: now,
	}
	push := &recordPush{}
	svc := newTestServiceWithPush(t, store, &fakeClock{now: now}, push)

	err := svc.ResendNotifications(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, push.payloads, 1)
	assert.Equal(t, domain.NotifySuitableJob, push.payloads[0].NotificationType)
	assert.Equal(t, []string{"a@example.com"}, push.payloads[0].RecipientEmails)
	assert.Nil(t, push.payloads[0].SendAfter)
}

func TestResendSMSNotifications_CountsEligibleTranslators(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	store.meta[1].City = "Lund"
	seedTranslator(store, 2, "a@example.com")
	store.jobs[10] = &domain.Job{
		ID: 10, UserID: 1, Status: domain.StatusPending, Due: now.Add(48 * time.Hour),
		FromLanguageID: 3, JobType: domain.JobTypePaid, CreatedAt: now,
		CustomerPhoneType: true,
	}
	svc := newTestService(t, store, &fakeClock{now: now})

	sent, err := svc.ResendSMSNotifications(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestResendNotifications_UnknownJob(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, newFakeStore(), &fakeClock{now: now})

	err := svc.ResendNotifications(context.Background(), 99)

	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestPotentialJobs_FiltersByEligibility(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedCustomer(store, 1)
	seedTranslator(store, 2, "a@example.com")
	store.meta[2].City = "Stockholm"
	store.jobs[10] = &domain.Job{
		ID: 10, UserID: 1, Status: domain.StatusPending, Due: now.Add(24 * time.Hour),
		FromLanguageID: 3, JobType: domain.JobTypePaid, CreatedAt: now,
	}
	store.jobs[11] = &domain.Job{
		ID: 11, UserID: 1, Status: domain.StatusPending, Due: now.Add(24 * time.Hour),
		FromLanguageID: 5, JobType: domain.JobTypePaid, CreatedAt: now,
	}
	store.jobs[12] = &domain.Job{
		ID: 12, UserID: 1, Status: domain.StatusPending, Due: now.Add(24 * time.Hour),
		FromLanguageID: 3, JobType: domain.JobTypePaid, CreatedAt: now,
		CustomerPhysicalType: true, Town: "Göteborg",
	}
	svc := newTestService(t, store, &fakeClock{now: now})

	jobs, err := svc.PotentialJobs(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, int64(10), jobs[0].ID)
}
