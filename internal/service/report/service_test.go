package report

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockSessionRepo struct {
	ListCompletedFunc     func(ctx context.Context, patientID uuid.UUID) ([]domain.Session, error)
	EarliestCompletedFunc func(ctx context.Context, patientID uuid.UUID) (*domain.Session, error)
}

func (m *mockSessionRepo) ListCompleted(ctx context.Context, patientID uuid.UUID) ([]domain.Session, error) {
	if m.ListCompletedFunc != nil {
		return m.ListCompletedFunc(ctx, patientID)
	}
	return nil, nil
}

func (m *mockSessionRepo) EarliestCompleted(ctx context.Context, patientID uuid.UUID) (*domain.Session, error) {
	if m.EarliestCompletedFunc != nil {
		return m.EarliestCompletedFunc(ctx, patientID)
	}
	return nil, domain.ErrNotFound
}

type mockProfileRepo struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Profile{ID: id, Name: "Carmen", Role: domain.RolePatient}, nil
}

type mockDetailer struct {
	GetDetailFunc func(ctx context.Context, sessionID uuid.UUID) (*domain.SessionDetail, error)
}

func (m *mockDetailer) GetDetail(ctx context.Context, sessionID uuid.UUID) (*domain.SessionDetail, error) {
	if m.GetDetailFunc != nil {
		return m.GetDetailFunc(ctx, sessionID)
	}
	return &domain.SessionDetail{Session: domain.Session{ID: sessionID}}, nil
}

type mockCache struct {
	GetFunc func(ctx context.Context, patientID uuid.UUID) (*domain.SessionDetail, bool, error)
	SetFunc func(ctx context.Context, patientID uuid.UUID, detail *domain.SessionDetail) error
}

func (m *mockCache) Get(ctx context.Context, patientID uuid.UUID) (*domain.SessionDetail, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, patientID)
	}
	return nil, false, nil
}

func (m *mockCache) Set(ctx context.Context, patientID uuid.UUID, detail *domain.SessionDetail) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, patientID, detail)
	}
	return nil
}

// ===========================================================================
// Helpers
// ===========================================================================

type testDeps struct {
	sessions *mockSessionRepo
	profiles *mockProfileRepo
	details  *mockDetailer
	cache    *mockCache
}

func newTestService() (*Service, *testDeps) {
	deps := &testDeps{
		sessions: &mockSessionRepo{},
		profiles: &mockProfileRepo{},
		details:  &mockDetailer{},
		cache:    &mockCache{},
	}
	svc := NewService(slog.Default(), deps.sessions, deps.profiles, deps.details, deps.cache, time.Second)
	return svc, deps
}

func twoSessions() []domain.Session {
	done := day0.Add(time.Hour)
	return []domain.Session{
		{
			ID: uuid.New(), Status: domain.SessionStatusCompleted, CreatedAt: day0, CompletedAt: &done,
			Rates:       &domain.Rates{Total: 0.4, Exactness: 0.5},
			Conclusions: &domain.Conclusions{Technical: "t1", Plain: "p1"},
		},
		{
			ID: uuid.New(), Status: domain.SessionStatusCompleted, CreatedAt: day0.Add(48 * time.Hour),
			Rates: &domain.Rates{Total: 0.6, Exactness: 0.7},
		},
	}
}

// ===========================================================================
// BuildReport
// ===========================================================================

func TestService_BuildReport(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	patientID := uuid.New()
	sessions := twoSessions()

	deps.sessions.ListCompletedFunc = func(ctx context.Context, id uuid.UUID) ([]domain.Session, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		assert.Equal(t, patientID, id)
		return sessions, nil
	}

	got, err := svc.BuildReport(context.Background(), patientID)
	require.NoError(t, err)
	assert.Equal(t, "Carmen", got.PatientName)
	assert.Equal(t, 2, got.Summary.Count)
	assert.Equal(t, domain.TrendImproving, got.Summary.Trend)
	require.NotNil(t, got.Period.From)
	require.NotNil(t, got.Period.To)
	assert.Equal(t, day0, *got.Period.From)
	assert.Equal(t, day0.Add(48*time.Hour), *got.Period.To)
	require.NotNil(t, got.Summary.SlopePerDay)
	assert.InDelta(t, 0.1, *got.Summary.SlopePerDay, 1e-9)
}

func TestService_BuildReport_Empty(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService()

	got, err := svc.BuildReport(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, got.Summary.Count)
	assert.Equal(t, domain.TrendStable, got.Summary.Trend)
	assert.Nil(t, got.Period.From)
	assert.NotNil(t, got.Sessions)
	assert.Empty(t, got.Sessions)
}

func TestService_BuildReport_PatientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile func(id uuid.UUID) (*domain.Profile, error)
		want    error
	}{
		{
			name:    "unknown profile",
			profile: func(uuid.UUID) (*domain.Profile, error) { return nil, domain.ErrNotFound },
			want:    domain.ErrNotFound,
		},
		{
			name: "not a patient",
			profile: func(id uuid.UUID) (*domain.Profile, error) {
				return &domain.Profile{ID: id, Role: domain.RoleCaregiver}, nil
			},
			want: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, deps := newTestService()
			deps.profiles.GetByIDFunc = func(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
				return tt.profile(id)
			}

			_, err := svc.BuildReport(context.Background(), uuid.New())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_BuildReport_SessionsError(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	deps.sessions.ListCompletedFunc = func(_ context.Context, _ uuid.UUID) ([]domain.Session, error) {
		return nil, errors.New("db down")
	}

	_, err := svc.BuildReport(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "db down")
}

// longHistory returns n daily sessions where only the last one scores 0.9.
func longHistory(n int) []domain.Session {
	out := make([]domain.Session, n)
	for i := range out {
		total := 0.3
		if i == n-1 {
			total = 0.9
		}
		out[i] = completed(day0.Add(time.Duration(i)*24*time.Hour), total, 0.5)
		out[i].ID = uuid.New()
	}
	return out
}

func TestService_BuildReport_LongHistory(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	history := longHistory(501)
	deps.sessions.ListCompletedFunc = func(_ context.Context, _ uuid.UUID) ([]domain.Session, error) {
		return history, nil
	}

	got, err := svc.BuildReport(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 501, got.Summary.Count)
	assert.Len(t, got.Sessions, 501)
	assert.InDelta(t, 0.9, got.Summary.LastSessionTotal, 1e-9)
	assert.Equal(t, domain.TrendImproving, got.Summary.Trend)
	require.NotNil(t, got.Period.To)
	assert.Equal(t, day0.Add(500*24*time.Hour), *got.Period.To)
}

// ===========================================================================
// BuildBaseline
// ===========================================================================

func TestService_BuildBaseline_None(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	deps.cache.SetFunc = func(_ context.Context, _ uuid.UUID, _ *domain.SessionDetail) error {
		t.Fatal("nothing to cache")
		return nil
	}

	got, err := svc.BuildBaseline(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestService_BuildBaseline_MissFillsCache(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	patientID, sessionID := uuid.New(), uuid.New()

	deps.sessions.EarliestCompletedFunc = func(_ context.Context, id uuid.UUID) (*domain.Session, error) {
		assert.Equal(t, patientID, id)
		return &domain.Session{ID: sessionID, PatientID: patientID}, nil
	}
	var cached *domain.SessionDetail
	deps.cache.SetFunc = func(_ context.Context, _ uuid.UUID, d *domain.SessionDetail) error {
		cached = d
		return nil
	}

	got, err := svc.BuildBaseline(context.Background(), patientID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sessionID, got.Session.ID)
	assert.Same(t, got, cached)
}

func TestService_BuildBaseline_CacheHit(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	hit := &domain.SessionDetail{Session: domain.Session{ID: uuid.New()}}

	deps.cache.GetFunc = func(_ context.Context, _ uuid.UUID) (*domain.SessionDetail, bool, error) {
		return hit, true, nil
	}
	deps.sessions.EarliestCompletedFunc = func(_ context.Context, _ uuid.UUID) (*domain.Session, error) {
		t.Fatal("cache hit must not query the store")
		return nil, nil
	}

	got, err := svc.BuildBaseline(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Same(t, hit, got)
}

func TestService_BuildBaseline_CacheFailureFallsThrough(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()

	deps.cache.GetFunc = func(_ context.Context, _ uuid.UUID) (*domain.SessionDetail, bool, error) {
		return nil, false, errors.New("redis down")
	}
	deps.cache.SetFunc = func(_ context.Context, _ uuid.UUID, _ *domain.SessionDetail) error {
		return errors.New("redis down")
	}
	deps.sessions.EarliestCompletedFunc = func(_ context.Context, _ uuid.UUID) (*domain.Session, error) {
		return &domain.Session{ID: uuid.New()}, nil
	}

	got, err := svc.BuildBaseline(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestService_BuildBaseline_NoCache(t *testing.T) {
	t.Parallel()
	deps := &testDeps{sessions: &mockSessionRepo{}, profiles: &mockProfileRepo{}, details: &mockDetailer{}}
	svc := NewService(slog.Default(), deps.sessions, deps.profiles, deps.details, nil, 0)

	deps.sessions.EarliestCompletedFunc = func(_ context.Context, _ uuid.UUID) (*domain.Session, error) {
		return &domain.Session{ID: uuid.New()}, nil
	}

	got, err := svc.BuildBaseline(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, got)
}

// ===========================================================================
// ExportReport
// ===========================================================================

func TestService_ExportReport(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	deps.sessions.ListCompletedFunc = func(_ context.Context, _ uuid.UUID) ([]domain.Session, error) {
		return twoSessions(), nil
	}

	data, report, err := svc.ExportReport(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, 2, report.Summary.Count)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, sessionsSheet}, f.GetSheetList())

	name, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Carmen", name)

	trend, err := f.GetCellValue(summarySheet, "B10")
	require.NoError(t, err)
	assert.Equal(t, string(domain.TrendImproving), trend)

	rows, err := f.GetRows(sessionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, sessionsHeader, rows[0])
	assert.Equal(t, "p1", rows[1][len(sessionsHeader)-1])
}

func TestService_ExportReport_LongHistory(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService()
	deps.sessions.ListCompletedFunc = func(_ context.Context, _ uuid.UUID) ([]domain.Session, error) {
		return longHistory(501), nil
	}

	data, _, err := svc.ExportReport(context.Background(), uuid.New())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sessionsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 502)
}
