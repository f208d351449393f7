package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockSessionRepo struct {
	CreateFunc         func(ctx context.Context, s domain.Session) (*domain.Session, error)
	SetActiveFunc      func(ctx context.Context, id uuid.UUID, active bool, now time.Time) (*domain.Session, error)
	UpdateStatusFunc   func(ctx context.Context, id uuid.UUID, status domain.SessionStatus, now time.Time) error
	CompleteFunc       func(ctx context.Context, id uuid.UUID, rates domain.Rates, c domain.Conclusions, now time.Time) (*domain.Session, error)
	AppendNoteFunc     func(ctx context.Context, id uuid.UUID, note domain.DoctorNote, now time.Time) (*domain.Session, error)
	ReplaceNotesFunc   func(ctx context.Context, id uuid.UUID, notes []domain.DoctorNote, now time.Time) (*domain.Session, error)
	DeleteFunc         func(ctx context.Context, id uuid.UUID) error
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	GetForUpdateFunc   func(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	CountCompletedFunc func(ctx context.Context, patientID uuid.UUID) (int, error)
	ListFunc           func(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, s domain.Session) (*domain.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	return &s, nil
}

func (m *mockSessionRepo) SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) (*domain.Session, error) {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active, now)
	}
	return &domain.Session{ID: id, Active: active}, nil
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus, now time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, now)
	}
	return nil
}

func (m *mockSessionRepo) Complete(ctx context.Context, id uuid.UUID, rates domain.Rates, c domain.Conclusions, now time.Time) (*domain.Session, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, id, rates, c, now)
	}
	return &domain.Session{ID: id, Status: domain.SessionStatusCompleted, Rates: &rates, Conclusions: &c}, nil
}

func (m *mockSessionRepo) AppendNote(ctx context.Context, id uuid.UUID, note domain.DoctorNote, now time.Time) (*domain.Session, error) {
	if m.AppendNoteFunc != nil {
		return m.AppendNoteFunc(ctx, id, note, now)
	}
	return &domain.Session{ID: id, Notes: []domain.DoctorNote{note}}, nil
}

func (m *mockSessionRepo) ReplaceNotes(ctx context.Context, id uuid.UUID, notes []domain.DoctorNote, now time.Time) (*domain.Session, error) {
	if m.ReplaceNotesFunc != nil {
		return m.ReplaceNotesFunc(ctx, id, notes, now)
	}
	return &domain.Session{ID: id, Notes: notes}, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionRepo) CountCompleted(ctx context.Context, patientID uuid.UUID) (int, error) {
	if m.CountCompletedFunc != nil {
		return m.CountCompletedFunc(ctx, patientID)
	}
	return 0, nil
}

func (m *mockSessionRepo) List(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, nil
}

type mockDescriptionRepo struct {
	CreateFunc              func(ctx context.Context, d domain.Description) (*domain.Description, error)
	GetBySessionImageFunc   func(ctx context.Context, sessionID, imageID uuid.UUID) (*domain.Description, error)
	ListBySessionFunc       func(ctx context.Context, sessionID uuid.UUID) ([]domain.Description, error)
	ClaimScoringFunc        func(ctx context.Context, id uuid.UUID, now, staleBefore time.Time) (bool, error)
	ReleaseScoringFunc      func(ctx context.Context, id uuid.UUID) error
	CreateScoreFunc         func(ctx context.Context, s domain.Score) (*domain.Score, error)
	ListScoresBySessionFunc func(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]domain.Score, error)
}

func (m *mockDescriptionRepo) Create(ctx context.Context, d domain.Description) (*domain.Description, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, d)
	}
	return &d, nil
}

func (m *mockDescriptionRepo) GetBySessionImage(ctx context.Context, sessionID, imageID uuid.UUID) (*domain.Description, error) {
	if m.GetBySessionImageFunc != nil {
		return m.GetBySessionImageFunc(ctx, sessionID, imageID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockDescriptionRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Description, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockDescriptionRepo) ClaimScoring(ctx context.Context, id uuid.UUID, now, staleBefore time.Time) (bool, error) {
	if m.ClaimScoringFunc != nil {
		return m.ClaimScoringFunc(ctx, id, now, staleBefore)
	}
	return true, nil
}

func (m *mockDescriptionRepo) ReleaseScoring(ctx context.Context, id uuid.UUID) error {
	if m.ReleaseScoringFunc != nil {
		return m.ReleaseScoringFunc(ctx, id)
	}
	return nil
}

func (m *mockDescriptionRepo) CreateScore(ctx context.Context, s domain.Score) (*domain.Score, error) {
	if m.CreateScoreFunc != nil {
		return m.CreateScoreFunc(ctx, s)
	}
	return &s, nil
}

func (m *mockDescriptionRepo) ListScoresBySession(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]domain.Score, error) {
	if m.ListScoresBySessionFunc != nil {
		return m.ListScoresBySessionFunc(ctx, sessionID)
	}
	return map[uuid.UUID]domain.Score{}, nil
}

type mockImageRepo struct {
	GetByIDsFunc        func(ctx context.Context, ids []uuid.UUID) ([]domain.ReferenceImage, error)
	GetGroundTruthFunc  func(ctx context.Context, imageID uuid.UUID) (*domain.GroundTruth, error)
	GetGroundTruthsFunc func(ctx context.Context, imageIDs []uuid.UUID) (map[uuid.UUID]domain.GroundTruth, error)
}

func (m *mockImageRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.ReferenceImage, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *mockImageRepo) GetGroundTruth(ctx context.Context, imageID uuid.UUID) (*domain.GroundTruth, error) {
	if m.GetGroundTruthFunc != nil {
		return m.GetGroundTruthFunc(ctx, imageID)
	}
	return &domain.GroundTruth{ImageID: imageID, Description: "referencia", Keywords: []string{"ana"}}, nil
}

func (m *mockImageRepo) GetGroundTruths(ctx context.Context, imageIDs []uuid.UUID) (map[uuid.UUID]domain.GroundTruth, error) {
	if m.GetGroundTruthsFunc != nil {
		return m.GetGroundTruthsFunc(ctx, imageIDs)
	}
	return map[uuid.UUID]domain.GroundTruth{}, nil
}

type mockReserver struct {
	TryReserveFunc func(ctx context.Context, imageIDs []uuid.UUID) error
}

func (m *mockReserver) TryReserve(ctx context.Context, imageIDs []uuid.UUID) error {
	if m.TryReserveFunc != nil {
		return m.TryReserveFunc(ctx, imageIDs)
	}
	return nil
}

type mockLinks struct {
	IsLinkedFunc func(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error)
}

func (m *mockLinks) IsLinked(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error) {
	if m.IsLinkedFunc != nil {
		return m.IsLinkedFunc(ctx, caregiverID, patientID)
	}
	return true, nil
}

type mockScorer struct {
	ScoreFunc    func(ctx context.Context, text string, gt domain.GroundTruth) (domain.Score, error)
	ConcludeFunc func(ctx context.Context, rates domain.Rates) (domain.Conclusions, error)
}

func (m *mockScorer) Score(ctx context.Context, text string, gt domain.GroundTruth) (domain.Score, error) {
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, text, gt)
	}
	return domain.Score{Rates: domain.Rates{Exactness: 0.5, Total: 0.5}}, nil
}

func (m *mockScorer) Conclude(ctx context.Context, rates domain.Rates) (domain.Conclusions, error) {
	if m.ConcludeFunc != nil {
		return m.ConcludeFunc(ctx, rates)
	}
	return domain.Conclusions{Technical: "technical", Plain: "plain"}, nil
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (m *mockNotifier) Notify(_ context.Context, n domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

func (m *mockNotifier) Sent() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notification(nil), m.sent...)
}

type mockBaselineCache struct {
	mu          sync.Mutex
	invalidated []uuid.UUID
}

func (m *mockBaselineCache) Invalidate(_ context.Context, patientID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, patientID)
	return nil
}

func (m *mockBaselineCache) Invalidated() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.invalidated...)
}

type mockAuditLogger struct {
	LogFunc func(ctx context.Context, record domain.AuditRecord) error
}

func (m *mockAuditLogger) Log(ctx context.Context, record domain.AuditRecord) error {
	if m.LogFunc != nil {
		return m.LogFunc(ctx, record)
	}
	return nil
}

type mockTxManager struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}
