package rest

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/internal/service/assignment"
	"github.com/heartmarshall/memorycare-backend/internal/service/imagepool"
	"github.com/heartmarshall/memorycare-backend/internal/service/profile"
	"github.com/heartmarshall/memorycare-backend/internal/service/session"
)

type mockLinks struct {
	IsLinkedFunc func(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error)
}

func (m *mockLinks) IsLinked(ctx context.Context, caregiverID, patientID uuid.UUID) (bool, error) {
	if m.IsLinkedFunc != nil {
		return m.IsLinkedFunc(ctx, caregiverID, patientID)
	}
	return false, nil
}

type mockProfileService struct {
	CreateFunc func(ctx context.Context, input profile.CreateInput) (*domain.Profile, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

func (m *mockProfileService) Create(ctx context.Context, input profile.CreateInput) (*domain.Profile, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, input)
	}
	return &domain.Profile{ID: uuid.New(), Name: input.Name, Email: input.Email, Role: input.Role}, nil
}

func (m *mockProfileService) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &domain.Profile{ID: id, Role: domain.RolePatient}, nil
}

func (m *mockProfileService) Me(ctx context.Context) (*domain.Profile, error) {
	id, _ := caller(ctx)
	return m.Get(ctx, id)
}

type mockAssignmentService struct {
	AssignFunc    func(ctx context.Context, input assignment.AssignInput) (*domain.CareAssignment, error)
	RemoveFunc    func(ctx context.Context, input assignment.RemoveInput) error
	PatientOfFunc func(ctx context.Context, caregiverID uuid.UUID) (uuid.UUID, error)
}

func (m *mockAssignmentService) Assign(ctx context.Context, input assignment.AssignInput) (*domain.CareAssignment, error) {
	if m.AssignFunc != nil {
		return m.AssignFunc(ctx, input)
	}
	return &domain.CareAssignment{CaregiverID: input.CaregiverID, PatientID: input.PatientID}, nil
}

func (m *mockAssignmentService) Remove(ctx context.Context, input assignment.RemoveInput) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, input)
	}
	return nil
}

func (m *mockAssignmentService) ListCaregiversOf(context.Context, uuid.UUID) ([]domain.Profile, error) {
	return nil, nil
}

func (m *mockAssignmentService) PatientOf(ctx context.Context, caregiverID uuid.UUID) (uuid.UUID, error) {
	if m.PatientOfFunc != nil {
		return m.PatientOfFunc(ctx, caregiverID)
	}
	return uuid.Nil, domain.ErrNotFound
}

type mockImageService struct {
	GetFunc     func(ctx context.Context, imageID uuid.UUID) (*domain.ReferenceImage, error)
	ReleaseFunc func(ctx context.Context, imageID uuid.UUID) error
	upserts     []imagepool.GroundTruthInput
}

func (m *mockImageService) RequestUpload(_ context.Context, input imagepool.RequestUploadInput) (domain.UploadTicket, error) {
	return domain.UploadTicket{ObjectKey: "images/" + input.UploaderID.String() + "/x.png"}, nil
}

func (m *mockImageService) Register(_ context.Context, input imagepool.RegisterInput) (*domain.ReferenceImage, error) {
	return &domain.ReferenceImage{ID: uuid.New(), URL: input.URL, UploaderID: input.UploaderID, State: domain.ImageStateFree}, nil
}

func (m *mockImageService) Get(ctx context.Context, imageID uuid.UUID) (*domain.ReferenceImage, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, imageID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockImageService) List(_ context.Context, uploaderID uuid.UUID, state *domain.ImageState) ([]domain.ReferenceImage, error) {
	return []domain.ReferenceImage{{ID: uuid.New(), UploaderID: uploaderID, State: *state}}, nil
}

func (m *mockImageService) UpsertGroundTruth(_ context.Context, input imagepool.GroundTruthInput) (*domain.GroundTruth, error) {
	m.upserts = append(m.upserts, input)
	return &domain.GroundTruth{ImageID: input.ImageID, Description: input.Description, Keywords: input.Keywords}, nil
}

func (m *mockImageService) GetGroundTruth(_ context.Context, imageID uuid.UUID) (*domain.GroundTruth, error) {
	return &domain.GroundTruth{ImageID: imageID, Description: "playa"}, nil
}

func (m *mockImageService) Release(ctx context.Context, imageID uuid.UUID) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, imageID)
	}
	return nil
}

type mockSessionService struct {
	CreateFunc           func(ctx context.Context, input session.CreateInput) (*domain.Session, error)
	GetFunc              func(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	GetDetailFunc        func(ctx context.Context, sessionID uuid.UUID) (*domain.SessionDetail, error)
	DeleteFunc           func(ctx context.Context, sessionID uuid.UUID) error
	SetActivationFunc    func(ctx context.Context, sessionID uuid.UUID, active bool) (*domain.Session, error)
	SubmitFunc           func(ctx context.Context, input session.SubmitDescriptionInput) (*session.DescriptionResult, error)
	RetryScoringFunc     func(ctx context.Context, sessionID, imageID uuid.UUID) (*session.DescriptionResult, error)
	AddNoteFunc          func(ctx context.Context, input session.AddNoteInput) (*domain.Session, error)
	ReplaceNotesFunc     func(ctx context.Context, input session.ReplaceNotesInput) (*domain.Session, error)
	ListForPatientFunc   func(ctx context.Context, input session.ListInput) ([]domain.Session, error)
	ListForCaregiverFunc func(ctx context.Context, caregiverID uuid.UUID, limit int) ([]domain.Session, error)
}

func (m *mockSessionService) Create(ctx context.Context, input session.CreateInput) (*domain.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, input)
	}
	return &domain.Session{ID: uuid.New(), PatientID: input.PatientID, CaregiverID: input.CaregiverID, ImageIDs: input.ImageIDs, Status: domain.SessionStatusPending}, nil
}

func (m *mockSessionService) Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, sessionID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionService) GetDetail(ctx context.Context, sessionID uuid.UUID) (*domain.SessionDetail, error) {
	if m.GetDetailFunc != nil {
		return m.GetDetailFunc(ctx, sessionID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionService) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockSessionService) SetActivation(ctx context.Context, sessionID uuid.UUID, active bool) (*domain.Session, error) {
	if m.SetActivationFunc != nil {
		return m.SetActivationFunc(ctx, sessionID, active)
	}
	return &domain.Session{ID: sessionID, Active: active, Status: domain.SessionStatusPending}, nil
}

func (m *mockSessionService) SubmitDescription(ctx context.Context, input session.SubmitDescriptionInput) (*session.DescriptionResult, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, input)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionService) RetryScoring(ctx context.Context, sessionID, imageID uuid.UUID) (*session.DescriptionResult, error) {
	if m.RetryScoringFunc != nil {
		return m.RetryScoringFunc(ctx, sessionID, imageID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionService) AddDoctorNote(ctx context.Context, input session.AddNoteInput) (*domain.Session, error) {
	if m.AddNoteFunc != nil {
		return m.AddNoteFunc(ctx, input)
	}
	return &domain.Session{ID: input.SessionID, Notes: []domain.DoctorNote{{AuthorID: input.AuthorID, Text: input.Text}}}, nil
}

func (m *mockSessionService) ReplaceDoctorNotes(ctx context.Context, input session.ReplaceNotesInput) (*domain.Session, error) {
	if m.ReplaceNotesFunc != nil {
		return m.ReplaceNotesFunc(ctx, input)
	}
	return &domain.Session{ID: input.SessionID}, nil
}

func (m *mockSessionService) ListForPatient(ctx context.Context, input session.ListInput) ([]domain.Session, error) {
	if m.ListForPatientFunc != nil {
		return m.ListForPatientFunc(ctx, input)
	}
	return nil, nil
}

func (m *mockSessionService) ListForCaregiver(ctx context.Context, caregiverID uuid.UUID, limit int) ([]domain.Session, error) {
	if m.ListForCaregiverFunc != nil {
		return m.ListForCaregiverFunc(ctx, caregiverID, limit)
	}
	return nil, nil
}

type mockReportService struct {
	BuildReportFunc   func(ctx context.Context, patientID uuid.UUID) (*domain.PatientReport, error)
	BuildBaselineFunc func(ctx context.Context, patientID uuid.UUID) (*domain.SessionDetail, error)
}

func (m *mockReportService) BuildReport(ctx context.Context, patientID uuid.UUID) (*domain.PatientReport, error) {
	if m.BuildReportFunc != nil {
		return m.BuildReportFunc(ctx, patientID)
	}
	return &domain.PatientReport{PatientID: patientID, Summary: domain.Summary{Trend: domain.TrendStable}}, nil
}

func (m *mockReportService) BuildBaseline(ctx context.Context, patientID uuid.UUID) (*domain.SessionDetail, error) {
	if m.BuildBaselineFunc != nil {
		return m.BuildBaselineFunc(ctx, patientID)
	}
	return nil, nil
}

func (m *mockReportService) ExportReport(ctx context.Context, patientID uuid.UUID) ([]byte, *domain.PatientReport, error) {
	rep, err := m.BuildReport(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}
	return []byte("PK\x03\x04"), rep, nil
}
