package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/internal/transport/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type reportService interface {
	BuildReport(ctx context.Context, patientID uuid.UUID) (*domain.PatientReport, error)
	BuildBaseline(ctx context.Context, patientID uuid.UUID) (*domain.SessionDetail, error)
	ExportReport(ctx context.Context, patientID uuid.UUID) ([]byte, *domain.PatientReport, error)
}

// ReportHandler serves doctor-facing progress reports.
type ReportHandler struct {
	svc reportService
	log *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(svc reportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, log: logger.With("handler", "report")}
}

// Report handles GET /patients/{id}/report.
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	rep, err := h.svc.BuildReport(r.Context(), patientID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(*rep))
}

// Export handles GET /patients/{id}/report.xlsx.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	data, _, err := h.svc.ExportReport(r.Context(), patientID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	filename := fmt.Sprintf("report-%s-%s.xlsx", patientID, time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

type baselineResponse struct {
	PatientID uuid.UUID              `json:"patient_id"`
	Baseline  *sessionDetailResponse `json:"baseline"`
}

// Baseline handles GET /patients/{id}/baseline. A patient without a
// completed session has a null baseline.
func (h *ReportHandler) Baseline(w http.ResponseWriter, r *http.Request) {
	patientID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.BuildBaseline(r.Context(), patientID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := baselineResponse{PatientID: patientID}
	if detail != nil {
		d := toSessionDetailResponse(*detail, true)
		resp.Baseline = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportHandler) authorize(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return uuid.Nil, false
	}
	if err := middleware.RequireRole(r.Context(), domain.RoleDoctor); err != nil {
		handleError(w, r, h.log, err)
		return uuid.Nil, false
	}
	return patientID, true
}
