package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

const (
	summarySheet  = "Summary"
	sessionsSheet = "Sessions"
	dateLayout    = "2006-01-02 15:04"
)

var sessionsHeader = []string{
	"Created", "Completed", "Total", "Exactness", "Omission",
	"Commission", "Coherence", "Fluency", "Conclusion",
}

// ExportReport renders the patient report as an XLSX workbook with a
// summary sheet and one row per completed session.
func (s *Service) ExportReport(ctx context.Context, patientID uuid.UUID) ([]byte, *domain.PatientReport, error) {
	report, err := s.BuildReport(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}

	data, err := renderWorkbook(report)
	if err != nil {
		return nil, nil, fmt.Errorf("render workbook: %w", err)
	}
	return data, report, nil
}

func renderWorkbook(r *domain.PatientReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sessionsSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err := writeSummary(f, r, bold); err != nil {
		return nil, err
	}
	if err := writeSessions(f, r.Sessions, bold); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, r *domain.PatientReport, bold int) error {
	sum := r.Summary
	rows := [][]any{
		{"Patient", r.PatientName},
		{"Patient ID", r.PatientID.String()},
		{"From", formatTime(r.Period.From)},
		{"To", formatTime(r.Period.To)},
		{"Sessions", sum.Count},
		{"Average total", sum.AvgSessionTotal},
		{"Average recall", sum.AvgRecall},
		{"First total", sum.FirstSessionTotal},
		{"Last total", sum.LastSessionTotal},
		{"Trend", string(sum.Trend)},
		{"Slope per day", slopeCell(sum.SlopePerDay)},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	return f.SetColWidth(summarySheet, "A", "B", 22)
}

func writeSessions(f *excelize.File, sessions []domain.Session, bold int) error {
	header := make([]any, len(sessionsHeader))
	for i, h := range sessionsHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sessionsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(sessionsHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sessionsSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, s := range sessions {
		row := []any{s.CreatedAt.Format(dateLayout), formatTime(s.CompletedAt)}
		if s.Rates != nil {
			row = append(row, s.Rates.Total, s.Rates.Exactness, s.Rates.Omission,
				s.Rates.Commission, s.Rates.Coherence, s.Rates.Fluency)
		} else {
			row = append(row, "", "", "", "", "", "")
		}
		if s.Conclusions != nil {
			row = append(row, s.Conclusions.Plain)
		} else {
			row = append(row, "")
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sessionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write session row %d: %w", i+2, err)
		}
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func slopeCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
