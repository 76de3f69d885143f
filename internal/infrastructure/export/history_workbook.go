package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	summarySheet = "Summary"
	historySheet = "History"
	timeLayout   = "2006-01-02 15:04:05"
)

var historyHeader = []interface{}{"#", "Time (UTC)", "Action", "From", "To", "Actor", "Description", "Details"}

// HistoryWorkbook renders a case's audit trail as an XLSX workbook with a
// summary sheet and one history row per audit entry
type HistoryWorkbook struct {
	fontName string
	logger   *zap.Logger
}

var _ port.HistoryRenderer = (*HistoryWorkbook)(nil)

// NewHistoryWorkbook creates a renderer. fontName may be empty; set it to a CJK
// capable font when case text is not Latin.
func NewHistoryWorkbook(fontName string, logger *zap.Logger) *HistoryWorkbook {
	return &HistoryWorkbook{fontName: fontName, logger: logger}
}

func (w *HistoryWorkbook) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (w *HistoryWorkbook) FileExtension() string {
	return ".xlsx"
}

// Render builds the workbook in memory
func (w *HistoryWorkbook) Render(c *entity.Case, entries []*entity.AuditEntry) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("case is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	if w.fontName != "" {
		if err := f.SetDefaultFont(w.fontName); err != nil {
			w.logger.Warn("Failed to set workbook font",
				zap.String("font", w.fontName),
				zap.Error(err))
		}
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, fmt.Errorf("failed to create history sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	if err := w.fillSummary(f, c, len(entries), bold); err != nil {
		return nil, fmt.Errorf("failed to fill summary: %w", err)
	}
	if err := w.fillHistory(f, entries, bold); err != nil {
		return nil, fmt.Errorf("failed to fill history: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Debug("History workbook rendered",
		zap.String("case_number", c.CaseNumber),
		zap.Int("entries", len(entries)),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (w *HistoryWorkbook) fillSummary(f *excelize.File, c *entity.Case, entryCount, bold int) error {
	respondent := "not linked"
	if c.RespondentID != nil {
		respondent = strconv.FormatInt(*c.RespondentID, 10)
	}

	rows := [][2]interface{}{
		{"Case number", c.CaseNumber},
		{"Status", c.Status},
		{"Category", c.Category},
		{"Priority", c.Priority},
		{"Complainant", c.ComplainantID},
		{"Respondent", respondent},
		{"Opposite party", c.OppositeParty.Name},
		{"Filed", formatTime(c.CreatedAt)},
		{"Last updated", formatTime(c.UpdatedAt)},
		{"Audit entries", entryCount},
		{"Description", c.Description},
	}
	if c.Proceedings.InCourt {
		rows = append(rows, [2]interface{}{"Court", c.Proceedings.CourtName + " / " + c.Proceedings.CourtCaseNumber})
	}
	if c.Proceedings.PoliceReported {
		rows = append(rows, [2]interface{}{"Police report", c.Proceedings.PoliceStationName + " / " + c.Proceedings.PoliceReportNumber})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &[]interface{}{row[0], row[1]}); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 18); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 60)
}

func (w *HistoryWorkbook) fillHistory(f *excelize.File, entries []*entity.AuditEntry, bold int) error {
	if err := f.SetSheetRow(historySheet, "A1", &historyHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(historySheet, "A1", "H1", bold); err != nil {
		return err
	}

	for i, e := range entries {
		actor := "system"
		if e.ActorID != nil {
			actor = strconv.FormatInt(*e.ActorID, 10)
		}
		row := []interface{}{
			i + 1,
			formatTime(e.CreatedAt),
			e.Action,
			e.PreviousStatus(),
			e.NewStatus(),
			actor,
			e.Description,
			details(e.Metadata),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(historySheet, "B", "C", 22); err != nil {
		return err
	}
	return f.SetColWidth(historySheet, "G", "H", 48)
}

// details renders metadata other than the status pair as compact JSON
func details(meta map[string]interface{}) string {
	rest := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if k == entity.MetaPreviousStatus || k == entity.MetaNewStatus {
			continue
		}
		rest[k] = v
	}
	if len(rest) == 0 {
		return ""
	}
	b, err := json.Marshal(rest)
	if err != nil {
		return fmt.Sprint(rest)
	}
	return string(b)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
