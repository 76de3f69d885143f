package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func sampleCase() *entity.Case {
	respondent := int64(3)
	return &entity.Case{
		ID:            1,
		CaseNumber:    "MD-20261016-ABCDEF12",
		Category:      "PROPERTY",
		Description:   "Fence built over the boundary",
		Status:        "ACCEPTED",
		Priority:      "HIGH",
		ComplainantID: 2,
		RespondentID:  &respondent,
		OppositeParty: entity.OppositeParty{Name: "Bob"},
		Proceedings: entity.Proceedings{
			InCourt:         true,
			CourtName:       "District Court",
			CourtCaseNumber: "DC-44",
		},
		CreatedAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC),
	}
}

func sampleEntries() []*entity.AuditEntry {
	ann, bob := int64(2), int64(3)
	return []*entity.AuditEntry{
		{
			ID: 1, CaseID: 1, Action: "CASE_CREATED", Description: "Case filed", ActorID: &ann,
			Metadata:  map[string]interface{}{"previous_status": "", "new_status": "AWAITING_RESPONSE", "priority": "HIGH"},
			CreatedAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
		},
		{
			ID: 2, CaseID: 1, Action: "CASE_ACCEPTED", Description: "Respondent accepted", ActorID: &bob,
			Metadata:  map[string]interface{}{"previous_status": "AWAITING_RESPONSE", "new_status": "ACCEPTED"},
			CreatedAt: time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestHistoryWorkbook_Render(t *testing.T) {
	w := NewHistoryWorkbook("", zap.NewNop())
	data, err := w.Render(sampleCase(), sampleEntries())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, historySheet}, f.GetSheetList())

	number, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "MD-20261016-ABCDEF12", number)

	rows, err := f.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Action", rows[0][2])
	assert.Equal(t, []string{"1", "2026-10-16 09:00:00", "CASE_CREATED", "", "AWAITING_RESPONSE", "2", "Case filed", `{"priority":"HIGH"}`}, rows[1])
	assert.Equal(t, "ACCEPTED", rows[2][4])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	var court string
	for _, r := range summary {
		if len(r) == 2 && r[0] == "Court" {
			court = r[1]
		}
	}
	assert.Equal(t, "District Court / DC-44", court)
}

func TestHistoryWorkbook_EmptyHistory(t *testing.T) {
	c := sampleCase()
	c.RespondentID = nil
	data, err := NewHistoryWorkbook("", zap.NewNop()).Render(c, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(historySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	respondent, err := f.GetCellValue(summarySheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "not linked", respondent)
}

func TestHistoryWorkbook_NilCase(t *testing.T) {
	_, err := NewHistoryWorkbook("", zap.NewNop()).Render(nil, nil)
	assert.Error(t, err)
}

func TestHistoryWorkbook_Metadata(t *testing.T) {
	w := NewHistoryWorkbook("", zap.NewNop())
	assert.Equal(t, ".xlsx", w.FileExtension())
	assert.Contains(t, w.ContentType(), "spreadsheetml")
}
