package service

import (
	"context"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/application/workflow"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

// Export is a rendered document ready for download
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders a case's audit trail for download
type ExportService interface {
	ExportHistory(ctx context.Context, caller entity.CallerIdentity, caseID int64) (*Export, error)
}

type exportServiceImpl struct {
	engine   workflow.CaseEngine
	renderer port.HistoryRenderer
	logger   Logger
}

// NewExportService creates a new ExportService
func NewExportService(engine workflow.CaseEngine, renderer port.HistoryRenderer, logger Logger) ExportService {
	return &exportServiceImpl{
		engine:   engine,
		renderer: renderer,
		logger:   orNop(logger),
	}
}

// ExportHistory renders the history visible to the caller. A trail that does
// not replay to the stored status is still exported but logged.
func (s *exportServiceImpl) ExportHistory(ctx context.Context, caller entity.CallerIdentity, caseID int64) (*Export, error) {
	c, err := s.engine.GetCase(ctx, caller, caseID)
	if err != nil {
		return nil, err
	}
	entries, err := s.engine.GetCaseHistory(ctx, caller, caseID)
	if err != nil {
		return nil, err
	}

	replayed, err := workflow.ReplayHistory(entries)
	switch {
	case err != nil:
		s.logger.Error("Case history does not replay", "case_id", caseID, "error", err)
	case string(replayed) != c.Status:
		s.logger.Error("Case history disagrees with stored status",
			"case_id", caseID,
			"replayed", string(replayed),
			"stored", c.Status)
	}

	data, err := s.renderer.Render(c, entries)
	if err != nil {
		s.logger.Error("Failed to render case history", "case_id", caseID, "error", err)
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to render history")
	}

	s.logger.Info("Case history exported", "case_id", caseID, "user_id", caller.UserID, "entries", len(entries))
	return &Export{
		FileName:    c.CaseNumber + "-history" + s.renderer.FileExtension(),
		ContentType: s.renderer.ContentType(),
		Data:        data,
	}, nil
}
