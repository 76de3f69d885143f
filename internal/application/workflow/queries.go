package workflow

import (
	"context"
	"strings"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	domainwf "github.com/garyjia/mediation-desk/internal/domain/workflow"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// view loads the case and checks the caller may see it
func (e *engineImpl) view(ctx context.Context, caller entity.CallerIdentity, caseID int64) (*caseSnapshot, error) {
	if !caller.IsAuthenticated() {
		return nil, domainerr.New(domainerr.CodeUnauthorized, "authentication required")
	}
	snap, err := e.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	held := relationshipsOf(caller.UserID, snap.c, snap.panel, snap.witnesses)
	if err := authorize(caller, held, anyoneOnCase); err != nil {
		return nil, err
	}
	return snap, nil
}

// GetCase returns the case if the caller holds any relationship with it
func (e *engineImpl) GetCase(ctx context.Context, caller entity.CallerIdentity, caseID int64) (*entity.Case, error) {
	snap, err := e.view(ctx, caller, caseID)
	if err != nil {
		return nil, err
	}
	return snap.c, nil
}

// GetCaseByNumber resolves a case number with the same visibility as GetCase
func (e *engineImpl) GetCaseByNumber(ctx context.Context, caller entity.CallerIdentity, caseNumber string) (*entity.Case, error) {
	if !caller.IsAuthenticated() {
		return nil, domainerr.New(domainerr.CodeUnauthorized, "authentication required")
	}
	caseNumber = strings.TrimSpace(caseNumber)
	if caseNumber == "" {
		return nil, domainerr.Validation(domainerr.FieldError{Field: "number", Message: "is required"})
	}

	c, err := e.repos.Cases.GetByCaseNumber(ctx, caseNumber)
	if err != nil {
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to load case")
	}
	if c == nil {
		return nil, domainerr.New(domainerr.CodeNotFound, "case not found")
	}
	return e.GetCase(ctx, caller, c.ID)
}

// GetCaseHistory returns the audit trail oldest first
func (e *engineImpl) GetCaseHistory(ctx context.Context, caller entity.CallerIdentity, caseID int64) ([]*entity.AuditEntry, error) {
	if _, err := e.view(ctx, caller, caseID); err != nil {
		return nil, err
	}
	entries, err := e.repos.Audit.ListByCaseID(ctx, caseID)
	if err != nil {
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to load case history")
	}
	return entries, nil
}

// ListCases lists every case for admins and the caller's own cases otherwise
func (e *engineImpl) ListCases(ctx context.Context, caller entity.CallerIdentity, filter port.CaseFilter) ([]*entity.Case, error) {
	if !caller.IsAuthenticated() {
		return nil, domainerr.New(domainerr.CodeUnauthorized, "authentication required")
	}

	if filter.Status != "" && !domainwf.State(filter.Status).IsValid() {
		return nil, domainerr.Validation(domainerr.FieldError{Field: "status", Message: "unknown status"})
	}
	if !caller.IsAdmin() {
		id := caller.UserID
		filter.ParticipantID = &id
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	cases, err := e.repos.Cases.List(ctx, filter)
	if err != nil {
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to list cases")
	}
	return cases, nil
}

// ListWitnesses returns the witnesses nominated on the case
func (e *engineImpl) ListWitnesses(ctx context.Context, caller entity.CallerIdentity, caseID int64) ([]*entity.Witness, error) {
	snap, err := e.view(ctx, caller, caseID)
	if err != nil {
		return nil, err
	}
	return snap.witnesses, nil
}

// GetPanel returns the case's mediation panel
func (e *engineImpl) GetPanel(ctx context.Context, caller entity.CallerIdentity, caseID int64) (*entity.MediationPanel, error) {
	snap, err := e.view(ctx, caller, caseID)
	if err != nil {
		return nil, err
	}
	if snap.panel == nil {
		return nil, domainerr.New(domainerr.CodeNotFound, "no mediation panel has been created")
	}
	return snap.panel, nil
}
