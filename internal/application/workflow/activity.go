package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	domainwf "github.com/garyjia/mediation-desk/internal/domain/workflow"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

// RecordEvidence registers an uploaded file against an open case. The status
// does not change but the upload is audited and the other party notified.
func (e *engineImpl) RecordEvidence(ctx context.Context, caller entity.CallerIdentity, caseID int64, evidence *entity.Evidence) (*entity.Evidence, error) {
	if evidence == nil || evidence.StoragePath == "" || evidence.FileName == "" {
		return nil, domainerr.Validation(domainerr.FieldError{Field: "file", Message: "is required"})
	}

	metadata := map[string]interface{}{
		"file_name": evidence.FileName,
		"mime_type": evidence.MimeType,
		"size":      evidence.Size,
	}

	_, err := e.run(ctx, caller, caseID, operation{
		name:     "record_evidence",
		action:   entity.ActionEvidenceAdded,
		access:   partiesOrAdmin,
		precheck: rejectTerminal("add evidence to"),
		apply: func(ctx context.Context, snap *caseSnapshot) error {
			evidence.CaseID = snap.c.ID
			evidence.UploaderID = caller.UserID
			evidence.CreatedAt = e.now()
			if err := e.repos.Evidence.Create(ctx, evidence); err != nil {
				return domainerr.Wrap(err, domainerr.CodeInternal, "failed to record evidence")
			}
			metadata["evidence_id"] = evidence.ID
			return nil
		},
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return fmt.Sprintf("Evidence %q added to case %s", evidence.FileName, snap.c.CaseNumber)
		},
		metadata: metadata,
	})
	if err != nil {
		return nil, err
	}
	return evidence, nil
}

// SubmitWitnessStatement stores the calling witness's statement. Each witness
// submits once.
func (e *engineImpl) SubmitWitnessStatement(ctx context.Context, caller entity.CallerIdentity, caseID int64, statement string) (*entity.Witness, error) {
	statement, err := validateFreeText("statement", statement, true)
	if err != nil {
		return nil, err
	}

	var witness *entity.Witness
	_, err = e.run(ctx, caller, caseID, operation{
		name:   "submit_witness_statement",
		action: entity.ActionWitnessStatement,
		access: witnessOnly,
		precheck: func(ctx context.Context, snap *caseSnapshot) error {
			if err := rejectTerminal("submit a statement on")(ctx, snap); err != nil {
				return err
			}
			for _, w := range snap.witnesses {
				if w.UserID == caller.UserID {
					witness = w
					break
				}
			}
			if witness == nil {
				return domainerr.New(domainerr.CodeForbidden, "caller is not a witness on the case")
			}
			if witness.StatementAt != nil {
				return domainerr.New(domainerr.CodeConflict, "statement already submitted")
			}
			return nil
		},
		apply: func(ctx context.Context, snap *caseSnapshot) error {
			at := e.now()
			if err := e.repos.Witnesses.UpdateStatement(ctx, witness.ID, statement, at); err != nil {
				return domainerr.Wrap(err, domainerr.CodeInternal, "failed to store statement")
			}
			witness.Statement = statement
			witness.StatementAt = &at
			return nil
		},
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return fmt.Sprintf("Witness %s submitted a statement on case %s", witness.Name, snap.c.CaseNumber)
		},
	})
	if err != nil {
		return nil, err
	}
	return witness, nil
}

func rejectTerminal(verb string) func(context.Context, *caseSnapshot) error {
	return func(_ context.Context, snap *caseSnapshot) error {
		if status := domainwf.State(snap.c.Status); status.IsTerminal() {
			return domainerr.Newf(domainerr.CodeConflict,
				"cannot %s case %s: current status is %s", verb, snap.c.CaseNumber, status)
		}
		return nil
	}
}
