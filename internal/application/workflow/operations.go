package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	domainwf "github.com/garyjia/mediation-desk/internal/domain/workflow"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
	"github.com/garyjia/mediation-desk/pkg/utils"
)

// CreateCase files a new case. When the opposite party's email belongs to a
// registered user other than the complainant, they are linked as respondent
// and the case starts out awaiting their response.
func (e *engineImpl) CreateCase(ctx context.Context, caller entity.CallerIdentity, in CreateCaseInput) (*entity.Case, error) {
	if !caller.IsAuthenticated() {
		return nil, domainerr.New(domainerr.CodeUnauthorized, "authentication required")
	}

	in.normalize()
	if err := in.validate(); err != nil {
		e.metrics.ObserveOperation("create_case", "validation")
		return nil, err
	}

	var out *committed
	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var respondentID *int64
		if in.OppositeParty.Email != "" {
			u, err := e.users.GetByEmail(txCtx, in.OppositeParty.Email)
			if err != nil {
				return domainerr.Wrap(err, domainerr.CodeInternal, "failed to resolve opposite party")
			}
			if u != nil && u.ID != caller.UserID {
				id := u.ID
				respondentID = &id
			}
		}

		now := e.now()
		status := InitialState(respondentID != nil)
		c := &entity.Case{
			CaseNumber:    e.newCaseNumber(now),
			Category:      in.Category,
			Description:   in.Description,
			Status:        status.String(),
			Priority:      in.Priority,
			ComplainantID: caller.UserID,
			RespondentID:  respondentID,
			OppositeParty: in.OppositeParty,
			Proceedings:   in.Proceedings,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := e.repos.Cases.Create(txCtx, c); err != nil {
			return domainerr.Wrap(err, domainerr.CodeInternal, "failed to create case")
		}

		snap := &caseSnapshot{c: c}
		description := fmt.Sprintf("Case %s filed", c.CaseNumber)
		if respondentID != nil {
			description += " and respondent linked by email"
		}
		entry, notifications, err := e.record(txCtx, snap, caller, entity.ActionCaseCreated, description,
			"", status.String(), map[string]interface{}{"category": c.Category, "priority": c.Priority}, now)
		if err != nil {
			return err
		}

		out = &committed{c: c, entry: entry, notifications: notifications}
		return nil
	})

	var caseID int64
	if out != nil {
		caseID = out.c.ID
	}
	e.finish(ctx, "create_case", caseID, out, err)
	if err != nil {
		return nil, asDomainError(err)
	}
	return out.c, nil
}

// LinkRespondent attaches a registered user as respondent to a pending case
func (e *engineImpl) LinkRespondent(ctx context.Context, caller entity.CallerIdentity, caseID int64, email string) (*entity.Case, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := utils.ValidateEmail(email); err != nil {
		return nil, domainerr.Validation(domainerr.FieldError{Field: "email", Message: "is not a valid email address"})
	}

	var respondent *entity.User
	out, err := e.run(ctx, caller, caseID, operation{
		name:    "link_respondent",
		action:  entity.ActionRespondentLinked,
		access:  complainantOrAdmin,
		trigger: domainwf.TriggerLinkRespondent,
		precheck: func(ctx context.Context, snap *caseSnapshot) error {
			u, err := e.users.GetByEmail(ctx, email)
			if err != nil {
				return domainerr.Wrap(err, domainerr.CodeInternal, "failed to resolve respondent")
			}
			if u == nil {
				return domainerr.Validation(domainerr.FieldError{Field: "email", Message: "does not belong to a registered user"})
			}
			if snap.c.IsComplainant(u.ID) {
				return domainerr.Validation(domainerr.FieldError{Field: "email", Message: "the complainant cannot be the respondent"})
			}
			respondent = u
			return nil
		},
		apply: func(ctx context.Context, snap *caseSnapshot) error {
			if err := e.repos.Cases.SetRespondent(ctx, snap.c.ID, respondent.ID, email); err != nil {
				return domainerr.Wrap(err, domainerr.CodeInternal, "failed to link respondent")
			}
			id := respondent.ID
			snap.c.RespondentID = &id
			snap.c.OppositeParty.Email = email
			return nil
		},
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return fmt.Sprintf("Respondent %s linked to case %s", respondent.Name, snap.c.CaseNumber)
		},
	})
	if err != nil {
		return nil, err
	}
	return out.c, nil
}

// RespondToCase records the respondent's decision to accept or decline mediation
func (e *engineImpl) RespondToCase(ctx context.Context, caller entity.CallerIdentity, caseID int64, accepted bool, responseText string) (*entity.Case, error) {
	text, err := validateFreeText("response_text", responseText, false)
	if err != nil {
		return nil, err
	}

	op := operation{
		name:    "respond_to_case",
		action:  entity.ActionCaseAccepted,
		access:  respondentOnly,
		trigger: domainwf.TriggerAccept,
		apply: func(ctx context.Context, snap *caseSnapshot) error {
			if text == "" {
				return nil
			}
			if err := e.repos.Cases.SetResponse(ctx, snap.c.ID, text); err != nil {
				return domainerr.Wrap(err, domainerr.CodeInternal, "failed to store response")
			}
			snap.c.ResponseText = text
			return nil
		},
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return fmt.Sprintf("Respondent accepted mediation for case %s", snap.c.CaseNumber)
		},
		metadata: map[string]interface{}{"accepted": accepted},
	}
	if !accepted {
		op.action = entity.ActionCaseDeclined
		op.trigger = domainwf.TriggerDecline
		op.description = func(snap *caseSnapshot, _, _ domainwf.State) string {
			return fmt.Sprintf("Respondent declined mediation for case %s", snap.c.CaseNumber)
		}
	}

	out, err := e.run(ctx, caller, caseID, op)
	if err != nil {
		return nil, err
	}
	return out.c, nil
}

// NominateWitnesses adds registered users as witnesses on an accepted case
func (e *engineImpl) NominateWitnesses(ctx context.Context, caller entity.CallerIdentity, caseID int64, nominations []WitnessNomination) ([]*entity.Witness, error) {
	nominations, err := validateNominations(nominations)
	if err != nil {
		return nil, err
	}

	var created []*entity.Witness
	_, err = e.run(ctx, caller, caseID, operation{
		name:    "nominate_witnesses",
		action:  entity.ActionWitnessesNominated,
		access:  partiesOrAdmin,
		trigger: domainwf.TriggerNominateWitnesses,
		apply: func(ctx context.Context, snap *caseSnapshot) error {
			users, err := e.resolveNominees(ctx, snap, nominations)
			if err != nil {
				return err
			}

			now := e.now()
			created = make([]*entity.Witness, 0, len(nominations))
			for i, n := range nominations {
				u := users[i]
				phone := n.Phone
				if phone == "" {
					phone = u.Phone
				}
				w := &entity.Witness{
					CaseID:       snap.c.ID,
					UserID:       u.ID,
					Name:         u.Name,
					Email:        n.Email,
					Phone:        phone,
					Relationship: n.Relationship,
					NominatedBy:  caller.UserID,
					CreatedAt:    now,
				}
				if err := e.repos.Witnesses.Create(ctx, w); err != nil {
					return domainerr.Wrap(err, domainerr.CodeInternal, "failed to create witness")
				}
				created = append(created, w)
				snap.newWitnesses = append(snap.newWitnesses, u.ID)
			}
			return nil
		},
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return fmt.Sprintf("%d witness(es) nominated for case %s", len(created), snap.c.CaseNumber)
		},
		metadata: map[string]interface{}{"witness_count": len(nominations)},
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveNominees maps each nomination to a user, reporting every unresolvable
// email at once. A user already nominated on the case is a conflict.
func (e *engineImpl) resolveNominees(ctx context.Context, snap *caseSnapshot, nominations []WitnessNomination) ([]*entity.User, error) {
	var fields domainerr.FieldErrors
	users := make([]*entity.User, len(nominations))
	seen := make(map[int64]bool, len(nominations))

	for i, n := range nominations {
		field := fmt.Sprintf("witnesses[%d].email", i)
		u, err := e.users.GetByEmail(ctx, n.Email)
		if err != nil {
			return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to resolve witness")
		}
		switch {
		case u == nil:
			fields.Add(field, "does not belong to a registered user")
		case snap.c.IsComplainant(u.ID) || snap.c.IsRespondent(u.ID):
			fields.Add(field, "a party to the case cannot be a witness")
		case seen[u.ID]:
			fields.Add(field, "duplicates another nomination")
		default:
			seen[u.ID] = true
			users[i] = u
		}
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	for _, w := range snap.witnesses {
		if seen[w.UserID] {
			return nil, domainerr.Newf(domainerr.CodeConflict,
				"%s is already a witness on case %s", w.Email, snap.c.CaseNumber)
		}
	}
	return users, nil
}

// CreatePanel assigns the mediation panel. A case has at most one.
func (e *engineImpl) CreatePanel(ctx context.Context, caller entity.CallerIdentity, caseID int64, members PanelMembers) (*entity.MediationPanel, error) {
	if err := validatePanelMembers(members); err != nil {
		return nil, err
	}

	var panel *entity.MediationPanel
	_, err := e.run(ctx, caller, caseID, operation{
		name:    "create_panel",
		action:  entity.ActionPanelCreated,
		access:  adminOnly,
		trigger: domainwf.TriggerCreatePanel,
		precheck: func(_ context.Context, snap *caseSnapshot) error {
			if snap.panel != nil {
				return domainerr.New(domainerr.CodeConflict, "panel already exists")
			}
			return nil
		},
		apply: func(ctx context.Context, snap *caseSnapshot) error {
			if err := e.checkPanelMembers(ctx, snap, members); err != nil {
				return err
			}
			panel = &entity.MediationPanel{
				CaseID:     snap.c.ID,
				ArbiterID:  members.ArbiterID,
				AdvisorIDs: append([]int64(nil), members.AdvisorIDs...),
				CreatedAt:  e.now(),
			}
			if err := e.repos.Panels.Create(ctx, panel); err != nil {
				return domainerr.Wrap(err, domainerr.CodeInternal, "failed to create panel")
			}
			snap.panel = panel
			return nil
		},
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return fmt.Sprintf("Mediation panel of %d formed for case %s", len(panel.MemberIDs()), snap.c.CaseNumber)
		},
		metadata: map[string]interface{}{
			"arbiter_id":  members.ArbiterID,
			"advisor_ids": members.AdvisorIDs,
		},
	})
	if err != nil {
		return nil, err
	}
	return panel, nil
}

func (e *engineImpl) checkPanelMembers(ctx context.Context, snap *caseSnapshot, members PanelMembers) error {
	var fields domainerr.FieldErrors
	check := func(field string, id int64) error {
		u, err := e.users.GetByID(ctx, id)
		if err != nil {
			return domainerr.Wrap(err, domainerr.CodeInternal, "failed to resolve panel member")
		}
		switch {
		case u == nil:
			fields.Addf(field, "user %d does not exist", id)
		case snap.c.IsComplainant(id) || snap.c.IsRespondent(id):
			fields.Add(field, "a party to the case cannot sit on its panel")
		}
		return nil
	}

	if err := check("arbiter_id", members.ArbiterID); err != nil {
		return err
	}
	for i, id := range members.AdvisorIDs {
		if err := check(fmt.Sprintf("advisor_ids[%d]", i), id); err != nil {
			return err
		}
	}
	return fields.Err()
}

// BeginMediation starts mediation once the panel is in place
func (e *engineImpl) BeginMediation(ctx context.Context, caller entity.CallerIdentity, caseID int64) (*entity.Case, error) {
	out, err := e.run(ctx, caller, caseID, operation{
		name:    "begin_mediation",
		action:  entity.ActionMediationStarted,
		access:  adminOnly,
		trigger: domainwf.TriggerBeginMediation,
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return fmt.Sprintf("Mediation started for case %s", snap.c.CaseNumber)
		},
	})
	if err != nil {
		return nil, err
	}
	return out.c, nil
}

// Resolve closes a case in mediation as resolved
func (e *engineImpl) Resolve(ctx context.Context, caller entity.CallerIdentity, caseID int64, note string) (*entity.Case, error) {
	note, err := validateFreeText("note", note, false)
	if err != nil {
		return nil, err
	}

	out, err := e.run(ctx, caller, caseID, operation{
		name:    "resolve",
		action:  entity.ActionCaseResolved,
		access:  adminOnly,
		trigger: domainwf.TriggerResolve,
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return withDetail(fmt.Sprintf("Case %s resolved", snap.c.CaseNumber), note)
		},
		metadata: optionalMeta("note", note),
	})
	if err != nil {
		return nil, err
	}
	return out.c, nil
}

// MarkUnresolved closes a non-terminal case without resolution
func (e *engineImpl) MarkUnresolved(ctx context.Context, caller entity.CallerIdentity, caseID int64, reason string) (*entity.Case, error) {
	reason, err := validateFreeText("reason", reason, false)
	if err != nil {
		return nil, err
	}

	out, err := e.run(ctx, caller, caseID, operation{
		name:    "mark_unresolved",
		action:  entity.ActionCaseUnresolved,
		access:  adminOnly,
		trigger: domainwf.TriggerMarkUnresolved,
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return withDetail(fmt.Sprintf("Case %s closed as unresolved", snap.c.CaseNumber), reason)
		},
		metadata: optionalMeta("reason", reason),
	})
	if err != nil {
		return nil, err
	}
	return out.c, nil
}

// SetStatus is the administrator's correction path. It moves the case to any
// known status, terminal ones included, and is always audited.
func (e *engineImpl) SetStatus(ctx context.Context, caller entity.CallerIdentity, caseID int64, target string, reason string) (*entity.Case, error) {
	to := domainwf.State(strings.ToUpper(strings.TrimSpace(target)))
	if !to.IsValid() {
		return nil, domainerr.Validation(domainerr.FieldError{
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", target),
		})
	}
	reason, err := validateFreeText("reason", reason, false)
	if err != nil {
		return nil, err
	}

	out, err := e.run(ctx, caller, caseID, operation{
		name:     "set_status",
		action:   entity.ActionAdminOverride,
		access:   adminOnly,
		override: true,
		target:   to,
		description: func(snap *caseSnapshot, from, to domainwf.State) string {
			return withDetail(fmt.Sprintf("Administrator changed case %s from %s to %s", snap.c.CaseNumber, from, to), reason)
		},
		metadata: optionalMeta("reason", reason),
	})
	if err != nil {
		return nil, err
	}
	return out.c, nil
}

// CancelCase withdraws a case. Admins may cancel any open case; the
// complainant only until the respondent has accepted.
func (e *engineImpl) CancelCase(ctx context.Context, caller entity.CallerIdentity, caseID int64, reason string) (*entity.Case, error) {
	reason, err := validateFreeText("reason", reason, false)
	if err != nil {
		return nil, err
	}

	out, err := e.run(ctx, caller, caseID, operation{
		name:    "cancel_case",
		action:  entity.ActionCaseCancelled,
		access:  partiesOrAdmin,
		trigger: domainwf.TriggerCancel,
		precheck: func(_ context.Context, snap *caseSnapshot) error {
			status := domainwf.State(snap.c.Status)
			if status.IsTerminal() {
				return domainerr.Newf(domainerr.CodeConflict,
					"cannot cancel case %s: current status is %s", snap.c.CaseNumber, status)
			}
			if caller.IsAdmin() {
				return nil
			}
			if !snap.c.IsComplainant(caller.UserID) && !e.respondentCancel {
				return domainerr.New(domainerr.CodeForbidden, "only the complainant or an administrator may cancel the case")
			}
			if !withinCancelWindow(status) {
				return domainerr.Newf(domainerr.CodeForbidden,
					"case %s can no longer be cancelled by a party once it is %s", snap.c.CaseNumber, status)
			}
			return nil
		},
		description: func(snap *caseSnapshot, _, _ domainwf.State) string {
			return withDetail(fmt.Sprintf("Case %s cancelled", snap.c.CaseNumber), reason)
		},
		metadata: optionalMeta("reason", reason),
	})
	if err != nil {
		return nil, err
	}
	return out.c, nil
}

// withinCancelWindow reports whether a party may still cancel
func withinCancelWindow(s domainwf.State) bool {
	return s == domainwf.StatePending || s == domainwf.StateAwaitingResponse
}

func withDetail(description, detail string) string {
	if detail == "" {
		return description
	}
	return description + ": " + detail
}

func optionalMeta(key, value string) map[string]interface{} {
	if value == "" {
		return nil
	}
	return map[string]interface{}{key: value}
}
