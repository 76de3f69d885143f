package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/domain/event"
	domainwf "github.com/garyjia/mediation-desk/internal/domain/workflow"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
	"github.com/google/uuid"
)

// Repositories groups the stores the engine writes through
type Repositories struct {
	Cases         port.CaseRepository
	Audit         port.AuditRepository
	Notifications port.NotificationRepository
	Panels        port.PanelRepository
	Witnesses     port.WitnessRepository
	Evidence      port.EvidenceRepository
}

// engineImpl is the concrete implementation of CaseEngine
type engineImpl struct {
	repos     Repositories
	users     port.UserDirectory
	txManager port.TransactionManager
	notifier  port.Notifier
	metrics   Metrics
	logger    Logger

	now           func() time.Time
	newCaseNumber func(time.Time) string

	// respondentCancel extends the early cancellation window to the respondent
	respondentCancel bool
}

// EngineOption configures the case engine
type EngineOption func(*engineImpl)

// WithNotifier sets the push channel used after commit
func WithNotifier(n port.Notifier) EngineOption {
	return func(e *engineImpl) {
		e.notifier = n
	}
}

// WithMetrics sets the operation metrics sink
func WithMetrics(m Metrics) EngineOption {
	return func(e *engineImpl) {
		e.metrics = m
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// WithCaseNumberGenerator overrides how case numbers are minted
func WithCaseNumberGenerator(gen func(time.Time) string) EngineOption {
	return func(e *engineImpl) {
		e.newCaseNumber = gen
	}
}

// WithCaseNumberPrefix keeps the default generator but changes its prefix
func WithCaseNumberPrefix(prefix string) EngineOption {
	return func(e *engineImpl) {
		e.newCaseNumber = caseNumberGenerator(prefix)
	}
}

// WithRespondentCancel lets the respondent cancel while the complainant still could
func WithRespondentCancel(allow bool) EngineOption {
	return func(e *engineImpl) {
		e.respondentCancel = allow
	}
}

// NewEngine creates a new case engine
func NewEngine(
	repos Repositories,
	users port.UserDirectory,
	txManager port.TransactionManager,
	opts ...EngineOption,
) CaseEngine {
	e := &engineImpl{
		repos:         repos,
		users:         users,
		txManager:     txManager,
		notifier:      nopNotifier{},
		metrics:       nopMetrics{},
		logger:        nopLogger{},
		now:           func() time.Time { return time.Now().UTC() },
		newCaseNumber: caseNumberGenerator("MD"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// caseNumberGenerator mints PREFIX-YYYYMMDD-XXXXXXXX with a uuid-derived suffix
func caseNumberGenerator(prefix string) func(time.Time) string {
	return func(t time.Time) string {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		return fmt.Sprintf("%s-%s-%s", prefix, t.Format("20060102"), suffix)
	}
}

// caseSnapshot is the case and its children as read inside the transaction
type caseSnapshot struct {
	c            *entity.Case
	panel        *entity.MediationPanel
	witnesses    []*entity.Witness
	newWitnesses []int64
}

func (s *caseSnapshot) parties(actor int64) Parties {
	p := Parties{
		Complainant:  s.c.ComplainantID,
		Respondent:   s.c.RespondentID,
		NewWitnesses: s.newWitnesses,
		Actor:        actor,
	}
	if s.panel != nil {
		p.PanelMembers = s.panel.MemberIDs()
	}
	return p
}

func (s *caseSnapshot) facts() caseFacts {
	return caseFacts{
		respondentLinked: s.c.HasRespondent(),
		panelExists:      s.panel != nil,
	}
}

// operation describes one audited case mutation
type operation struct {
	name   string
	action string
	access accessRule

	// trigger drives a regular transition; override moves to target directly;
	// neither means the status is left unchanged
	trigger  domainwf.Trigger
	override bool
	target   domainwf.State

	// precheck runs after authorization and before the status is checked
	precheck func(ctx context.Context, snap *caseSnapshot) error
	// apply runs after the status write, inside the transaction
	apply func(ctx context.Context, snap *caseSnapshot) error

	description func(snap *caseSnapshot, from, to domainwf.State) string
	metadata    map[string]interface{}
}

// committed is what an operation produced, handed to post-commit delivery
type committed struct {
	c             *entity.Case
	entry         *entity.AuditEntry
	notifications []*entity.Notification
}

// run executes op against the case in a single transaction
func (e *engineImpl) run(ctx context.Context, caller entity.CallerIdentity, caseID int64, op operation) (*committed, error) {
	var out *committed

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		snap, err := e.load(txCtx, caseID)
		if err != nil {
			return err
		}

		held := relationshipsOf(caller.UserID, snap.c, snap.panel, snap.witnesses)
		if err := authorize(caller, held, op.access); err != nil {
			return err
		}

		from := domainwf.State(snap.c.Status)
		if !from.IsValid() {
			return domainerr.Newf(domainerr.CodeInternal, "case %d has unknown status %q", caseID, snap.c.Status)
		}

		if op.precheck != nil {
			if err := op.precheck(txCtx, snap); err != nil {
				return err
			}
		}

		to, err := e.nextState(txCtx, snap, from, op)
		if err != nil {
			return err
		}

		now := e.now()
		if op.trigger != "" || op.override {
			ok, err := e.repos.Cases.UpdateStatus(txCtx, caseID, from.String(), to.String(), now)
			if err != nil {
				return domainerr.Wrap(err, domainerr.CodeInternal, "failed to update case status")
			}
			if !ok {
				return domainerr.Newf(domainerr.CodeConflict,
					"case %s was modified concurrently and is no longer %s", snap.c.CaseNumber, from)
			}
			snap.c.Status = to.String()
			snap.c.UpdatedAt = now
		}

		if op.apply != nil {
			if err := op.apply(txCtx, snap); err != nil {
				return err
			}
		}

		description := op.action
		if op.description != nil {
			description = op.description(snap, from, to)
		}

		entry, notifications, err := e.record(txCtx, snap, caller, op.action, description, from.String(), to.String(), op.metadata, now)
		if err != nil {
			return err
		}

		out = &committed{c: snap.c, entry: entry, notifications: notifications}
		return nil
	})

	e.finish(ctx, op.name, caseID, out, err)
	if err != nil {
		return nil, asDomainError(err)
	}
	return out, nil
}

// nextState validates the move and returns the target status
func (e *engineImpl) nextState(ctx context.Context, snap *caseSnapshot, from domainwf.State, op operation) (domainwf.State, error) {
	if op.override {
		return op.target, nil
	}
	if op.trigger == "" {
		return from, nil
	}

	machine := BuildCaseStateMachine(from, snap.facts())
	if err := machine.Fire(ctx, op.trigger); err != nil {
		switch {
		case errors.Is(err, domainwf.ErrGuardFailed):
			return "", domainerr.Wrap(err, domainerr.CodeConflict,
				fmt.Sprintf("cannot %s case %s", strings.ToLower(humanTrigger(op.trigger)), snap.c.CaseNumber))
		case errors.Is(err, domainwf.ErrInvalidTransition):
			return "", domainerr.Newf(domainerr.CodeConflict,
				"cannot %s case %s: current status is %s", strings.ToLower(humanTrigger(op.trigger)), snap.c.CaseNumber, from)
		default:
			return "", domainerr.Wrap(err, domainerr.CodeInternal, "state machine failure")
		}
	}
	return machine.State(), nil
}

// load reads the case and its children inside the transaction
func (e *engineImpl) load(ctx context.Context, caseID int64) (*caseSnapshot, error) {
	c, err := e.repos.Cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to load case")
	}
	if c == nil {
		return nil, domainerr.New(domainerr.CodeNotFound, "case not found")
	}

	panel, err := e.repos.Panels.GetByCaseID(ctx, caseID)
	if err != nil {
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to load panel")
	}

	witnesses, err := e.repos.Witnesses.ListByCaseID(ctx, caseID)
	if err != nil {
		return nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to load witnesses")
	}

	return &caseSnapshot{c: c, panel: panel, witnesses: witnesses}, nil
}

// record appends the audit entry and one notification per recipient
func (e *engineImpl) record(
	ctx context.Context,
	snap *caseSnapshot,
	caller entity.CallerIdentity,
	action, description, from, to string,
	extra map[string]interface{},
	now time.Time,
) (*entity.AuditEntry, []*entity.Notification, error) {
	metadata := make(map[string]interface{}, len(extra)+2)
	for k, v := range extra {
		metadata[k] = v
	}
	metadata[entity.MetaPreviousStatus] = from
	metadata[entity.MetaNewStatus] = to

	actor := caller.UserID
	entry := &entity.AuditEntry{
		CaseID:      snap.c.ID,
		Action:      action,
		Description: description,
		ActorID:     &actor,
		Metadata:    metadata,
		CreatedAt:   now,
	}
	if err := e.repos.Audit.Append(ctx, entry); err != nil {
		return nil, nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to append audit entry")
	}

	caseID := snap.c.ID
	recipients := Recipients(action, snap.parties(caller.UserID))
	notifications := make([]*entity.Notification, 0, len(recipients))
	for _, rid := range recipients {
		content := contentFor(action, snap.c, rid, from, to)
		n := &entity.Notification{
			RecipientID: rid,
			CaseID:      &caseID,
			Category:    content.category,
			Title:       content.title,
			Message:     content.message,
			CreatedAt:   now,
		}
		if err := e.repos.Notifications.Create(ctx, n); err != nil {
			return nil, nil, domainerr.Wrap(err, domainerr.CodeInternal, "failed to create notification")
		}
		notifications = append(notifications, n)
	}

	return entry, notifications, nil
}

// finish logs, counts and, on success, pushes one event per notified user
func (e *engineImpl) finish(ctx context.Context, name string, caseID int64, out *committed, err error) {
	if err != nil {
		code := domainerr.CodeOf(err)
		e.metrics.ObserveOperation(name, strings.ToLower(string(code)))
		if code == domainerr.CodeInternal {
			e.logger.Error("Case operation failed", "operation", name, "case_id", caseID, "error", err)
		}
		return
	}

	e.metrics.ObserveOperation(name, "ok")
	e.logger.Info("Case operation committed",
		"operation", name,
		"case_id", out.c.ID,
		"action", out.entry.Action,
		"previous_status", out.entry.PreviousStatus(),
		"new_status", out.entry.NewStatus(),
		"notifications", len(out.notifications))

	e.push(ctx, out)
}

// push never fails the operation; delivery errors are logged and counted
func (e *engineImpl) push(ctx context.Context, out *committed) {
	for _, n := range out.notifications {
		evt := event.NewEvent(event.TypeNotificationCreated, out.c.ID, n.RecipientID, map[string]interface{}{
			"notification_id": n.ID,
			"category":        n.Category,
			"title":           n.Title,
			"message":         n.Message,
			"case_number":     out.c.CaseNumber,
			"status":          out.c.Status,
			"action":          out.entry.Action,
		})
		if err := e.safePublish(ctx, evt); err != nil {
			e.metrics.ObservePushFailure()
			e.logger.Error("Push delivery failed",
				"case_id", out.c.ID,
				"recipient_id", n.RecipientID,
				"error", err)
		}
	}
}

func (e *engineImpl) safePublish(ctx context.Context, evt *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return e.notifier.Publish(ctx, evt)
}

// asDomainError makes sure nothing untyped leaves the engine
func asDomainError(err error) error {
	var de *domainerr.Error
	if errors.As(err, &de) {
		return err
	}
	return domainerr.Wrap(err, domainerr.CodeInternal, "internal error")
}

func humanTrigger(t domainwf.Trigger) string {
	return strings.ReplaceAll(t.String(), "_", " ")
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, *event.Event) error { return nil }
