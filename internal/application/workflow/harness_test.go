package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/application/workflow"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/domain/event"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/repository"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/mediation-desk/pkg/database"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []*event.Event
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, evt *event.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return n.err
}

func (n *recordingNotifier) recipients() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]int64, 0, len(n.events))
	for _, evt := range n.events {
		ids = append(ids, evt.RecipientID)
	}
	return ids
}

type recordingMetrics struct {
	mu           sync.Mutex
	outcomes     map[string]int
	pushFailures int
}

func (m *recordingMetrics) ObserveOperation(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[operation+"/"+outcome]++
}

func (m *recordingMetrics) ObservePushFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushFailures++
}

type failingNotifications struct {
	port.NotificationRepository
}

func (failingNotifications) Create(context.Context, *entity.Notification) error {
	return errors.New("disk I/O error")
}

type harness struct {
	engine   workflow.CaseEngine
	repos    workflow.Repositories
	users    *repository.UserRepository
	tx       *sqlite.DB
	notifier *recordingNotifier
	metrics  *recordingMetrics

	admin, ann, bob, carol, dave, erin *entity.User
}

func newHarness(t *testing.T, opts ...workflow.EngineOption) *harness {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "engine.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).RunEmbedded())

	h := &harness{
		repos: workflow.Repositories{
			Cases:         repository.NewCaseRepository(db.DB, logger),
			Audit:         repository.NewAuditRepository(db.DB, logger),
			Notifications: repository.NewNotificationRepository(db.DB, logger),
			Panels:        repository.NewPanelRepository(db.DB, logger),
			Witnesses:     repository.NewWitnessRepository(db.DB, logger),
			Evidence:      repository.NewEvidenceRepository(db.DB, logger),
		},
		users:    repository.NewUserRepository(db.DB, logger),
		tx:       sqlite.NewDB(db.DB, logger),
		notifier: &recordingNotifier{},
		metrics:  &recordingMetrics{outcomes: map[string]int{}},
	}

	h.admin = h.user(t, "Mediator Admin", "admin@example.com", entity.RoleAdmin)
	h.ann = h.user(t, "Ann Complainant", "ann@example.com", entity.RoleUser)
	h.bob = h.user(t, "Bob Respondent", "bob@example.com", entity.RoleUser)
	h.carol = h.user(t, "Carol Third", "carol@example.com", entity.RoleUser)
	h.dave = h.user(t, "Dave Fourth", "dave@example.com", entity.RoleUser)
	h.erin = h.user(t, "Erin Fifth", "erin@example.com", entity.RoleUser)

	h.engine = h.build(h.repos, opts...)
	return h
}

// build creates another engine over the same database, e.g. with a broken repository
func (h *harness) build(repos workflow.Repositories, opts ...workflow.EngineOption) workflow.CaseEngine {
	base := []workflow.EngineOption{
		workflow.WithNotifier(h.notifier),
		workflow.WithMetrics(h.metrics),
	}
	return workflow.NewEngine(repos, h.users, h.tx, append(base, opts...)...)
}

func (h *harness) user(t *testing.T, name, email, role string) *entity.User {
	t.Helper()
	u := &entity.User{Name: name, Email: email, Role: role}
	require.NoError(t, h.users.Create(context.Background(), u))
	return u
}

func as(u *entity.User) entity.CallerIdentity {
	return entity.CallerIdentity{UserID: u.ID, Role: u.Role}
}

func filing(oppositeEmail string) workflow.CreateCaseInput {
	return workflow.CreateCaseInput{
		Category:    "neighborhood",
		Description: "The neighbour's extension blocks the shared drainage channel.",
		OppositeParty: entity.OppositeParty{
			Name:  "Bob",
			Email: oppositeEmail,
			Phone: "+1 555 0100",
		},
	}
}

// fileAgainstBob files a case by ann that links bob automatically
func (h *harness) fileAgainstBob(t *testing.T) *entity.Case {
	t.Helper()
	c, err := h.engine.CreateCase(context.Background(), as(h.ann), filing(h.bob.Email))
	require.NoError(t, err)
	return c
}

// acceptedCase returns a case bob has accepted
func (h *harness) acceptedCase(t *testing.T) *entity.Case {
	t.Helper()
	c := h.fileAgainstBob(t)
	c, err := h.engine.RespondToCase(context.Background(), as(h.bob), c.ID, true, "Happy to talk it through")
	require.NoError(t, err)
	return c
}

// panelCase returns an accepted case with carol as arbiter and dave as advisor
func (h *harness) panelCase(t *testing.T) *entity.Case {
	t.Helper()
	c := h.acceptedCase(t)
	_, err := h.engine.CreatePanel(context.Background(), as(h.admin), c.ID, workflow.PanelMembers{
		ArbiterID:  h.carol.ID,
		AdvisorIDs: []int64{h.dave.ID},
	})
	require.NoError(t, err)
	return c
}

func (h *harness) status(t *testing.T, caseID int64) string {
	t.Helper()
	c, err := h.repos.Cases.GetByID(context.Background(), caseID)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c.Status
}

func (h *harness) history(t *testing.T, caseID int64) []*entity.AuditEntry {
	t.Helper()
	entries, err := h.repos.Audit.ListByCaseID(context.Background(), caseID)
	require.NoError(t, err)
	return entries
}

func (h *harness) notifications(t *testing.T, caseID int64) []*entity.Notification {
	t.Helper()
	list, err := h.repos.Notifications.ListByCaseID(context.Background(), caseID)
	require.NoError(t, err)
	return list
}

func recipientsOf(list []*entity.Notification) []int64 {
	ids := make([]int64, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.RecipientID)
	}
	return ids
}

func requireCode(t *testing.T, err error, code domainerr.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, domainerr.CodeOf(err), "error: %v", err)
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var de *domainerr.Error
	require.True(t, errors.As(err, &de))
	names := make([]string, 0, len(de.Fields))
	for _, f := range de.Fields {
		names = append(names, f.Field)
	}
	return names
}
