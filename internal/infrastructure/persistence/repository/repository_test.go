package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/mediation-desk/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	db            *sql.DB
	tx            *sqlite.DB
	users         *UserRepository
	cases         port.CaseRepository
	audit         port.AuditRepository
	notifications port.NotificationRepository
	panels        port.PanelRepository
	witnesses     port.WitnessRepository
	evidence      port.EvidenceRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "repo.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).RunEmbedded())

	return &fixture{
		db:            db.DB,
		tx:            sqlite.NewDB(db.DB, logger),
		users:         NewUserRepository(db.DB, logger),
		cases:         NewCaseRepository(db.DB, logger),
		audit:         NewAuditRepository(db.DB, logger),
		notifications: NewNotificationRepository(db.DB, logger),
		panels:        NewPanelRepository(db.DB, logger),
		witnesses:     NewWitnessRepository(db.DB, logger),
		evidence:      NewEvidenceRepository(db.DB, logger),
	}
}

func (f *fixture) user(t *testing.T, name, email string) *entity.User {
	t.Helper()
	u := &entity.User{Name: name, Email: email}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) newCase(t *testing.T, complainant int64, number string) *entity.Case {
	t.Helper()
	c := &entity.Case{
		CaseNumber:    number,
		Category:      entity.CategoryProperty,
		Description:   "Boundary fence moved two metres onto my land",
		Status:        "PENDING",
		Priority:      entity.PriorityMedium,
		ComplainantID: complainant,
		OppositeParty: entity.OppositeParty{Name: "Neighbour", Phone: "+15550100"},
	}
	require.NoError(t, f.cases.Create(context.Background(), c))
	return c
}

func TestCaseRepository_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")

	c := &entity.Case{
		CaseNumber:    "MD-20261016-ABCDEF12",
		Category:      entity.CategoryFamily,
		Description:   "Custody schedule disagreement",
		Status:        "PENDING",
		Priority:      entity.PriorityHigh,
		ComplainantID: ann.ID,
		OppositeParty: entity.OppositeParty{Name: "Bob", Email: "bob@example.com", Address: "1 Main St"},
		Proceedings: entity.Proceedings{
			InCourt:         true,
			CourtCaseNumber: "FC-123",
			CourtName:       "Family Court",
		},
	}
	require.NoError(t, f.cases.Create(ctx, c))
	assert.NotZero(t, c.ID)

	got, err := f.cases.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.CaseNumber, got.CaseNumber)
	assert.Equal(t, entity.PriorityHigh, got.Priority)
	assert.Nil(t, got.RespondentID)
	assert.True(t, got.Proceedings.InCourt)
	assert.Equal(t, "Family Court", got.Proceedings.CourtName)
	assert.False(t, got.Proceedings.PoliceReported)
	assert.Equal(t, "bob@example.com", got.OppositeParty.Email)

	byNumber, err := f.cases.GetByCaseNumber(ctx, c.CaseNumber)
	require.NoError(t, err)
	require.NotNil(t, byNumber)
	assert.Equal(t, c.ID, byNumber.ID)

	missing, err := f.cases.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCaseRepository_CaseNumberIsUnique(t *testing.T) {
	f := newFixture(t)
	ann := f.user(t, "Ann", "ann@example.com")
	f.newCase(t, ann.ID, "MD-DUP")

	dup := &entity.Case{
		CaseNumber: "MD-DUP", Category: entity.CategoryOther, Description: "x", Status: "PENDING",
		Priority: entity.PriorityLow, ComplainantID: ann.ID, OppositeParty: entity.OppositeParty{Name: "Z"},
	}
	assert.Error(t, f.cases.Create(context.Background(), dup))
}

func TestCaseRepository_UpdateStatusIsConditional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	c := f.newCase(t, ann.ID, "MD-1")

	ok, err := f.cases.UpdateStatus(ctx, c.ID, "PENDING", "CANCELLED", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.cases.UpdateStatus(ctx, c.ID, "PENDING", "AWAITING_RESPONSE", time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "stale expected status must not match")

	got, err := f.cases.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", got.Status)
}

func TestCaseRepository_RespondentAndResponse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	c := f.newCase(t, ann.ID, "MD-1")

	require.NoError(t, f.cases.SetRespondent(ctx, c.ID, bob.ID, bob.Email))
	require.NoError(t, f.cases.SetResponse(ctx, c.ID, "I agree to mediate"))

	got, err := f.cases.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RespondentID)
	assert.Equal(t, bob.ID, *got.RespondentID)
	assert.Equal(t, "bob@example.com", got.OppositeParty.Email)
	assert.Equal(t, "I agree to mediate", got.ResponseText)
}

func TestCaseRepository_ListByParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	wit := f.user(t, "Wes", "wes@example.com")
	arb := f.user(t, "Ari", "ari@example.com")

	c1 := f.newCase(t, ann.ID, "MD-1")
	c2 := f.newCase(t, bob.ID, "MD-2")
	c3 := f.newCase(t, bob.ID, "MD-3")

	require.NoError(t, f.witnesses.Create(ctx, &entity.Witness{
		CaseID: c2.ID, UserID: wit.ID, Name: "Wes", Email: wit.Email, Relationship: "friend", NominatedBy: bob.ID,
	}))
	require.NoError(t, f.panels.Create(ctx, &entity.MediationPanel{CaseID: c3.ID, ArbiterID: arb.ID}))

	tests := []struct {
		name string
		user int64
		want []int64
	}{
		{"complainant", ann.ID, []int64{c1.ID}},
		{"complainant of two", bob.ID, []int64{c3.ID, c2.ID}},
		{"witness", wit.ID, []int64{c2.ID}},
		{"arbiter", arb.ID, []int64{c3.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid := tt.user
			cases, err := f.cases.List(ctx, port.CaseFilter{ParticipantID: &uid})
			require.NoError(t, err)
			var ids []int64
			for _, c := range cases {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	all, err := f.cases.List(ctx, port.CaseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := f.cases.List(ctx, port.CaseFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, c2.ID, limited[0].ID)

	byStatus, err := f.cases.List(ctx, port.CaseFilter{Status: "RESOLVED"})
	require.NoError(t, err)
	assert.Empty(t, byStatus)
}

func TestAuditRepository_AppendAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	c := f.newCase(t, ann.ID, "MD-1")

	actor := ann.ID
	require.NoError(t, f.audit.Append(ctx, &entity.AuditEntry{
		CaseID: c.ID, Action: entity.ActionCaseCreated, Description: "Case filed", ActorID: &actor,
		Metadata: map[string]interface{}{entity.MetaPreviousStatus: "", entity.MetaNewStatus: "PENDING"},
	}))
	require.NoError(t, f.audit.Append(ctx, &entity.AuditEntry{
		CaseID: c.ID, Action: entity.ActionCaseCancelled, Description: "Cancelled by system",
		Metadata: map[string]interface{}{entity.MetaPreviousStatus: "PENDING", entity.MetaNewStatus: "CANCELLED"},
	}))

	entries, err := f.audit.ListByCaseID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.ActionCaseCreated, entries[0].Action)
	require.NotNil(t, entries[0].ActorID)
	assert.Equal(t, ann.ID, *entries[0].ActorID)
	assert.Nil(t, entries[1].ActorID)
	assert.Equal(t, "PENDING", entries[1].PreviousStatus())
	assert.Equal(t, "CANCELLED", entries[1].NewStatus())
}

func TestNotificationRepository_Inbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	c := f.newCase(t, ann.ID, "MD-1")

	caseID := c.ID
	first := &entity.Notification{RecipientID: ann.ID, CaseID: &caseID, Category: entity.NotificationCaseUpdate, Title: "Filed", Message: "m1"}
	second := &entity.Notification{RecipientID: ann.ID, Category: entity.NotificationCaseUpdate, Title: "Other", Message: "m2"}
	require.NoError(t, f.notifications.Create(ctx, first))
	require.NoError(t, f.notifications.Create(ctx, second))

	count, err := f.notifications.CountUnread(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, f.notifications.MarkRead(ctx, first.ID))
	require.NoError(t, f.notifications.MarkRead(ctx, first.ID))

	unread, err := f.notifications.ListByRecipient(ctx, ann.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	all, err := f.notifications.ListByRecipient(ctx, ann.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	byCase, err := f.notifications.ListByCaseID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, byCase, 1)

	n, err := f.notifications.MarkAllRead(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, f.notifications.Delete(ctx, second.ID))
	gone, err := f.notifications.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := f.notifications.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.True(t, kept.Read)
}

func TestPanelRepository_OnePanelPerCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	arb := f.user(t, "Ari", "ari@example.com")
	adv := f.user(t, "Ada", "ada@example.com")
	c := f.newCase(t, ann.ID, "MD-1")

	none, err := f.panels.GetByCaseID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, f.panels.Create(ctx, &entity.MediationPanel{CaseID: c.ID, ArbiterID: arb.ID, AdvisorIDs: []int64{adv.ID}}))
	assert.Error(t, f.panels.Create(ctx, &entity.MediationPanel{CaseID: c.ID, ArbiterID: adv.ID}))

	p, err := f.panels.GetByCaseID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []int64{arb.ID, adv.ID}, p.MemberIDs())

	assert.Error(t, f.panels.Create(ctx, &entity.MediationPanel{CaseID: c.ID, ArbiterID: arb.ID, AdvisorIDs: []int64{1, 2, 3}}))
}

func TestWitnessRepository_DedupAndStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	wit := f.user(t, "Wes", "wes@example.com")
	c := f.newCase(t, ann.ID, "MD-1")

	w := &entity.Witness{CaseID: c.ID, UserID: wit.ID, Name: "Wes", Email: wit.Email, Relationship: "colleague", NominatedBy: ann.ID}
	require.NoError(t, f.witnesses.Create(ctx, w))
	assert.Error(t, f.witnesses.Create(ctx, &entity.Witness{
		CaseID: c.ID, UserID: wit.ID, Name: "Wes", Email: wit.Email, Relationship: "again", NominatedBy: ann.ID,
	}))

	require.NoError(t, f.witnesses.UpdateStatement(ctx, w.ID, "I saw the fence being moved", time.Now()))

	list, err := f.witnesses.ListByCaseID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "I saw the fence being moved", list[0].Statement)
	assert.NotNil(t, list[0].StatementAt)
}

func TestEvidenceRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	c := f.newCase(t, ann.ID, "MD-1")

	e := &entity.Evidence{CaseID: c.ID, UploaderID: ann.ID, FileName: "photo.jpg", MimeType: "image/jpeg", Size: 42, StoragePath: "case-1/photo.jpg"}
	require.NoError(t, f.evidence.Create(ctx, e))

	list, err := f.evidence.ListByCaseID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "photo.jpg", list[0].FileName)
	assert.Equal(t, int64(42), list[0].Size)
}

func TestUserRepository_Lookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &entity.User{Name: "Root", Email: "Root@Example.com", Role: entity.RoleAdmin}
	require.NoError(t, f.users.Create(ctx, admin))

	byEmail, err := f.users.GetByEmail(ctx, " root@example.com ")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.True(t, byEmail.IsAdmin())

	byID, err := f.users.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)

	unknown, err := f.users.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestTransaction_RollbackReachesRepositories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	boom := errors.New("boom")

	err := f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		c := &entity.Case{
			CaseNumber: "MD-TX", Category: entity.CategoryOther, Description: "x", Status: "PENDING",
			Priority: entity.PriorityLow, ComplainantID: ann.ID, OppositeParty: entity.OppositeParty{Name: "Z"},
		}
		if err := f.cases.Create(txCtx, c); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := f.cases.GetByCaseNumber(ctx, "MD-TX")
	require.NoError(t, err)
	assert.Nil(t, got, "insert made inside the rolled back transaction must not persist")
}

func TestTransaction_ConcurrentConditionalUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	c := f.newCase(t, ann.ID, "MD-RACE")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for _, target := range []string{"CANCELLED", "UNRESOLVED"} {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			err := f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
				current, err := f.cases.GetByID(txCtx, c.ID)
				if err != nil {
					return err
				}
				ok, err := f.cases.UpdateStatus(txCtx, c.ID, current.Status, target, time.Now())
				if err != nil {
					return err
				}
				if ok && current.Status == "PENDING" {
					mu.Lock()
					winners++
					mu.Unlock()
				}
				return nil
			})
			assert.NoError(t, err)
		}(target)
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "only one writer may move the case out of PENDING")
}
