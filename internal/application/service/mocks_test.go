package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/garyjia/mediation-desk/internal/application/workflow"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

var (
	ann    = entity.CallerIdentity{UserID: 2, Role: entity.RoleUser}
	bob    = entity.CallerIdentity{UserID: 3, Role: entity.RoleUser}
	nobody = entity.CallerIdentity{}
)

type mockNotificationRepo struct {
	mu      sync.Mutex
	items   map[int64]*entity.Notification
	failAll error
}

func newMockNotificationRepo(items ...*entity.Notification) *mockNotificationRepo {
	m := &mockNotificationRepo{items: map[int64]*entity.Notification{}}
	for _, n := range items {
		m.items[n.ID] = n
	}
	return m
}

func (m *mockNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = int64(len(m.items) + 1)
	m.items[n.ID] = n
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id int64) (*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	n, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (m *mockNotificationRepo) ListByRecipient(_ context.Context, recipientID int64, unreadOnly bool) ([]*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []*entity.Notification
	for _, n := range m.items {
		if n.RecipientID == recipientID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) ListByCaseID(context.Context, int64) ([]*entity.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	m.items[id].Read = true
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, recipientID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return 0, m.failAll
	}
	var count int64
	for _, n := range m.items {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	list, err := m.ListByRecipient(ctx, recipientID, true)
	return len(list), err
}

// mockEngine implements only the calls the services make; anything else panics
type mockEngine struct {
	workflow.CaseEngine

	c            *entity.Case
	history      []*entity.AuditEntry
	recordErr    error
	recorded     []*entity.Evidence
	getCaseCalls int
}

func (m *mockEngine) GetCase(_ context.Context, caller entity.CallerIdentity, caseID int64) (*entity.Case, error) {
	m.getCaseCalls++
	if m.c == nil || caseID != m.c.ID || !(m.c.IsComplainant(caller.UserID) || m.c.IsRespondent(caller.UserID)) {
		return nil, domainerr.Newf(domainerr.CodeNotFound, "case %d not found", caseID)
	}
	return m.c, nil
}

func (m *mockEngine) GetCaseHistory(ctx context.Context, caller entity.CallerIdentity, caseID int64) ([]*entity.AuditEntry, error) {
	if _, err := m.GetCase(ctx, caller, caseID); err != nil {
		return nil, err
	}
	return m.history, nil
}

func (m *mockEngine) RecordEvidence(_ context.Context, caller entity.CallerIdentity, caseID int64, e *entity.Evidence) (*entity.Evidence, error) {
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	e.ID = int64(len(m.recorded) + 1)
	e.CaseID = caseID
	e.UploaderID = caller.UserID
	e.CreatedAt = time.Now()
	m.recorded = append(m.recorded, e)
	return e, nil
}

type mockEvidenceRepo struct {
	engine *mockEngine
}

func (m *mockEvidenceRepo) Create(context.Context, *entity.Evidence) error { return nil }

func (m *mockEvidenceRepo) ListByCaseID(_ context.Context, caseID int64) ([]*entity.Evidence, error) {
	var out []*entity.Evidence
	for _, e := range m.engine.recorded {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockBlobStore struct {
	files  map[string][]byte
	putErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{files: map[string][]byte{}}
}

func (m *mockBlobStore) Put(_ context.Context, caseID int64, fileName string, content []byte) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	path := "cases/" + fileName
	m.files[path] = content
	return path, nil
}

func (m *mockBlobStore) Read(_ context.Context, path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return content, nil
}

func (m *mockBlobStore) Delete(_ context.Context, path string) error {
	delete(m.files, path)
	return nil
}

type mockRenderer struct {
	rendered []*entity.AuditEntry
	err      error
}

func (m *mockRenderer) Render(_ *entity.Case, entries []*entity.AuditEntry) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.rendered = entries
	return []byte("workbook"), nil
}

func (m *mockRenderer) ContentType() string   { return "application/test" }
func (m *mockRenderer) FileExtension() string { return ".xlsx" }

type capturedLog struct {
	msg string
	kv  []interface{}
}

type captureLogger struct {
	errors []capturedLog
}

func (c *captureLogger) Info(string, ...interface{}) {}

func (c *captureLogger) Error(msg string, kv ...interface{}) {
	c.errors = append(c.errors, capturedLog{msg: msg, kv: kv})
}

func filedCase() *entity.Case {
	respondent := bob.UserID
	return &entity.Case{
		ID:            10,
		CaseNumber:    "MD-20261016-0000000A",
		Status:        "ACCEPTED",
		ComplainantID: ann.UserID,
		RespondentID:  &respondent,
	}
}
