package workflow

import (
	"context"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
)

// CaseEngine runs every case operation. Each state-changing call is one
// transaction: status compare-and-set, one audit entry, one notification per
// recipient. Push delivery happens after commit and never fails the call.
type CaseEngine interface {
	CreateCase(ctx context.Context, caller entity.CallerIdentity, in CreateCaseInput) (*entity.Case, error)
	LinkRespondent(ctx context.Context, caller entity.CallerIdentity, caseID int64, email string) (*entity.Case, error)
	RespondToCase(ctx context.Context, caller entity.CallerIdentity, caseID int64, accepted bool, responseText string) (*entity.Case, error)
	NominateWitnesses(ctx context.Context, caller entity.CallerIdentity, caseID int64, nominations []WitnessNomination) ([]*entity.Witness, error)
	CreatePanel(ctx context.Context, caller entity.CallerIdentity, caseID int64, members PanelMembers) (*entity.MediationPanel, error)
	BeginMediation(ctx context.Context, caller entity.CallerIdentity, caseID int64) (*entity.Case, error)
	Resolve(ctx context.Context, caller entity.CallerIdentity, caseID int64, note string) (*entity.Case, error)
	MarkUnresolved(ctx context.Context, caller entity.CallerIdentity, caseID int64, reason string) (*entity.Case, error)
	SetStatus(ctx context.Context, caller entity.CallerIdentity, caseID int64, target string, reason string) (*entity.Case, error)
	CancelCase(ctx context.Context, caller entity.CallerIdentity, caseID int64, reason string) (*entity.Case, error)

	RecordEvidence(ctx context.Context, caller entity.CallerIdentity, caseID int64, evidence *entity.Evidence) (*entity.Evidence, error)
	SubmitWitnessStatement(ctx context.Context, caller entity.CallerIdentity, caseID int64, statement string) (*entity.Witness, error)

	GetCase(ctx context.Context, caller entity.CallerIdentity, caseID int64) (*entity.Case, error)
	GetCaseByNumber(ctx context.Context, caller entity.CallerIdentity, caseNumber string) (*entity.Case, error)
	GetCaseHistory(ctx context.Context, caller entity.CallerIdentity, caseID int64) ([]*entity.AuditEntry, error)
	ListCases(ctx context.Context, caller entity.CallerIdentity, filter port.CaseFilter) ([]*entity.Case, error)
	ListWitnesses(ctx context.Context, caller entity.CallerIdentity, caseID int64) ([]*entity.Witness, error)
	GetPanel(ctx context.Context, caller entity.CallerIdentity, caseID int64) (*entity.MediationPanel, error)
}

// CreateCaseInput is the complainant's filing
type CreateCaseInput struct {
	Category      string               `json:"category"`
	Description   string               `json:"description"`
	Priority      string               `json:"priority"`
	OppositeParty entity.OppositeParty `json:"opposite_party"`
	Proceedings   entity.Proceedings   `json:"proceedings"`
}

// WitnessNomination identifies a registered user by email
type WitnessNomination struct {
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// PanelMembers names the arbiter and up to two advisors
type PanelMembers struct {
	ArbiterID  int64   `json:"arbiter_id"`
	AdvisorIDs []int64 `json:"advisor_ids"`
}

// Logger is the logging surface the engine needs
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics receives operation outcomes
type Metrics interface {
	ObserveOperation(operation, outcome string)
	ObservePushFailure()
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, string) {}
func (nopMetrics) ObservePushFailure()             {}
