package workflow

import (
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

// Relationship is a bit set of the ways a user is attached to a case
type Relationship uint8

const (
	RelComplainant Relationship = 1 << iota
	RelRespondent
	RelWitness
	RelPanelMember

	relNone    Relationship = 0
	relParties              = RelComplainant | RelRespondent
	relAny                  = RelComplainant | RelRespondent | RelWitness | RelPanelMember
)

// Has reports whether any of the given relationships is present
func (r Relationship) Has(other Relationship) bool {
	return r&other != 0
}

// accessRule declares who may run an operation
type accessRule struct {
	relationships Relationship
	// adminBypass lets admins through regardless of relationship
	adminBypass bool
}

var (
	adminOnly          = accessRule{relationships: relNone, adminBypass: true}
	partiesOrAdmin     = accessRule{relationships: relParties, adminBypass: true}
	complainantOrAdmin = accessRule{relationships: RelComplainant, adminBypass: true}
	anyoneOnCase       = accessRule{relationships: relAny, adminBypass: true}
	respondentOnly     = accessRule{relationships: RelRespondent}
	witnessOnly        = accessRule{relationships: RelWitness}
)

// relationshipsOf resolves every relationship the user holds with the case
func relationshipsOf(userID int64, c *entity.Case, panel *entity.MediationPanel, witnesses []*entity.Witness) Relationship {
	var rel Relationship
	if c.IsComplainant(userID) {
		rel |= RelComplainant
	}
	if c.IsRespondent(userID) {
		rel |= RelRespondent
	}
	if panel != nil && panel.IsMember(userID) {
		rel |= RelPanelMember
	}
	for _, w := range witnesses {
		if w.UserID == userID {
			rel |= RelWitness
			break
		}
	}
	return rel
}

// authorize returns NOT_FOUND when the caller cannot see the case at all and
// FORBIDDEN when they can see it but the operation needs another relationship
func authorize(caller entity.CallerIdentity, held Relationship, rule accessRule) error {
	if !caller.IsAuthenticated() {
		return domainerr.New(domainerr.CodeUnauthorized, "authentication required")
	}
	if caller.IsAdmin() && rule.adminBypass {
		return nil
	}
	if held == relNone && !caller.IsAdmin() {
		return domainerr.New(domainerr.CodeNotFound, "case not found")
	}
	if !held.Has(rule.relationships) {
		return domainerr.New(domainerr.CodeForbidden, "caller is not permitted to perform this action on the case")
	}
	return nil
}
