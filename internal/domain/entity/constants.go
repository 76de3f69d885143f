package entity

// Case categories
const (
	CategoryFamily       = "FAMILY"
	CategoryBusiness     = "BUSINESS"
	CategoryCriminal     = "CRIMINAL"
	CategoryProperty     = "PROPERTY"
	CategoryEmployment   = "EMPLOYMENT"
	CategoryNeighborhood = "NEIGHBORHOOD"
	CategoryOther        = "OTHER"
)

var validCategories = map[string]bool{
	CategoryFamily:       true,
	CategoryBusiness:     true,
	CategoryCriminal:     true,
	CategoryProperty:     true,
	CategoryEmployment:   true,
	CategoryNeighborhood: true,
	CategoryOther:        true,
}

// Case priorities
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

var validPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Audit action kinds
const (
	ActionCaseCreated        = "CASE_CREATED"
	ActionRespondentLinked   = "RESPONDENT_LINKED"
	ActionCaseAccepted       = "CASE_ACCEPTED"
	ActionCaseDeclined       = "CASE_DECLINED"
	ActionWitnessesNominated = "WITNESSES_NOMINATED"
	ActionPanelCreated       = "PANEL_CREATED"
	ActionMediationStarted   = "MEDIATION_STARTED"
	ActionCaseResolved       = "CASE_RESOLVED"
	ActionCaseUnresolved     = "CASE_UNRESOLVED"
	ActionAdminOverride      = "ADMIN_OVERRIDE"
	ActionCaseCancelled      = "CASE_CANCELLED"
	ActionEvidenceAdded      = "EVIDENCE_ADDED"
	ActionWitnessStatement   = "WITNESS_STATEMENT"
)

var validActions = map[string]bool{
	ActionCaseCreated:        true,
	ActionRespondentLinked:   true,
	ActionCaseAccepted:       true,
	ActionCaseDeclined:       true,
	ActionWitnessesNominated: true,
	ActionPanelCreated:       true,
	ActionMediationStarted:   true,
	ActionCaseResolved:       true,
	ActionCaseUnresolved:     true,
	ActionAdminOverride:      true,
	ActionCaseCancelled:      true,
	ActionEvidenceAdded:      true,
	ActionWitnessStatement:   true,
}

// Notification categories
const (
	NotificationCaseUpdate = "CASE_UPDATE"
	NotificationWitness    = "WITNESS"
	NotificationPanel      = "PANEL"
	NotificationEvidence   = "EVIDENCE"
)

// IsValidCategory reports whether c is a known case category
func IsValidCategory(c string) bool {
	return validCategories[c]
}

// IsValidPriority reports whether p is a known case priority
func IsValidPriority(p string) bool {
	return validPriorities[p]
}

// IsValidRole reports whether r is a known user role
func IsValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}

// IsValidAction reports whether a is a known audit action kind
func IsValidAction(a string) bool {
	return validActions[a]
}
