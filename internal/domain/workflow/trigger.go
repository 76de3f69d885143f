package workflow

// Trigger is an event that moves a case between statuses
type Trigger string

const (
	TriggerLinkRespondent    Trigger = "LINK_RESPONDENT"
	TriggerAccept            Trigger = "ACCEPT"
	TriggerDecline           Trigger = "DECLINE"
	TriggerNominateWitnesses Trigger = "NOMINATE_WITNESSES"
	TriggerCreatePanel       Trigger = "CREATE_PANEL"
	TriggerBeginMediation    Trigger = "BEGIN_MEDIATION"
	TriggerResolve           Trigger = "RESOLVE"
	TriggerMarkUnresolved    Trigger = "MARK_UNRESOLVED"
	TriggerCancel            Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
