package workflow

import (
	"fmt"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
)

type notificationContent struct {
	category string
	title    string
	message  string
}

// contentFor words the inbox entry for one recipient of an action
func contentFor(action string, c *entity.Case, recipient int64, from, to string) notificationContent {
	n := c.CaseNumber
	switch action {
	case entity.ActionCaseCreated:
		if c.IsRespondent(recipient) {
			return notificationContent{entity.NotificationCaseUpdate, "New case filed with you as respondent",
				fmt.Sprintf("Case %s has been filed naming you as the opposite party. Please review it and respond.", n)}
		}
		return notificationContent{entity.NotificationCaseUpdate, "Case filed",
			fmt.Sprintf("Your case %s has been filed and is %s.", n, humanStatus(to))}
	case entity.ActionRespondentLinked:
		if c.IsRespondent(recipient) {
			return notificationContent{entity.NotificationCaseUpdate, "You have been linked to a case",
				fmt.Sprintf("Case %s names you as the respondent. Please review it and respond.", n)}
		}
		return notificationContent{entity.NotificationCaseUpdate, "Respondent linked",
			fmt.Sprintf("The opposite party on case %s has been linked to a registered account.", n)}
	case entity.ActionCaseAccepted:
		return notificationContent{entity.NotificationCaseUpdate, "Case accepted",
			fmt.Sprintf("The respondent accepted mediation for case %s.", n)}
	case entity.ActionCaseDeclined:
		return notificationContent{entity.NotificationCaseUpdate, "Case declined",
			fmt.Sprintf("The respondent declined mediation for case %s. The case is closed as unresolved.", n)}
	case entity.ActionWitnessesNominated:
		return notificationContent{entity.NotificationWitness, "Witness nomination",
			fmt.Sprintf("You have been nominated as a witness in case %s.", n)}
	case entity.ActionPanelCreated:
		if !c.IsComplainant(recipient) && !c.IsRespondent(recipient) {
			return notificationContent{entity.NotificationPanel, "Panel assignment",
				fmt.Sprintf("You have been assigned to the mediation panel for case %s.", n)}
		}
		return notificationContent{entity.NotificationPanel, "Mediation panel formed",
			fmt.Sprintf("A mediation panel has been formed for case %s.", n)}
	case entity.ActionMediationStarted:
		return notificationContent{entity.NotificationCaseUpdate, "Mediation started",
			fmt.Sprintf("Mediation for case %s is now in progress.", n)}
	case entity.ActionCaseResolved:
		return notificationContent{entity.NotificationCaseUpdate, "Case resolved",
			fmt.Sprintf("Case %s has been resolved.", n)}
	case entity.ActionCaseUnresolved:
		return notificationContent{entity.NotificationCaseUpdate, "Case closed unresolved",
			fmt.Sprintf("Case %s has been closed without resolution.", n)}
	case entity.ActionAdminOverride:
		return notificationContent{entity.NotificationCaseUpdate, "Case status updated",
			fmt.Sprintf("An administrator changed case %s from %s to %s.", n, humanStatus(from), humanStatus(to))}
	case entity.ActionCaseCancelled:
		return notificationContent{entity.NotificationCaseUpdate, "Case cancelled",
			fmt.Sprintf("Case %s has been cancelled.", n)}
	case entity.ActionEvidenceAdded:
		return notificationContent{entity.NotificationEvidence, "New evidence",
			fmt.Sprintf("New evidence was added to case %s.", n)}
	case entity.ActionWitnessStatement:
		return notificationContent{entity.NotificationWitness, "Witness statement submitted",
			fmt.Sprintf("A witness submitted a statement on case %s.", n)}
	}
	return notificationContent{entity.NotificationCaseUpdate, "Case updated",
		fmt.Sprintf("Case %s was updated.", n)}
}

var statusLabels = map[string]string{
	"PENDING":               "pending",
	"AWAITING_RESPONSE":     "awaiting a response",
	"ACCEPTED":              "accepted",
	"WITNESSES_NOMINATED":   "at witness nomination",
	"PANEL_CREATED":         "with a panel assigned",
	"MEDIATION_IN_PROGRESS": "in mediation",
	"RESOLVED":              "resolved",
	"UNRESOLVED":            "unresolved",
	"CANCELLED":             "cancelled",
}

func humanStatus(s string) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return s
}
