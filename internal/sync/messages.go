package sync

import (
	"fmt"
	"net/url"

	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/portal"
)

const actionLabel = "Voir la demande"

// Message is the notification text generated for a status change.
type Message struct {
	Title       string
	Content     string
	Type        domain.NotificationType
	ActionLink  string
	ActionLabel string
}

// MessageFor maps a status change to its notification. "approved" and
// "rejected" behave like "processed" with the approval flag set or cleared.
func MessageFor(change domain.StatusChange) Message {
	req := change.Request
	subject := "changement de " + requestLabel(req.Type)
	if req.Requested != "" {
		subject += " vers " + req.Requested
	}

	msg := Message{
		Type:        domain.TypeAdmin,
		ActionLink:  "/requests/" + url.PathEscape(req.ID),
		ActionLabel: actionLabel,
	}
	switch {
	case change.NewStatus == domain.StatusPending:
		msg.Title = "Demande enregistrée"
		msg.Content = fmt.Sprintf("Votre demande de %s a été enregistrée et est en attente d'approbation.", subject)
	case change.NewStatus == domain.StatusApproved,
		change.NewStatus == domain.StatusProcessed && req.IsApproved():
		msg.Title = "Demande approuvée"
		msg.Content = fmt.Sprintf("Votre demande de %s a été approuvée. Le changement est effectif immédiatement.", subject)
	// A processed request without an approval flag counts as rejected.
	case change.NewStatus == domain.StatusRejected,
		change.NewStatus == domain.StatusProcessed:
		msg.Title = "Demande refusée"
		msg.Content = fmt.Sprintf("Votre demande de %s a été refusée. Contactez l'administration pour plus d'informations.", subject)
	case change.NewStatus == domain.StatusDelegated:
		msg.Title = "Demande transmise"
		msg.Content = fmt.Sprintf("Votre demande de %s a été transmise à un administrateur de niveau supérieur.", subject)
	default:
		msg.Title = "Mise à jour de votre demande"
		msg.Content = fmt.Sprintf("Le statut de votre demande de %s a été mis à jour : %s.", subject, change.NewStatus)
	}
	return msg
}

// Payload builds the create-notification body for change.
func Payload(change domain.StatusChange, userID string) portal.CreateNotificationInput {
	msg := MessageFor(change)
	return portal.CreateNotificationInput{
		Title:       msg.Title,
		Content:     msg.Content,
		Type:        msg.Type,
		UserID:      userID,
		ActionLink:  msg.ActionLink,
		ActionLabel: msg.ActionLabel,
	}
}

func requestLabel(requestType string) string {
	switch requestType {
	case domain.RequestSection:
		return "section"
	case domain.RequestTD:
		return "groupe TD"
	case domain.RequestTP:
		return "groupe TP"
	case "":
		return "groupe"
	default:
		return requestType
	}
}
