package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/univ-portal/portal-inbox/internal/domain"
)

func TestMessageFor(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name      string
		status    string
		approved  *bool
		reqType   string
		wantTitle string
		wantText  string
	}{
		{"pending", domain.StatusPending, nil, domain.RequestSection, "Demande enregistrée", "en attente d'approbation"},
		{"processed approved", domain.StatusProcessed, &yes, domain.RequestTD, "Demande approuvée", "groupe TD vers S2"},
		{"approved alias", domain.StatusApproved, nil, domain.RequestTP, "Demande approuvée", "groupe TP"},
		{"processed refused", domain.StatusProcessed, &no, domain.RequestSection, "Demande refusée", "a été refusée"},
		{"processed without flag", domain.StatusProcessed, nil, domain.RequestSection, "Demande refusée", "a été refusée"},
		{"rejected alias", domain.StatusRejected, nil, domain.RequestSection, "Demande refusée", "Contactez l'administration"},
		{"delegated", domain.StatusDelegated, nil, domain.RequestSection, "Demande transmise", "niveau supérieur"},
		{"other status", domain.StatusCancelled, nil, "", "Mise à jour de votre demande", "changement de groupe vers S2 a été mis à jour : cancelled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := domain.StatusChange{
				Request: domain.ChangeRequest{
					ID:        "r 1",
					Status:    tt.status,
					Type:      tt.reqType,
					Requested: "S2",
					Approved:  tt.approved,
				},
				OldStatus: domain.StatusPending,
				NewStatus: tt.status,
			}
			msg := MessageFor(change)
			assert.Equal(t, tt.wantTitle, msg.Title)
			assert.Contains(t, msg.Content, tt.wantText)
			assert.Equal(t, domain.TypeAdmin, msg.Type)
			assert.Equal(t, "/requests/r%201", msg.ActionLink)
			assert.Equal(t, "Voir la demande", msg.ActionLabel)
		})
	}
}

func TestPayloadCarriesUser(t *testing.T) {
	change := domain.StatusChange{
		Request:   domain.ChangeRequest{ID: "r1", Type: domain.RequestSection},
		NewStatus: domain.StatusPending,
	}
	p := Payload(change, "u42")
	assert.Equal(t, "u42", p.UserID)
	assert.Equal(t, "Demande enregistrée", p.Title)
	assert.Equal(t, "/requests/r1", p.ActionLink)
}
