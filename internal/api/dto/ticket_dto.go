package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

// ChatbotTicketResponse is a persisted ticket as returned by the API.
type ChatbotTicketResponse struct {
	ID          string        `json:"id"`
	ExternalKey string        `json:"external_key"`
	SessionID   string        `json:"session_id"`
	Ticket      domain.Ticket `json:"ticket"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewChatbotTicketResponse maps the domain record.
func NewChatbotTicketResponse(t *domain.ChatbotTicket) ChatbotTicketResponse {
	return ChatbotTicketResponse{
		ID:          t.ID,
		ExternalKey: t.ExternalKey,
		SessionID:   t.SessionID,
		Ticket:      t.Ticket,
		CreatedAt:   t.CreatedAt,
	}
}
