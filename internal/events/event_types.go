package events

import (
	"time"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketRaised EventType = "ticket_raised"
	EventTurnFailed   EventType = "turn_failed"
)

// Actor identifies who drove the turn; empty for anonymous sessions.
type Actor struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// ActorFromPrincipal converts an optional principal into an Actor.
func ActorFromPrincipal(p *domain.Principal) Actor {
	if p == nil {
		return Actor{}
	}
	return Actor{UserID: p.UserID, Username: p.Username}
}

// Event represents something that happened while handling a chat turn.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketRaisedPayload carries the ticket drafted by the assistant.
type TicketRaisedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TurnFailedPayload describes where a turn fell back.
type TurnFailedPayload struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}
