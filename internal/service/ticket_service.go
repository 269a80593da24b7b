package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
	"github.com/spec-kit/helpdesk-chat/internal/events"
	"github.com/spec-kit/helpdesk-chat/internal/repository"
)

// ErrTicketStoreDisabled is returned when no ticket database is configured.
var ErrTicketStoreDisabled = errors.New("ticket store not configured")

const (
	defaultTicketPageSize = 50
	maxTicketPageSize     = 200
)

// TicketService records tickets raised by the assistant.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTicketService creates the service. A nil repository disables persistence.
func NewTicketService(tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{tickets: tickets, dispatcher: dispatcher, logger: logger}
}

// Enabled reports whether tickets are persisted.
func (s *TicketService) Enabled() bool {
	return s.tickets != nil
}

// RegisterHandlers subscribes to raised tickets.
func (s *TicketService) RegisterHandlers() {
	if s.dispatcher == nil || !s.Enabled() {
		return
	}
	s.dispatcher.Subscribe(events.EventTicketRaised, s.handleTicketRaised)
}

func (s *TicketService) handleTicketRaised(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRaisedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	record, err := s.Record(ctx, event.SessionID, payload.Ticket)
	if err != nil {
		return err
	}
	s.logger.Info("TicketRecorded",
		zap.String("session_id", record.SessionID),
		zap.String("external_key", record.ExternalKey),
		zap.String("ticket_id", record.ID))
	return nil
}

// Record persists a ticket drafted in sessionID. Status and source are
// normalised; the model does not get to pick them.
func (s *TicketService) Record(ctx context.Context, sessionID string, ticket domain.Ticket) (*domain.ChatbotTicket, error) {
	if !s.Enabled() {
		return nil, ErrTicketStoreDisabled
	}
	ticket.Title = strings.TrimSpace(ticket.Title)
	ticket.Description = strings.TrimSpace(ticket.Description)
	ticket.Status = domain.TicketStatusOpen
	ticket.Source = domain.TicketSourceChatbot

	record := &domain.ChatbotTicket{
		ExternalKey: generateTicketKey(),
		SessionID:   sessionID,
		Ticket:      ticket,
	}
	if err := s.tickets.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create chatbot ticket: %w", err)
	}
	return record, nil
}

// ListBySession returns tickets raised in a session in creation order.
func (s *TicketService) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]domain.ChatbotTicket, error) {
	if !s.Enabled() {
		return nil, ErrTicketStoreDisabled
	}
	if err := repository.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTicketPageSize
	}
	if limit > maxTicketPageSize {
		limit = maxTicketPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.tickets.ListBySession(ctx, sessionID, limit, offset)
}

// GetByExternalKey looks a ticket up by its TCK- key.
func (s *TicketService) GetByExternalKey(ctx context.Context, key string) (*domain.ChatbotTicket, error) {
	if !s.Enabled() {
		return nil, ErrTicketStoreDisabled
	}
	return s.tickets.GetByExternalKey(ctx, strings.ToUpper(strings.TrimSpace(key)))
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
