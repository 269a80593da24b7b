package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-chat/internal/api/dto"
	"github.com/spec-kit/helpdesk-chat/internal/repository"
	"github.com/spec-kit/helpdesk-chat/internal/service"
	apperrors "github.com/spec-kit/helpdesk-chat/pkg/util/errorutil"
)

// TicketsHandler exposes tickets raised by the assistant.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets?session_id=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return apperrors.NewValidationError("session_id query parameter required", nil)
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	tickets, err := h.service.ListBySession(c.UserContext(), sessionID, pageSize, (page-1)*pageSize)
	if err != nil {
		return ticketError(err)
	}
	items := make([]dto.ChatbotTicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewChatbotTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:key.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetByExternalKey(c.UserContext(), c.Params("key"))
	if err != nil {
		return ticketError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewChatbotTicketResponse(ticket)})
}

func ticketError(err error) error {
	switch {
	case errors.Is(err, service.ErrTicketStoreDisabled):
		return apperrors.NewUnavailable("ticket store not configured", err)
	case errors.Is(err, repository.ErrInvalidSessionID):
		return apperrors.NewValidationError("invalid session_id", map[string]any{"session_id": err.Error()})
	default:
		return apperrors.MapError(err)
	}
}

func parseInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
