package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-chat/internal/api/dto"
	"github.com/spec-kit/helpdesk-chat/internal/auth"
	"github.com/spec-kit/helpdesk-chat/internal/domain"
	"github.com/spec-kit/helpdesk-chat/internal/service"
	apperrors "github.com/spec-kit/helpdesk-chat/pkg/util/errorutil"
)

// ChatHandler serves the chat endpoints.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat POST /chat. Only malformed requests produce an error status;
// turn failures come back as the fallback reply.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.ChatInput{
		Query:     req.Message,
		SessionID: req.SessionID,
		ImageData: req.ImageData,
	}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		input.Principal = principal
	}
	if err := service.ValidateChatInput(input); err != nil {
		return err
	}

	reply := h.chat.Handle(c.UserContext(), input)
	return c.JSON(reply)
}

// History GET /chat/history/:session_id.
func (h *ChatHandler) History(c *fiber.Ctx) error {
	entries, err := h.chat.History(c.UserContext(), c.Params("session_id"))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, historyItem(entry))
	}
	return c.JSON(dto.HistoryResponse{History: items})
}

func historyItem(entry service.HistoryEntry) dto.HistoryItem {
	if entry.Role == domain.RoleHuman {
		parts := []any{dto.TextPart{Type: "text", Text: entry.Text}}
		if entry.ImageURL != "" {
			parts = append(parts, dto.ImagePart{Type: "image_url", URL: entry.ImageURL})
		}
		return dto.HistoryItem{Type: "human", Content: parts}
	}
	if entry.Reply == nil {
		return dto.HistoryItem{Type: "ai", Content: dto.UnreadableReply{ResponseText: service.UnreadableMessageText}}
	}
	return dto.HistoryItem{Type: "ai", Content: entry.Reply}
}
