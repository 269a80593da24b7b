package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
	"github.com/spec-kit/helpdesk-chat/internal/events"
	"github.com/spec-kit/helpdesk-chat/internal/llm"
	"github.com/spec-kit/helpdesk-chat/internal/observability"
	"github.com/spec-kit/helpdesk-chat/internal/repository"
	"github.com/spec-kit/helpdesk-chat/pkg/util/errorutil"
)

// UnreadableMessageText replaces stored assistant turns that no longer parse.
const UnreadableMessageText = "Error: Could not load this message."

// Pipeline stages reported when a turn falls back.
const (
	StageValidate = "validate"
	StageHistory  = "history"
	StageOracle   = "oracle"
	StagePersist  = "persist"
	StageParse    = "parse"
)

const outcomeOK = "ok"

// ImageAnalyzer turns an attached screenshot into text. It never fails.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, imageData string) string
}

// ChatInput is one user turn as received from the transport.
type ChatInput struct {
	Query     string
	SessionID string
	ImageData string
	Principal *domain.Principal
}

// HistoryEntry is one stored turn prepared for display.
// Reply is nil for assistant turns whose stored text cannot be parsed.
type HistoryEntry struct {
	Role     domain.Role
	Text     string
	ImageURL string
	Reply    *domain.AssistantReply
}

// ChatService runs the turn pipeline: history, screenshot, oracle, persistence, coercion.
type ChatService struct {
	sessions   repository.SessionRepository
	oracle     llm.Oracle
	analyzer   ImageAnalyzer
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	locks      *sessionLocks
	now        func() time.Time
}

// ChatDependencies bundles collaborators for the chat service.
type ChatDependencies struct {
	Sessions   repository.SessionRepository
	Oracle     llm.Oracle
	Analyzer   ImageAnalyzer
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewChatService wires the chat service.
func NewChatService(deps ChatDependencies) *ChatService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		sessions:   deps.Sessions,
		oracle:     deps.Oracle,
		analyzer:   deps.Analyzer,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		locks:      newSessionLocks(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ValidateChatInput checks the request shape before a turn starts.
func ValidateChatInput(input ChatInput) error {
	if err := repository.ValidateSessionID(input.SessionID); err != nil {
		return errorutil.NewValidationError("invalid session_id", map[string]any{"session_id": err.Error()})
	}
	if strings.TrimSpace(input.Query) == "" && strings.TrimSpace(input.ImageData) == "" {
		return errorutil.NewValidationError("message or image_data is required", nil)
	}
	return nil
}

// Handle processes one turn. Failures are logged and answered with the
// fallback reply; no error reaches the caller.
func (s *ChatService) Handle(ctx context.Context, input ChatInput) domain.AssistantReply {
	if err := ValidateChatInput(input); err != nil {
		return s.fail(ctx, input, StageValidate, "", err)
	}

	unlock := s.locks.lock(input.SessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, input.SessionID)
	if err != nil {
		return s.fail(ctx, input, StageHistory, "", err)
	}

	hasImage := strings.TrimSpace(input.ImageData) != ""
	query := input.Query
	if hasImage {
		query = EffectiveQuery(input.Query, s.analyzer.Analyze(ctx, input.ImageData), true)
	}

	raw, err := s.oracle.Complete(ctx, ComposePrompt(session.Turns, query))
	// Persistence outlives a client that disconnected mid-turn.
	persistCtx := context.WithoutCancel(ctx)
	human := domain.HumanTurn(input.Query, input.ImageData, s.now())
	if err != nil {
		if appendErr := s.sessions.Append(persistCtx, input.SessionID, human); appendErr != nil {
			s.logger.Error("failed to persist human turn",
				zap.String("session_id", input.SessionID), zap.Error(appendErr))
		}
		return s.fail(ctx, input, StageOracle, "", err)
	}

	content := StripFences(raw)
	if err := s.sessions.Append(persistCtx, input.SessionID, human, domain.AssistantTurn(content, s.now())); err != nil {
		return s.fail(ctx, input, StagePersist, raw, err)
	}

	reply, err := Coerce(content)
	if err != nil {
		return s.fail(ctx, input, StageParse, raw, err)
	}

	if reply.Ticket != nil && input.Principal != nil {
		reply.Ticket.UserID = input.Principal.UserID
		reply.Ticket.Username = input.Principal.Username
	}
	if !reply.Exclusive() {
		s.logger.Warn("assistant returned both solution and ticket",
			zap.String("session_id", input.SessionID))
	}

	s.logger.Info("ai response",
		zap.String("session_id", input.SessionID),
		zap.String("kind", reply.Kind()),
		zap.Any("reply", reply))
	s.metrics.RecordTurn(outcomeOK)

	if reply.Ticket != nil {
		s.publish(ctx, events.Event{
			Type:      events.EventTicketRaised,
			SessionID: input.SessionID,
			Actor:     events.ActorFromPrincipal(input.Principal),
			Payload:   events.TicketRaisedPayload{Ticket: *reply.Ticket},
		})
	}
	return reply
}

// History returns the stored turns of a session ready for display.
// An unknown session yields an empty slice.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	if err := repository.ValidateSessionID(sessionID); err != nil {
		return nil, errorutil.NewValidationError("invalid session_id", map[string]any{"session_id": err.Error()})
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, errorutil.NewUnavailable("session store unavailable", err)
	}

	entries := make([]HistoryEntry, 0, len(session.Turns))
	for _, turn := range session.Turns {
		switch turn.Role {
		case domain.RoleHuman:
			entries = append(entries, HistoryEntry{Role: domain.RoleHuman, Text: turn.Content, ImageURL: turn.ImageURL})
		case domain.RoleAssistant:
			entry := HistoryEntry{Role: domain.RoleAssistant, Text: turn.Content}
			if reply, err := Coerce(turn.Content); err == nil {
				entry.Reply = &reply
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *ChatService) fail(ctx context.Context, input ChatInput, stage, raw string, err error) domain.AssistantReply {
	rawOutput := raw
	if rawOutput == "" {
		rawOutput = "N/A"
	}
	s.logger.Error("turn failed",
		zap.String("session_id", input.SessionID),
		zap.String("stage", stage),
		zap.String("raw_output", rawOutput),
		zap.Error(err))
	s.metrics.RecordTurn("fallback_" + stage)

	reason := err.Error()
	if errors.Is(err, ErrParse) {
		reason = ErrParse.Error()
	}
	s.publish(ctx, events.Event{
		Type:      events.EventTurnFailed,
		SessionID: input.SessionID,
		Actor:     events.ActorFromPrincipal(input.Principal),
		Payload:   events.TurnFailedPayload{Stage: stage, Reason: reason},
	})
	return domain.FallbackReply()
}

func (s *ChatService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(context.WithoutCancel(ctx), event)
}
