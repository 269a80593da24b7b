package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

// ErrParse is returned when the model output does not fit the reply schema.
var ErrParse = errors.New("malformed assistant reply")

// StripFences removes the markdown code fence models like to wrap JSON in.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Wire shapes use pointers so absent required fields can be told apart from zero values.
type wireReply struct {
	Solution     *[]string   `json:"solution"`
	Ticket       *wireTicket `json:"ticket"`
	ResponseText *string     `json:"responseText"`
}

type wireTicket struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Priority    *string       `json:"priority"`
	Category    *string       `json:"category"`
	Subcategory *string       `json:"subcategory"`
	Status      *string       `json:"status"`
	Source      *string       `json:"source"`
	UserID      any           `json:"userid"`
	Username    any           `json:"username"`
	Tags        *[]string     `json:"tags"`
	AIAnalysis  *wireAnalysis `json:"aiAnalysis"`
}

type wireAnalysis struct {
	Sentiment *string   `json:"sentiment"`
	Keywords  *[]string `json:"keywords"`
}

// Coerce parses model output into an AssistantReply. Only the structure is
// checked; enum values and solution/ticket exclusivity are left to the caller.
func Coerce(raw string) (domain.AssistantReply, error) {
	var wire wireReply
	if err := json.Unmarshal([]byte(StripFences(raw)), &wire); err != nil {
		return domain.AssistantReply{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if wire.ResponseText == nil {
		return domain.AssistantReply{}, fmt.Errorf("%w: missing responseText", ErrParse)
	}

	reply := domain.AssistantReply{ResponseText: *wire.ResponseText}
	if wire.Solution != nil {
		reply.Solution = *wire.Solution
		if reply.Solution == nil {
			reply.Solution = []string{}
		}
	}
	if wire.Ticket != nil {
		ticket, err := wire.Ticket.toDomain()
		if err != nil {
			return domain.AssistantReply{}, err
		}
		reply.Ticket = ticket
	}
	return reply, nil
}

func (w *wireTicket) toDomain() (*domain.Ticket, error) {
	var missing []string
	require := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	require("title", w.Title != nil)
	require("description", w.Description != nil)
	require("priority", w.Priority != nil)
	require("category", w.Category != nil)
	require("subcategory", w.Subcategory != nil)
	require("status", w.Status != nil)
	require("source", w.Source != nil)
	require("tags", w.Tags != nil)
	require("aiAnalysis", w.AIAnalysis != nil)
	if w.AIAnalysis != nil {
		require("aiAnalysis.sentiment", w.AIAnalysis.Sentiment != nil)
		require("aiAnalysis.keywords", w.AIAnalysis.Keywords != nil)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: ticket missing %s", ErrParse, strings.Join(missing, ", "))
	}

	return &domain.Ticket{
		Title:       *w.Title,
		Description: *w.Description,
		Priority:    domain.TicketPriority(*w.Priority),
		Category:    domain.TicketCategory(*w.Category),
		Subcategory: *w.Subcategory,
		Status:      domain.TicketStatus(*w.Status),
		Source:      domain.TicketSource(*w.Source),
		UserID:      optionalString(w.UserID),
		Username:    optionalString(w.Username),
		Tags:        *w.Tags,
		AIAnalysis: domain.AIAnalysis{
			Sentiment: domain.Sentiment(*w.AIAnalysis.Sentiment),
			Keywords:  *w.AIAnalysis.Keywords,
		},
	}, nil
}

// optionalString keeps informational fields lenient: models sometimes emit numbers or null.
func optionalString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
