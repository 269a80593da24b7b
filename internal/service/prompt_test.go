package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

func TestEffectiveQuery(t *testing.T) {
	assert.Equal(t, "vpn drops", EffectiveQuery("vpn drops", "ignored", false))
	assert.Equal(t,
		"SCREENSHOT OCR RESULT:\nError 809\n\nUSER MESSAGE: \"vpn drops\"",
		EffectiveQuery("vpn drops", "Error 809", true))
	assert.Equal(t,
		"SCREENSHOT OCR RESULT:\nError 809\n\nUSER MESSAGE: \"\"",
		EffectiveQuery("", "Error 809", true))
}

func TestComposePrompt(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	turns := []domain.Turn{
		domain.HumanTurn("printer offline", "", at),
		domain.AssistantTurn(`{"responseText":"Which printer?"}`, at),
		domain.HumanTurn("", "data:image/png;base64,AAAA", at),
		domain.AssistantTurn("", at),
	}

	prompt := ComposePrompt(turns, "the one on floor 3")

	assert.Equal(t, SystemPrompt, prompt.System)
	assert.Equal(t, "the one on floor 3", prompt.Query)
	require.Len(t, prompt.History, 3)
	assert.Equal(t, domain.RoleHuman, prompt.History[0].Role)
	assert.Equal(t, "printer offline", prompt.History[0].Content)
	assert.Equal(t, domain.RoleAssistant, prompt.History[1].Role)
	assert.Equal(t, imagePlaceholder, prompt.History[2].Content)
}

func TestSystemPromptDescribesSchema(t *testing.T) {
	for _, field := range []string{`"solution"`, `"ticket"`, `"responseText"`, `"aiAnalysis"`, `"Open"`, `"Chatbot"`} {
		assert.Contains(t, SystemPrompt, field)
	}
}
