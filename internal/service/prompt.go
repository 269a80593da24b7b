package service

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
	"github.com/spec-kit/helpdesk-chat/internal/llm"
)

// imagePlaceholder stands in for a past screenshot with no accompanying text.
const imagePlaceholder = "[screenshot attached]"

// SystemPrompt instructs the model to act as a schema-aware helpdesk agent.
const SystemPrompt = `You are an IT helpdesk assistant that always answers in a fixed JSON schema. Make sure you understand the problem before acting.

How to decide:
1. Read the conversation so far together with the user's newest message.
2. Check whether you have enough information.
   - If the request is too vague to act on (for example "hardware issue", "my computer is slow", "it's not working"), ask one or two clarifying questions and stop. Put the questions in "responseText" and set both "solution" and "ticket" to null.
   - If there is a concrete error message or a clear description of the fault (for example "my CPU is not working", or text read from a screenshot), continue.
3. Choose exactly one path.
   - Simple, self-service problems such as a wrong password or a failed login: return "solution" as an ordered list of steps and set "ticket" to null.
   - Complex problems such as hardware failure or server errors, or a solution the user says did not work: return a "ticket" and set "solution" to null.
4. Fill in the fields for the chosen path.
5. Output the JSON object only. No prose, no markdown.

Schema:
{
  "solution": ["Step 1 ...", "Step 2 ..."] or null,
  "ticket": {
    "title": "string",
    "description": "string",
    "priority": "Low" | "Medium" | "High",
    "category": "Password Reset" | "Hardware" | "Software" | "Network" | "Other",
    "subcategory": "string",
    "status": "Open",
    "source": "Chatbot",
    "userid": "string",
    "username": "string",
    "tags": ["string"],
    "aiAnalysis": {
      "sentiment": "positive" | "neutral" | "negative",
      "keywords": ["string"]
    }
  } or null,
  "responseText": "A short conversational summary of what you did, or your clarifying questions."
}

Rules for tickets:
- "status" is always "Open" and "source" is always "Chatbot" for tickets you create.
- "userid" and "username" identify the requester; use placeholders if the conversation does not say who they are.
- "aiAnalysis" holds the sentiment of the user's messages and the keywords you extracted from them.`

// EffectiveQuery merges the screenshot analysis into the user's message.
// Without an image the query is passed through unchanged.
func EffectiveQuery(query string, analysis string, hasImage bool) string {
	if !hasImage {
		return query
	}
	return fmt.Sprintf("SCREENSHOT OCR RESULT:\n%s\n\nUSER MESSAGE: \"%s\"", analysis, query)
}

// ComposePrompt renders the session history and the effective query for the oracle.
// Past screenshots are not re-sent; only their text survives.
func ComposePrompt(turns []domain.Turn, effectiveQuery string) llm.Prompt {
	history := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		content := turn.Content
		if turn.Role == domain.RoleHuman && strings.TrimSpace(content) == "" && turn.ImageURL != "" {
			content = imagePlaceholder
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		history = append(history, llm.Message{Role: turn.Role, Content: content})
	}
	return llm.Prompt{
		System:  SystemPrompt,
		History: history,
		Query:   effectiveQuery,
	}
}
