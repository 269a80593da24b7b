package domain

import "time"

// Role identifies the author of a turn.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session. Turns are immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the ordered turn log for one session id.
type Session struct {
	ID    string
	Turns []Turn
}

// HumanTurn builds a user turn carrying the original query and image reference.
func HumanTurn(content, imageURL string, at time.Time) Turn {
	return Turn{Role: RoleHuman, Content: content, ImageURL: imageURL, CreatedAt: at}
}

// AssistantTurn builds a model turn.
func AssistantTurn(content string, at time.Time) Turn {
	return Turn{Role: RoleAssistant, Content: content, CreatedAt: at}
}
