package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets raised by the assistant.
type TicketStatus string

const (
	TicketStatusOpen TicketStatus = "Open"
)

// TicketSource records where a ticket originated.
type TicketSource string

const (
	TicketSourceChatbot TicketSource = "Chatbot"
)

// TicketPriority enumerates urgency as requested from the model.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// TicketCategory enumerates helpdesk queues.
type TicketCategory string

const (
	TicketCategoryPasswordReset TicketCategory = "Password Reset"
	TicketCategoryHardware      TicketCategory = "Hardware"
	TicketCategorySoftware      TicketCategory = "Software"
	TicketCategoryNetwork       TicketCategory = "Network"
	TicketCategoryOther         TicketCategory = "Other"
)

// Sentiment is the model's reading of the user's tone.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// AIAnalysis is the model-produced analysis attached to a ticket.
type AIAnalysis struct {
	Sentiment Sentiment `json:"sentiment"`
	Keywords  []string  `json:"keywords"`
}

// Ticket is the support ticket drafted by the assistant.
type Ticket struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    TicketPriority `json:"priority"`
	Category    TicketCategory `json:"category"`
	Subcategory string         `json:"subcategory"`
	Status      TicketStatus   `json:"status"`
	Source      TicketSource   `json:"source"`
	UserID      string         `json:"userid,omitempty"`
	Username    string         `json:"username,omitempty"`
	Tags        []string       `json:"tags"`
	AIAnalysis  AIAnalysis     `json:"aiAnalysis"`
}

// ChatbotTicket is a raised ticket as persisted, bound to the session that produced it.
type ChatbotTicket struct {
	ID          string
	ExternalKey string
	SessionID   string
	Ticket      Ticket
	CreatedAt   time.Time
}
