package domain

// FallbackResponseText is returned whenever a turn cannot be completed.
const FallbackResponseText = "I'm sorry, I'm having trouble connecting."

// AssistantReply is the typed answer returned for a chat turn.
type AssistantReply struct {
	Solution     []string `json:"solution"`
	Ticket       *Ticket  `json:"ticket"`
	ResponseText string   `json:"responseText"`
}

// FallbackReply returns the fixed reply used on any turn failure.
func FallbackReply() AssistantReply {
	return AssistantReply{ResponseText: FallbackResponseText}
}

// Exclusive reports whether at most one of solution and ticket is populated.
func (r AssistantReply) Exclusive() bool {
	return r.Solution == nil || r.Ticket == nil
}

// Kind names the populated branch of the reply.
func (r AssistantReply) Kind() string {
	switch {
	case r.Solution != nil && r.Ticket != nil:
		return "mixed"
	case r.Solution != nil:
		return "solution"
	case r.Ticket != nil:
		return "ticket"
	default:
		return "text"
	}
}
