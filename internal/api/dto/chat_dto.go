package dto

// ChatRequest is the POST /chat payload.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	ImageData string `json:"image_data"`
}

// HistoryResponse wraps the turns of one session.
type HistoryResponse struct {
	History []HistoryItem `json:"history"`
}

// HistoryItem is one rendered turn. Content is a list of parts for human
// turns and a reply object for ai turns.
type HistoryItem struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// TextPart is the text of a human turn.
type TextPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ImagePart references the screenshot sent with a human turn.
type ImagePart struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// UnreadableReply replaces assistant turns that can no longer be parsed.
type UnreadableReply struct {
	ResponseText string `json:"responseText"`
}
