package models

// OutboundMessageRequest represents requests to send a message manually via the API.
type OutboundMessageRequest struct {
	To     string `json:"to" binding:"required"`
	Text   string `json:"text" binding:"required"`
	ChatID string `json:"chat_id"`
}

// BroadcastRequest asks for text to be sent to every active subscriber.
type BroadcastRequest struct {
	Text string `json:"text" binding:"required"`
}

// AutomationReply describes the response that will be sent back to the
// operator based on the parsed command.
type AutomationReply struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
