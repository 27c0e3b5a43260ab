package dto

// Event and message types the pipeline reacts to. Everything else is ignored.
const (
	EventTypeMessage  = "message"
	EventTypePostback = "postback"
	MessageTypeText   = "text"
)

type WebhookRequest struct {
	Destination string         `json:"destination"`
	Events      []WebhookEvent `json:"events" validate:"required"`
}

type WebhookEvent struct {
	Type           string           `json:"type"`
	Timestamp      int64            `json:"timestamp"`
	ReplyToken     string           `json:"replyToken,omitempty"`
	WebhookEventId string           `json:"webhookEventId,omitempty"`
	Source         WebhookSource    `json:"source"`
	Message        *WebhookMessage  `json:"message,omitempty"`
	Postback       *WebhookPostback `json:"postback,omitempty"`
}

type WebhookSource struct {
	Type    string `json:"type"`
	UserId  string `json:"userId"`
	GroupId string `json:"groupId,omitempty"`
	RoomId  string `json:"roomId,omitempty"`
}

type WebhookMessage struct {
	Id   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type WebhookPostback struct {
	Data string `json:"data"`
}

// TextContent returns the text of a text message event
func (e WebhookEvent) TextContent() (string, bool) {
	if e.Type != EventTypeMessage || e.Message == nil || e.Message.Type != MessageTypeText {
		return "", false
	}
	return e.Message.Text, true
}

// PostbackData returns the callback payload of a postback event
func (e WebhookEvent) PostbackData() (string, bool) {
	if e.Type != EventTypePostback || e.Postback == nil {
		return "", false
	}
	return e.Postback.Data, true
}

type WebhookResponse struct {
	Status string `json:"status"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	LineBot string `json:"line_bot"`
	Message string `json:"message"`
	Corpus  int    `json:"corpus_entries"`
}
