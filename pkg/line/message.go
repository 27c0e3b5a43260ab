package line

// Message is any outbound Messaging API message object
type Message interface {
	MessageType() string
}

type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func NewTextMessage(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

func (TextMessage) MessageType() string { return "text" }

type PostbackAction struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Data        string `json:"data"`
	DisplayText string `json:"displayText,omitempty"`
}

// Limits enforced by the platform. A message breaking any of them fails the whole call with 400.
const (
	MaxActionLabelRunes  = 20
	MaxPostbackDataBytes = 300
	MaxDisplayTextRunes  = 300
	MaxAltTextRunes      = 400
	MaxMessagesPerCall   = 5
)

// NewPostbackAction truncates label and displayText to what the platform
// accepts. data is not touched; callers keep it within MaxPostbackDataBytes.
func NewPostbackAction(label, data, displayText string) PostbackAction {
	return PostbackAction{
		Type:        "postback",
		Label:       Truncate(label, MaxActionLabelRunes),
		Data:        data,
		DisplayText: Truncate(displayText, MaxDisplayTextRunes),
	}
}

type ConfirmTemplate struct {
	Type    string           `json:"type"`
	Text    string           `json:"text"`
	Actions []PostbackAction `json:"actions"`
}

type TemplateMessage struct {
	Type     string          `json:"type"`
	AltText  string          `json:"altText"`
	Template ConfirmTemplate `json:"template"`
}

// NewConfirmMessage builds a two-button confirm template
func NewConfirmMessage(altText, text string, yes, no PostbackAction) TemplateMessage {
	return TemplateMessage{
		Type:    "template",
		AltText: Truncate(altText, MaxAltTextRunes),
		Template: ConfirmTemplate{
			Type:    "confirm",
			Text:    text,
			Actions: []PostbackAction{yes, no},
		},
	}
}

func (TemplateMessage) MessageType() string { return "template" }

// FlexComponent covers the box, text, separator and button components
type FlexComponent struct {
	Type     string          `json:"type"`
	Layout   string          `json:"layout,omitempty"`
	Contents []FlexComponent `json:"contents,omitempty"`
	Text     string          `json:"text,omitempty"`
	Weight   string          `json:"weight,omitempty"`
	Size     string          `json:"size,omitempty"`
	Color    string          `json:"color,omitempty"`
	Wrap     bool            `json:"wrap,omitempty"`
	Margin   string          `json:"margin,omitempty"`
	Spacing  string          `json:"spacing,omitempty"`
	Style    string          `json:"style,omitempty"`
	Action   *PostbackAction `json:"action,omitempty"`
}

type FlexBubble struct {
	Type   string         `json:"type"`
	Body   *FlexComponent `json:"body,omitempty"`
	Footer *FlexComponent `json:"footer,omitempty"`
}

type FlexCarousel struct {
	Type     string       `json:"type"`
	Contents []FlexBubble `json:"contents"`
}

type FlexMessage struct {
	Type     string       `json:"type"`
	AltText  string       `json:"altText"`
	Contents FlexCarousel `json:"contents"`
}

func NewCarouselMessage(altText string, bubbles ...FlexBubble) FlexMessage {
	return FlexMessage{
		Type:     "flex",
		AltText:  Truncate(altText, MaxAltTextRunes),
		Contents: FlexCarousel{Type: "carousel", Contents: bubbles},
	}
}

func (FlexMessage) MessageType() string { return "flex" }

func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
