// Package message renders pipeline outcomes as LINE messages.
package message

import (
	"fmt"
	"math"

	"subsidy-intake-be/internal/constant"
	"subsidy-intake-be/pkg/line"
	"subsidy-intake-be/pkg/selection"
	"subsidy-intake-be/pkg/store"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Text(text string) []line.Message {
	return []line.Message{line.NewTextMessage(text)}
}

func (f *Factory) GenericError() []line.Message {
	return f.Text(constant.GenericErrorMessage)
}

// Candidates picks a confirm template for one candidate and a carousel otherwise
func (f *Factory) Candidates(candidates []store.RankedResult) []line.Message {
	switch len(candidates) {
	case 0:
		return f.Text(constant.NotFoundMessage)
	case 1:
		return []line.Message{f.confirm(candidates[0])}
	default:
		return []line.Message{f.carousel(candidates)}
	}
}

func (f *Factory) confirm(c store.RankedResult) line.Message {
	return line.NewConfirmMessage(
		constant.PresentSingleAltText,
		fmt.Sprintf(constant.PresentSingleFormat, c.CandidateName),
		line.NewPostbackAction(constant.PresentSingleYesLabel, selection.EncodeSelect(c.CandidateID, c.CandidateName), constant.PresentSingleYesLabel),
		line.NewPostbackAction(constant.PresentSingleNoLabel, selection.EncodeCancel(), constant.PresentSingleNoLabel),
	)
}

func (f *Factory) carousel(candidates []store.RankedResult) line.Message {
	bubbles := make([]line.FlexBubble, 0, len(candidates)+1)
	for i, c := range candidates {
		bubbles = append(bubbles, candidateBubble(i+1, c))
	}
	bubbles = append(bubbles, cancelBubble())
	return line.NewCarouselMessage(constant.PresentMultipleAltText, bubbles...)
}

func candidateBubble(rank int, c store.RankedResult) line.FlexBubble {
	action := line.NewPostbackAction(constant.PresentSelectLabel, selection.EncodeSelect(c.CandidateID, c.CandidateName), c.CandidateName)
	return line.FlexBubble{
		Type: "bubble",
		Body: &line.FlexComponent{
			Type:    "box",
			Layout:  "vertical",
			Spacing: "sm",
			Contents: []line.FlexComponent{
				{Type: "text", Text: constant.PresentMultipleTitle, Size: "xs", Color: "#888888"},
				{Type: "text", Text: fmt.Sprintf("%d. %s", rank, c.CandidateName), Weight: "bold", Size: "md", Wrap: true},
				{Type: "text", Text: fmt.Sprintf("Match %d%%", MatchPercent(c.Similarity)), Size: "sm", Color: "#1DB446"},
			},
		},
		Footer: &line.FlexComponent{
			Type:   "box",
			Layout: "vertical",
			Contents: []line.FlexComponent{
				{Type: "button", Style: "primary", Action: &action},
			},
		},
	}
}

func cancelBubble() line.FlexBubble {
	action := line.NewPostbackAction(constant.PresentCancelLabel, selection.EncodeCancel(), constant.PresentCancelLabel)
	return line.FlexBubble{
		Type: "bubble",
		Body: &line.FlexComponent{
			Type:   "box",
			Layout: "vertical",
			Contents: []line.FlexComponent{
				{Type: "text", Text: constant.PresentCancelTitle, Weight: "bold", Size: "md", Wrap: true},
				{Type: "text", Text: constant.PresentMultipleHint, Size: "sm", Wrap: true, Margin: "md"},
			},
		},
		Footer: &line.FlexComponent{
			Type:   "box",
			Layout: "vertical",
			Contents: []line.FlexComponent{
				{Type: "button", Style: "secondary", Action: &action},
			},
		},
	}
}

// MatchPercent maps cosine similarity in [-1,1] to a 0-100 display value
func MatchPercent(similarity float64) int {
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 100
	}
	return int(math.Round(similarity * 100))
}
