package selection

import (
	"net/url"
	"strings"

	"subsidy-intake-be/pkg/line"
)

// Callback actions carried in postback data
const (
	ActionSelect = "select"
	ActionCancel = "cancel"
)

const (
	keyAction        = "action"
	keyCandidateID   = "candidateId"
	keyCandidateName = "candidateName"
	keyLegacyID      = "subsidyId"
)

// Payload is the decoded form of postback data such as
// "action=select&candidateId=s1&candidateName=Solar".
type Payload struct {
	Action        string
	CandidateID   string
	CandidateName string
}

// ParsePayload never fails. Missing keys decode as empty strings.
func ParsePayload(data string) Payload {
	// malformed pairs are dropped, the rest still decode
	values, _ := url.ParseQuery(strings.TrimSpace(data))

	p := Payload{
		Action:        values.Get(keyAction),
		CandidateID:   values.Get(keyCandidateID),
		CandidateName: values.Get(keyCandidateName),
	}
	if p.CandidateID == "" {
		p.CandidateID = values.Get(keyLegacyID)
	}
	return p
}

// EncodeSelect keeps the result within line.MaxPostbackDataBytes. The name is
// informational, so it is shortened rune by rune and dropped if even one
// rune does not fit.
func EncodeSelect(candidateID, candidateName string) string {
	values := url.Values{}
	values.Set(keyAction, ActionSelect)
	values.Set(keyCandidateID, candidateID)
	bare := values.Encode()

	runes := []rune(candidateName)
	for n := len(runes); n > 0; n-- {
		values.Set(keyCandidateName, string(runes[:n]))
		if encoded := values.Encode(); len(encoded) <= line.MaxPostbackDataBytes {
			return encoded
		}
	}
	return bare
}

func EncodeCancel() string {
	return keyAction + "=" + ActionCancel
}
