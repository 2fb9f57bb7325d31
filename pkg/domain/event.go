package domain

// EventType classifies an inbound telephony event.
type EventType string

const (
	EventAnswered  EventType = "answered"
	EventUserInput EventType = "user_input"
	EventHangup    EventType = "hangup"
)

// InboundEvent is the provider-agnostic shape of one telephony callback as
// the adapter hands it to the engine.
type InboundEvent struct {
	CallID     string    `json:"call_id"`
	CampaignID string    `json:"campaign_id,omitempty"`
	Type       EventType `json:"event_type"`

	// Input is the transcribed caller speech, when present.
	Input string `json:"input,omitempty"`

	// Digits is the DTMF keypress string, when present. Takes precedence
	// over Input.
	Digits string `json:"digits,omitempty"`
}

// EffectiveInput returns the caller input to match against: DTMF digits win
// over free-form speech when both arrived in the same event.
func (e InboundEvent) EffectiveInput() string {
	if e.Digits != "" {
		return e.Digits
	}
	return e.Input
}
