package domain

import "time"

// StageGreeting is the entry stage of every script graph and the stage a
// freshly synthesized session starts in.
const StageGreeting = "greeting"

// MatchedFallback is the MatchedResponse value recorded when a turn was
// resolved through a fallback rule or a generic re-prompt.
const MatchedFallback = "fallback"

// CallStatus describes the coarse lifecycle of a call session.
type CallStatus string

const (
	StatusActive CallStatus = "active"
	StatusEnded  CallStatus = "ended"
)

// CallSession is the per-call mutable record that makes a sequence of
// stateless webhook deliveries behave like one continuous conversation.
// It is owned by the session store; the engine borrows it for the duration
// of a single processed turn and persists it back before returning.
type CallSession struct {
	// CallID is the provider-assigned call identifier. Opaque.
	CallID string `json:"call_id"`

	// CampaignID is recorded on first contact and drives script resolution
	// for the rest of the call.
	CampaignID string `json:"campaign_id,omitempty"`

	// Stage is the name of the current stage in the dialog graph.
	Stage string `json:"conversation_stage"`

	// Data accumulates facts extracted from caller speech. Facts persist
	// for the whole call and remain substitutable in later stage messages.
	Data map[string]string `json:"conversation_data"`

	// PreviousStages is the append-only transition history.
	PreviousStages []string `json:"previous_stages"`

	// MatchedResponse names the rule that resolved the last processed turn.
	MatchedResponse string `json:"matched_response,omitempty"`

	// Reprompts counts consecutive turns resolved by a generic re-prompt
	// (no rule matched, no fallback rule declared). Reset on any
	// transition. The adapter uses it to end runaway calls.
	Reprompts int `json:"reprompts,omitempty"`

	Status   CallStatus `json:"status,omitempty"`
	Duration int        `json:"duration,omitempty"`

	StartedAt   time.Time `json:"started_at,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// Clone returns a deep copy of the session. In-memory stores hand out
// clones so callers can never mutate the stored record in place.
func (s *CallSession) Clone() *CallSession {
	if s == nil {
		return nil
	}
	out := *s
	if s.Data != nil {
		out.Data = make(map[string]string, len(s.Data))
		for k, v := range s.Data {
			out.Data[k] = v
		}
	}
	if s.PreviousStages != nil {
		out.PreviousStages = append([]string(nil), s.PreviousStages...)
	}
	return &out
}

// NewCallSession creates a fresh session positioned at the greeting stage.
func NewCallSession(callID, campaignID string) *CallSession {
	return &CallSession{
		CallID:         callID,
		CampaignID:     campaignID,
		Stage:          StageGreeting,
		Data:           make(map[string]string),
		PreviousStages: []string{},
		Status:         StatusActive,
		StartedAt:      time.Now().UTC(),
	}
}
