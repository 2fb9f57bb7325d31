package domain

// Result is the engine's answer to one caller turn. The adapter renders it
// into a provider-specific response (synthesized audio, hangup command).
type Result struct {
	// Message is the text the caller should hear next. Never empty: every
	// turn, including every failure branch, produces speech.
	Message string `json:"message"`

	// EndCall instructs the adapter to hang up after playing Message.
	EndCall bool `json:"end_call"`

	// CurrentStage is the stage the session is in after this turn.
	CurrentStage string `json:"current_stage"`

	// MatchedResponse names the rule that won the pattern scan, or
	// "fallback" when a fallback path resolved the turn. Empty on terminal
	// re-delivery.
	MatchedResponse string `json:"matched_response,omitempty"`

	// Reprompts mirrors the session's consecutive re-prompt count so the
	// adapter can bound unrecognized-speech loops.
	Reprompts int `json:"reprompts,omitempty"`
}
