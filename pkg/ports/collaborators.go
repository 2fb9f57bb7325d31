package ports

import "context"

// SpeechSynthesizer is the outbound port to the external text-to-speech
// service. The adapter requests audio for the engine's message and exposes
// the returned URL to the telephony provider; the engine never calls it.
type SpeechSynthesizer interface {
	// Synthesize converts text to a playable asset and returns a fetchable
	// URL for it.
	Synthesize(ctx context.Context, text string) (string, error)
}

// IntentClassifier is the optional outbound port to a third-party NLU
// service. The engine may consult it when the literal pattern scan misses,
// but must function correctly with no classifier configured.
type IntentClassifier interface {
	// Classify maps caller input to one of the candidate rule names, or
	// returns an empty string when no intent clears the service's
	// confidence bar.
	Classify(ctx context.Context, input string, candidates []string) (string, error)
}
