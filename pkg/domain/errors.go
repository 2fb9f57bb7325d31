package domain

import "errors"

// ErrSessionNotFound is returned when a call ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrScriptNotFound is returned when neither the requested campaign nor the
// configured default campaign resolves to a script. This is a configuration
// error: the adapter must end the call with an apology rather than crash.
var ErrScriptNotFound = errors.New("script not found")

// ErrUnknownIndustry is returned when a campaign references an industry
// template family that is not registered.
var ErrUnknownIndustry = errors.New("unknown industry template")
