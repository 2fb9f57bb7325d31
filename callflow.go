// Package callflow drives scripted, multi-turn spoken conversations over
// telephone calls: given a transcribed utterance (or keypress) from a
// caller, it decides what the automated agent says next, extracts structured
// facts from the utterance, and tracks where the conversation is in a
// campaign-defined dialog graph.
//
// The package wires the three core pieces together: the script.Repository
// (campaign catalog and template rendering), the session.Manager (per-call
// state with per-call-ID mutual exclusion), and the flow.Engine (the graph
// interpreter). Telephony signaling, speech-to-text, and audio synthesis are
// external collaborators reached through ports.
//
//	stack := callflow.New(callflow.WithStore(file.New("")))
//	result, err := stack.Engine.Process(ctx, callID, "campaign_001", "yes")
package callflow

import (
	"log/slog"

	"github.com/dialgraph/callflow/internal/adapters/memory"
	"github.com/dialgraph/callflow/internal/logging"
	"github.com/dialgraph/callflow/pkg/flow"
	"github.com/dialgraph/callflow/pkg/observability"
	"github.com/dialgraph/callflow/pkg/ports"
	"github.com/dialgraph/callflow/pkg/script"
	"github.com/dialgraph/callflow/pkg/session"
)

// Stack is a fully wired conversation engine with its collaborators.
type Stack struct {
	Scripts  *script.Repository
	Sessions *session.Manager
	Engine   *flow.Engine
}

type options struct {
	store           ports.SessionStore
	locker          ports.DistributedLocker
	classifier      ports.IntentClassifier
	metrics         *observability.Metrics
	logger          *slog.Logger
	defaultCampaign string
}

// Option configures the stack.
type Option func(*options)

// WithStore selects the session persistence backend. Defaults to in-memory.
func WithStore(store ports.SessionStore) Option {
	return func(o *options) { o.store = store }
}

// WithLocker enables cross-replica locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) { o.locker = locker }
}

// WithClassifier wires an optional NLU intent classifier.
func WithClassifier(c ports.IntentClassifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDefaultCampaign sets the campaign used when resolution misses.
func WithDefaultCampaign(id string) Option {
	return func(o *options) { o.defaultCampaign = id }
}

// New builds a Stack with the built-in campaign catalog. Dependencies are
// explicit: no singletons, no global state bleed between instances.
func New(opts ...Option) *Stack {
	o := options{
		store:           memory.New(),
		logger:          logging.NewNop(),
		defaultCampaign: "campaign_001",
	}
	for _, opt := range opts {
		opt(&o)
	}

	scripts := script.NewRepository(script.WithLogger(o.logger))

	sessionOpts := []session.Option{session.WithLogger(o.logger)}
	if o.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(o.locker))
	}
	sessions := session.NewManager(o.store, sessionOpts...)

	engineOpts := []flow.Option{
		flow.WithLogger(o.logger),
		flow.WithDefaultCampaign(o.defaultCampaign),
	}
	if o.classifier != nil {
		engineOpts = append(engineOpts, flow.WithClassifier(o.classifier))
	}
	if o.metrics != nil {
		engineOpts = append(engineOpts, flow.WithMetrics(o.metrics))
	}
	engine := flow.New(scripts, sessions, engineOpts...)

	return &Stack{
		Scripts:  scripts,
		Sessions: sessions,
		Engine:   engine,
	}
}
