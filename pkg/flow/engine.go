package flow

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/dialgraph/callflow/internal/logging"
	"github.com/dialgraph/callflow/pkg/domain"
	"github.com/dialgraph/callflow/pkg/observability"
	"github.com/dialgraph/callflow/pkg/ports"
	"github.com/dialgraph/callflow/pkg/script"
	"github.com/dialgraph/callflow/pkg/session"
)

// ScriptResolver resolves a campaign ID to a rendered script. Implemented by
// script.Repository.
type ScriptResolver interface {
	Get(campaignID, defaultID string) (*domain.Script, error)
}

// defaultReprompt is spoken when a script declares no fallback_responses.
const defaultReprompt = "I'm sorry, I didn't understand that. Could you please repeat?"

// Engine is the conversation flow interpreter.
type Engine struct {
	scripts         ScriptResolver
	sessions        *session.Manager
	classifier      ports.IntentClassifier
	metrics         *observability.Metrics
	logger          *slog.Logger
	defaultCampaign string
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger configures a logger for turn processing events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClassifier wires an optional NLU intent classifier. It is consulted
// only when the literal pattern scan misses; the engine works identically
// without one.
func WithClassifier(c ports.IntentClassifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithDefaultCampaign sets the campaign used when script resolution misses.
func WithDefaultCampaign(id string) Option {
	return func(e *Engine) {
		e.defaultCampaign = id
	}
}

// New creates an Engine with explicit dependencies. No globals: tests build
// one engine per case without state bleed.
func New(scripts ScriptResolver, sessions *session.Manager, opts ...Option) *Engine {
	e := &Engine{
		scripts:         scripts,
		sessions:        sessions,
		logger:          logging.NewNop(),
		defaultCampaign: "campaign_001",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Greeting starts (or restarts) a conversation: it records the campaign on
// the session, resets it to the greeting stage, and returns the opening
// message.
func (e *Engine) Greeting(ctx context.Context, callID, campaignID string) (*domain.Result, error) {
	scr, err := e.scripts.Get(campaignID, e.defaultCampaign)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve script: %w", err)
	}

	var result *domain.Result
	err = e.sessions.Update(ctx, callID, func(sess *domain.CallSession) (bool, error) {
		sess.CampaignID = campaignID
		sess.Stage = domain.StageGreeting
		sess.Status = domain.StatusActive

		var message string
		if scr.IsLegacy() {
			message = scr.Legacy.Greeting
		} else if stage, ok := scr.Stages[domain.StageGreeting]; ok {
			message = script.Render(stage.Message, e.renderVars(scr, sess))
		}
		if message == "" {
			message = "Hello, thanks for taking our call."
		}

		result = &domain.Result{
			Message:      message,
			CurrentStage: domain.StageGreeting,
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.CallStarted()
	e.logger.Info("conversation started", "call_id", callID, "campaign_id", campaignID)
	return result, nil
}

// Process handles one caller turn for a campaign-identified call.
func (e *Engine) Process(ctx context.Context, callID, campaignID, input string) (*domain.Result, error) {
	scr, err := e.scripts.Get(campaignID, e.defaultCampaign)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve script: %w", err)
	}
	return e.process(ctx, callID, scr, input)
}

// ProcessScript handles one caller turn against an explicit script object.
func (e *Engine) ProcessScript(ctx context.Context, callID string, scr *domain.Script, input string) (*domain.Result, error) {
	return e.process(ctx, callID, scr, input)
}

func (e *Engine) process(ctx context.Context, callID string, scr *domain.Script, input string) (*domain.Result, error) {
	var result *domain.Result

	err := e.sessions.Update(ctx, callID, func(sess *domain.CallSession) (bool, error) {
		if sess.CampaignID == "" {
			sess.CampaignID = scr.ID
		}
		var persist bool
		if scr.IsLegacy() {
			result, persist = e.legacyTurn(scr, sess)
		} else {
			result, persist = e.graphTurn(ctx, scr, sess, input)
		}
		return persist, nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("turn processed",
		"call_id", callID,
		"stage", result.CurrentStage,
		"matched", result.MatchedResponse,
		"end_call", result.EndCall,
	)
	return result, nil
}

// graphTurn evaluates one turn of a stage-graph script. It mutates the
// session and reports whether the mutation must be persisted.
func (e *Engine) graphTurn(ctx context.Context, scr *domain.Script, sess *domain.CallSession, input string) (*domain.Result, bool) {
	stage, ok := scr.Stages[sess.Stage]
	if !ok {
		// Authoring defect: the session points at a stage the script no
		// longer declares. Degrade to a re-prompt instead of crashing.
		e.logger.Error("session stage missing from script", "stage", sess.Stage, "script", scr.Name)
		return e.reprompt(scr, sess), true
	}

	// Terminal stages are idempotent under re-delivery: repeat the closing
	// message without touching history.
	if stage.EndCall {
		e.metrics.ObserveTurn(observability.OutcomeTerminal)
		return &domain.Result{
			Message:      script.Render(stage.Message, e.renderVars(scr, sess)),
			EndCall:      true,
			CurrentStage: sess.Stage,
			Reprompts:    sess.Reprompts,
		}, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	rule := e.matchRule(ctx, stage, normalized, input)

	outcome := observability.OutcomeMatched
	if rule == nil && stage.Fallback != nil {
		rule = stage.Fallback
		outcome = observability.OutcomeFallbackRule
	}
	if rule == nil {
		return e.reprompt(scr, sess), true
	}

	next, ok := scr.Stages[rule.NextStage]
	if !ok {
		// Load-time validation makes this unreachable for catalog scripts,
		// but a hand-fed script may still dangle. Stay put.
		e.logger.Error("rule points at undeclared stage", "stage", sess.Stage, "rule", rule.Name, "next_stage", rule.NextStage)
		return e.reprompt(scr, sess), true
	}

	e.extract(rule, input, sess)

	previous := sess.Stage
	sess.Stage = rule.NextStage
	sess.PreviousStages = append(sess.PreviousStages, previous)
	sess.MatchedResponse = rule.Name
	sess.Reprompts = 0
	if next.EndCall {
		sess.Status = domain.StatusEnded
		outcome = observability.OutcomeTerminal
		e.metrics.CallEnded()
	}
	e.metrics.ObserveTurn(outcome)

	return &domain.Result{
		Message:         script.Render(next.Message, e.renderVars(scr, sess)),
		EndCall:         next.EndCall,
		CurrentStage:    rule.NextStage,
		MatchedResponse: rule.Name,
	}, true
}

// matchRule scans the stage's rules in declared order; the first pattern
// whose lower-cased text is a substring of the normalized input wins. Empty
// input never matches. When the scan misses and a classifier is configured,
// it may name a rule; classifier failures are ignored.
func (e *Engine) matchRule(ctx context.Context, stage *domain.Stage, normalized, raw string) *domain.ResponseRule {
	if normalized == "" {
		return nil
	}

	for i := range stage.Rules {
		for _, pattern := range stage.Rules[i].Patterns {
			if strings.Contains(normalized, strings.ToLower(pattern)) {
				return &stage.Rules[i]
			}
		}
	}

	if e.classifier == nil {
		return nil
	}
	candidates := make([]string, len(stage.Rules))
	for i, r := range stage.Rules {
		candidates[i] = r.Name
	}
	intent, err := e.classifier.Classify(ctx, raw, candidates)
	if err != nil {
		e.logger.Debug("intent classification failed", "err", err)
		return nil
	}
	for i := range stage.Rules {
		if stage.Rules[i].Name == intent {
			return &stage.Rules[i]
		}
	}
	return nil
}

// extract runs the rule's extraction expressions against the raw (original
// case) input and stores capture group 1. Extraction is best-effort
// enrichment: a miss is skipped silently and never blocks the transition.
func (e *Engine) extract(rule *domain.ResponseRule, input string, sess *domain.CallSession) {
	for field, expr := range rule.ExtractInfo {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			e.logger.Warn("extraction expression does not compile", "field", field, "err", err)
			continue
		}
		m := re.FindStringSubmatch(input)
		if len(m) > 1 {
			sess.Data[field] = m[1]
			e.metrics.ObserveExtraction()
			e.logger.Debug("extracted fact", "field", field, "value", m[1])
		}
	}
}

// reprompt keeps the session on its current stage and picks a generic
// fallback line. This is the guard against runaway transitions when the
// caller's speech is unrecognized and the stage has no fallback edge.
func (e *Engine) reprompt(scr *domain.Script, sess *domain.CallSession) *domain.Result {
	sess.Reprompts++
	sess.MatchedResponse = domain.MatchedFallback
	e.metrics.ObserveTurn(observability.OutcomeReprompt)

	return &domain.Result{
		Message:         pickLine(scr.FallbackResponses),
		EndCall:         false,
		CurrentStage:    sess.Stage,
		MatchedResponse: domain.MatchedFallback,
		Reprompts:       sess.Reprompts,
	}
}

// End marks the call ended and records its duration. The adapter calls this
// on hangup events before scheduling session reclamation.
func (e *Engine) End(ctx context.Context, callID string) error {
	wasActive := false
	err := e.sessions.Update(ctx, callID, func(sess *domain.CallSession) (bool, error) {
		wasActive = sess.Status != domain.StatusEnded
		sess.Status = domain.StatusEnded
		if !sess.StartedAt.IsZero() {
			sess.Duration = int(time.Since(sess.StartedAt).Seconds())
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if wasActive {
		e.metrics.CallEnded()
	}
	e.logger.Info("conversation ended", "call_id", callID)
	return nil
}

// renderVars merges the campaign's template variables with the facts
// extracted so far. Extracted facts win on collision.
func (e *Engine) renderVars(scr *domain.Script, sess *domain.CallSession) map[string]string {
	vars := make(map[string]string, len(scr.Variables)+len(sess.Data))
	for k, v := range scr.Variables {
		vars[k] = v
	}
	for k, v := range sess.Data {
		vars[k] = v
	}
	return vars
}

func pickLine(lines []string) string {
	if len(lines) == 0 {
		return defaultReprompt
	}
	return lines[rand.Intn(len(lines))]
}
