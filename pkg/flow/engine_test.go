package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialgraph/callflow/internal/adapters/memory"
	"github.com/dialgraph/callflow/pkg/domain"
	"github.com/dialgraph/callflow/pkg/flow"
	"github.com/dialgraph/callflow/pkg/script"
	"github.com/dialgraph/callflow/pkg/session"
)

func newTestStack(t *testing.T, opts ...flow.Option) (*flow.Engine, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(memory.New())
	engine := flow.New(script.NewRepository(), sessions, opts...)
	return engine, sessions
}

func TestEngine_GreetingRendersCampaignVariables(t *testing.T) {
	ctx := context.Background()
	engine, sessions := newTestStack(t)

	result, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)

	assert.Equal(t, domain.StageGreeting, result.CurrentStage)
	assert.False(t, result.EndCall)
	assert.Contains(t, result.Message, "Premier Real Estate")
	assert.NotContains(t, result.Message, "{agent_name}")

	sess, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "campaign_001", sess.CampaignID)
	assert.Equal(t, domain.StatusActive, sess.Status)
}

func TestEngine_FullConversationPath(t *testing.T) {
	ctx := context.Background()
	engine, sessions := newTestStack(t)

	_, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)

	result, err := engine.Process(ctx, "call-1", "campaign_001", "yes")
	require.NoError(t, err)
	assert.Equal(t, "timeframe", result.CurrentStage)
	assert.Equal(t, "positive", result.MatchedResponse)

	result, err = engine.Process(ctx, "call-1", "campaign_001", "soon, right away")
	require.NoError(t, err)
	assert.Equal(t, "property_details", result.CurrentStage)
	assert.Equal(t, "soon", result.MatchedResponse)

	result, err = engine.Process(ctx, "call-1", "campaign_001", "It has 3 bedrooms and 2.5 baths")
	require.NoError(t, err)
	assert.Equal(t, "estimate", result.CurrentStage)
	assert.Equal(t, "property_info", result.MatchedResponse)

	sess, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting", "timeframe", "property_details"}, sess.PreviousStages)
	assert.Equal(t, "3", sess.Data["bedrooms"])
	assert.Equal(t, "2.5", sess.Data["bathrooms"])
}

func TestEngine_FirstDeclaredRuleWins(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestStack(t)

	scr := &domain.Script{
		ID: "tiebreak",
		Stages: map[string]*domain.Stage{
			"greeting": {
				Message: "Hi",
				Rules: []domain.ResponseRule{
					{Name: "plain_yes", Patterns: []string{"yes"}, NextStage: "a"},
					{Name: "qualified_yes", Patterns: []string{"yes, but"}, NextStage: "b"},
				},
			},
			"a": {Message: "A", EndCall: true},
			"b": {Message: "B", EndCall: true},
		},
	}

	// Both rules' patterns are substrings of the input; declaration order
	// decides.
	result, err := engine.ProcessScript(ctx, "call-1", scr, "Yes, but not right now")
	require.NoError(t, err)
	assert.Equal(t, "plain_yes", result.MatchedResponse)
	assert.Equal(t, "a", result.CurrentStage)
}

func TestEngine_MatchingIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestStack(t)

	_, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)

	result, err := engine.Process(ctx, "call-1", "campaign_001", "  YES, absolutely  ")
	require.NoError(t, err)
	assert.Equal(t, "positive", result.MatchedResponse)
}

func TestEngine_EmptyInputNeverMatches(t *testing.T) {
	ctx := context.Background()
	engine, sessions := newTestStack(t)

	scr := &domain.Script{
		ID:                "no-fallback",
		FallbackResponses: []string{"Say again?"},
		Stages: map[string]*domain.Stage{
			"greeting": {
				Message: "Hi",
				Rules: []domain.ResponseRule{
					// An empty pattern would be a substring of anything.
					{Name: "trap", Patterns: []string{""}, NextStage: "done"},
				},
			},
			"done": {Message: "Bye", EndCall: true},
		},
	}

	result, err := engine.ProcessScript(ctx, "call-1", scr, "   ")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchedFallback, result.MatchedResponse)
	assert.Equal(t, "greeting", result.CurrentStage)
	assert.Equal(t, "Say again?", result.Message)

	sess, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "greeting", sess.Stage)
}

func TestEngine_RepromptNeverAdvances(t *testing.T) {
	ctx := context.Background()
	engine, sessions := newTestStack(t)

	scr := &domain.Script{
		ID:                "stuck",
		FallbackResponses: []string{"Pardon?"},
		Stages: map[string]*domain.Stage{
			"greeting": {
				Message: "Hi",
				Rules: []domain.ResponseRule{
					{Name: "yes", Patterns: []string{"yes"}, NextStage: "done"},
				},
			},
			"done": {Message: "Bye", EndCall: true},
		},
	}

	for i := 1; i <= 3; i++ {
		result, err := engine.ProcessScript(ctx, "call-1", scr, "gibberish nonsense")
		require.NoError(t, err)
		assert.Equal(t, "greeting", result.CurrentStage)
		assert.False(t, result.EndCall)
		assert.Equal(t, i, result.Reprompts)
	}

	sess, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, 3, sess.Reprompts)
	assert.Empty(t, sess.PreviousStages)

	// A recognized answer resets the counter.
	result, err := engine.ProcessScript(ctx, "call-1", scr, "yes")
	require.NoError(t, err)
	assert.Equal(t, "done", result.CurrentStage)

	sess, err = sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Reprompts)
}

func TestEngine_StageFallbackRuleAdvances(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestStack(t)

	_, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)

	// Nothing in the greeting rules matches, but the stage declares a
	// fallback edge to clarify.
	result, err := engine.Process(ctx, "call-1", "campaign_001", "what is this about")
	require.NoError(t, err)
	assert.Equal(t, "clarify", result.CurrentStage)
	assert.Equal(t, domain.MatchedFallback, result.MatchedResponse)
}

func TestEngine_TerminalStageIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine, sessions := newTestStack(t)

	_, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)

	// no -> objection_handling -> no -> close (terminal).
	_, err = engine.Process(ctx, "call-1", "campaign_001", "no, not interested")
	require.NoError(t, err)
	result, err := engine.Process(ctx, "call-1", "campaign_001", "no thanks")
	require.NoError(t, err)
	require.True(t, result.EndCall)
	require.Equal(t, "close", result.CurrentStage)
	closing := result.Message

	before, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)

	// Re-delivered events repeat the closing message without growing
	// history.
	for i := 0; i < 3; i++ {
		again, err := engine.Process(ctx, "call-1", "campaign_001", "hello? hello?")
		require.NoError(t, err)
		assert.True(t, again.EndCall)
		assert.Equal(t, closing, again.Message)
		assert.Equal(t, "close", again.CurrentStage)
	}

	after, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, before.PreviousStages, after.PreviousStages)
	assert.Equal(t, before.LastUpdated, after.LastUpdated)
}

func TestEngine_ExtractedFactsRenderInLaterStages(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestStack(t)

	_, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)
	_, err = engine.Process(ctx, "call-1", "campaign_001", "yes")
	require.NoError(t, err)
	_, err = engine.Process(ctx, "call-1", "campaign_001", "soon")
	require.NoError(t, err)
	_, err = engine.Process(ctx, "call-1", "campaign_001", "3 bedrooms, 2 baths")
	require.NoError(t, err)
	_, err = engine.Process(ctx, "call-1", "campaign_001", "yes, schedule it")
	require.NoError(t, err)

	// schedule -> confirm; the confirm message substitutes the extracted
	// appointment_time.
	result, err := engine.Process(ctx, "call-1", "campaign_001", "Friday morning works")
	require.NoError(t, err)
	assert.True(t, result.EndCall)
	assert.Contains(t, result.Message, "Friday")
	assert.NotContains(t, result.Message, "{appointment_time}")
}

func TestEngine_ExtractionMissIsNotFatal(t *testing.T) {
	ctx := context.Background()
	engine, sessions := newTestStack(t)

	scr := &domain.Script{
		ID: "extract",
		Stages: map[string]*domain.Stage{
			"greeting": {
				Message: "How many bedrooms?",
				Rules: []domain.ResponseRule{
					{
						Name:     "info",
						Patterns: []string{"bedroom"},
						ExtractInfo: map[string]string{
							"bedrooms": `\b(\d+)\s*bedrooms?\b`,
						},
						NextStage: "done",
					},
				},
			},
			"done": {Message: "Noted.", EndCall: true},
		},
	}

	// The pattern matches but the extraction regex finds no number. The
	// transition still happens; the fact is simply absent.
	result, err := engine.ProcessScript(ctx, "call-1", scr, "several bedrooms I think")
	require.NoError(t, err)
	assert.Equal(t, "done", result.CurrentStage)

	sess, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.NotContains(t, sess.Data, "bedrooms")
}

func TestEngine_DanglingNextStageDegradesToReprompt(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestStack(t)

	// Hand-fed script that skipped validation.
	scr := &domain.Script{
		ID:                "dangling",
		FallbackResponses: []string{"Hmm?"},
		Stages: map[string]*domain.Stage{
			"greeting": {
				Message: "Hi",
				Rules: []domain.ResponseRule{
					{Name: "yes", Patterns: []string{"yes"}, NextStage: "nowhere"},
				},
			},
		},
	}

	result, err := engine.ProcessScript(ctx, "call-1", scr, "yes")
	require.NoError(t, err)
	assert.Equal(t, "greeting", result.CurrentStage)
	assert.False(t, result.EndCall)
	assert.Equal(t, domain.MatchedFallback, result.MatchedResponse)
}

type stubClassifier struct {
	intent string
	err    error
	calls  int
}

func (c *stubClassifier) Classify(ctx context.Context, input string, candidates []string) (string, error) {
	c.calls++
	return c.intent, c.err
}

func TestEngine_ClassifierResolvesMisses(t *testing.T) {
	ctx := context.Background()
	classifier := &stubClassifier{intent: "positive"}
	engine, _ := newTestStack(t, flow.WithClassifier(classifier))

	_, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)

	// No literal pattern hits; the classifier names the winning rule.
	result, err := engine.Process(ctx, "call-1", "campaign_001", "I suppose that could work out")
	require.NoError(t, err)
	assert.Equal(t, "positive", result.MatchedResponse)
	assert.Equal(t, "timeframe", result.CurrentStage)
	assert.Equal(t, 1, classifier.calls)
}

func TestEngine_ClassifierNotConsultedOnLiteralHit(t *testing.T) {
	ctx := context.Background()
	classifier := &stubClassifier{intent: "negative"}
	engine, _ := newTestStack(t, flow.WithClassifier(classifier))

	_, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)

	result, err := engine.Process(ctx, "call-1", "campaign_001", "yes")
	require.NoError(t, err)
	assert.Equal(t, "positive", result.MatchedResponse)
	assert.Equal(t, 0, classifier.calls)
}

func TestEngine_ClassifierFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	classifier := &stubClassifier{err: errors.New("model unavailable")}
	engine, _ := newTestStack(t, flow.WithClassifier(classifier))

	_, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)

	// Classifier errors are swallowed; the stage fallback edge resolves the
	// turn as if no classifier were configured.
	result, err := engine.Process(ctx, "call-1", "campaign_001", "hmmmm")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchedFallback, result.MatchedResponse)
	assert.Equal(t, "clarify", result.CurrentStage)
}

func TestEngine_ScriptResolutionFailure(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewManager(memory.New())
	engine := flow.New(script.NewRepository(), sessions, flow.WithDefaultCampaign("missing-default"))

	_, err := engine.Greeting(ctx, "call-1", "no-such-campaign")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)

	_, err = engine.Process(ctx, "call-1", "no-such-campaign", "yes")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
}

func TestEngine_UnknownCampaignFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestStack(t)

	result, err := engine.Greeting(ctx, "call-1", "campaign_that_never_was")
	require.NoError(t, err)
	assert.Contains(t, result.Message, "Premier Real Estate")
}

func TestEngine_EndMarksSessionEnded(t *testing.T) {
	ctx := context.Background()
	engine, sessions := newTestStack(t)

	_, err := engine.Greeting(ctx, "call-1", "campaign_001")
	require.NoError(t, err)

	require.NoError(t, engine.End(ctx, "call-1"))

	sess, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, sess.Status)
}
