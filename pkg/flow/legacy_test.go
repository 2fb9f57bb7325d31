package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialgraph/callflow/pkg/domain"
)

func legacyScript() *domain.Script {
	return &domain.Script{
		ID: "flat",
		Legacy: &domain.LegacyScript{
			Greeting: "Hello from Acme!",
			MoreInfo: "We install solar panels at no upfront cost.",
			Closing:  "An advisor will call you tomorrow. Goodbye!",
			Fallback: "Sorry, we'll try another time. Goodbye!",
		},
	}
}

func TestLegacyFlow_LinearProgression(t *testing.T) {
	ctx := context.Background()
	engine, sessions := newTestStack(t)
	scr := legacyScript()

	// Any caller input advances the fixed linear flow.
	result, err := engine.ProcessScript(ctx, "call-1", scr, "sure, go on")
	require.NoError(t, err)
	assert.Equal(t, "more_info", result.CurrentStage)
	assert.Equal(t, scr.Legacy.MoreInfo, result.Message)
	assert.False(t, result.EndCall)

	result, err = engine.ProcessScript(ctx, "call-1", scr, "sounds good")
	require.NoError(t, err)
	assert.Equal(t, "closing", result.CurrentStage)
	assert.Equal(t, scr.Legacy.Closing, result.Message)
	assert.True(t, result.EndCall)

	sess, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting", "more_info"}, sess.PreviousStages)
	assert.Equal(t, domain.StatusEnded, sess.Status)
}

func TestLegacyFlow_InputContentIsIgnored(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestStack(t)

	result, err := engine.ProcessScript(ctx, "call-1", legacyScript(), "")
	require.NoError(t, err)
	assert.Equal(t, "more_info", result.CurrentStage)
}

func TestLegacyFlow_UnknownStageEndsWithFallback(t *testing.T) {
	ctx := context.Background()
	engine, sessions := newTestStack(t)
	scr := legacyScript()

	sess := domain.NewCallSession("call-1", "flat")
	sess.Stage = "somewhere_else"
	require.NoError(t, sessions.Put(ctx, "call-1", sess))

	result, err := engine.ProcessScript(ctx, "call-1", scr, "hello")
	require.NoError(t, err)
	assert.True(t, result.EndCall)
	assert.Equal(t, scr.Legacy.Fallback, result.Message)
	assert.Equal(t, "end", result.CurrentStage)

	// The degenerate branch does not persist: the stored session keeps its
	// prior stage.
	stored, err := sessions.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, "somewhere_else", stored.Stage)
}

func TestLegacyFlow_DefaultsWhenComponentsMissing(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestStack(t)

	scr := &domain.Script{ID: "bare", Legacy: &domain.LegacyScript{}}

	result, err := engine.ProcessScript(ctx, "call-1", scr, "ok")
	require.NoError(t, err)
	assert.Equal(t, "Great! Let me tell you more about our services.", result.Message)

	result, err = engine.ProcessScript(ctx, "call-1", scr, "ok")
	require.NoError(t, err)
	assert.True(t, result.EndCall)
	assert.Equal(t, "Thank you for your time. We look forward to serving you!", result.Message)
}
