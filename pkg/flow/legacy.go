package flow

import (
	"github.com/dialgraph/callflow/pkg/domain"
	"github.com/dialgraph/callflow/pkg/observability"
)

// Stage names of the fixed linear flow used for scripts without a graph.
const (
	legacyStageMoreInfo = "more_info"
	legacyStageClosing  = "closing"
	legacyStageEnd      = "end"
)

// legacyTurn drives a flat script through the fixed three-stage linear flow:
// greeting -> more_info -> closing/end. Used only when the script has no
// stage graph at all.
func (e *Engine) legacyTurn(scr *domain.Script, sess *domain.CallSession) (*domain.Result, bool) {
	legacy := scr.Legacy
	if legacy == nil {
		legacy = &domain.LegacyScript{}
	}

	switch sess.Stage {
	case domain.StageGreeting:
		message := legacy.MoreInfo
		if message == "" {
			message = "Great! Let me tell you more about our services."
		}
		sess.PreviousStages = append(sess.PreviousStages, sess.Stage)
		sess.Stage = legacyStageMoreInfo
		sess.MatchedResponse = ""
		e.metrics.ObserveTurn(observability.OutcomeMatched)
		return &domain.Result{
			Message:      message,
			EndCall:      false,
			CurrentStage: legacyStageMoreInfo,
		}, true

	case legacyStageMoreInfo:
		message := legacy.Closing
		if message == "" {
			message = "Thank you for your time. We look forward to serving you!"
		}
		sess.PreviousStages = append(sess.PreviousStages, sess.Stage)
		sess.Stage = legacyStageClosing
		sess.Status = domain.StatusEnded
		e.metrics.ObserveTurn(observability.OutcomeTerminal)
		return &domain.Result{
			Message:      message,
			EndCall:      true,
			CurrentStage: legacyStageClosing,
		}, true

	default:
		message := legacy.Fallback
		if message == "" {
			message = "Thank you for your time."
		}
		e.metrics.ObserveTurn(observability.OutcomeTerminal)
		return &domain.Result{
			Message:      message,
			EndCall:      true,
			CurrentStage: legacyStageEnd,
		}, false
	}
}
