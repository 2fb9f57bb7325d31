// Package http is the webhook/call adapter: it receives provider callbacks,
// hands them to the Conversation Flow Engine, and turns the engine's result
// into a provider-consumable JSON response. All failure branches still give
// the caller something to hear.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dialgraph/callflow/internal/logging"
	"github.com/dialgraph/callflow/pkg/domain"
	"github.com/dialgraph/callflow/pkg/ports"
	"github.com/dialgraph/callflow/pkg/session"
)

// Spoken in failure branches: the caller must never sit on a silent line.
const (
	apologyMessage = "I apologize, but we're experiencing technical difficulties. Please try again later."
	goodbyeMessage = "I'm having trouble understanding you today. Thank you for your time, and have a great day!"
)

// Engine is the slice of the flow engine the adapter needs.
type Engine interface {
	Greeting(ctx context.Context, callID, campaignID string) (*domain.Result, error)
	Process(ctx context.Context, callID, campaignID, input string) (*domain.Result, error)
	End(ctx context.Context, callID string) error
}

// Server adapts provider webhooks onto the flow engine.
type Server struct {
	engine       Engine
	sessions     *session.Manager
	tts          ports.SpeechSynthesizer
	gatherer     prometheus.Gatherer
	logger       *slog.Logger
	grace        time.Duration
	maxReprompts int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithSpeechSynthesizer wires the external TTS collaborator. When set,
// responses carry an audio_url alongside the message text.
func WithSpeechSynthesizer(tts ports.SpeechSynthesizer) Option {
	return func(s *Server) { s.tts = tts }
}

// WithMetricsGatherer exposes the given registry at /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithSessionGrace sets the delay before an ended call's session is
// reclaimed. The window absorbs duplicate terminal-event deliveries.
func WithSessionGrace(grace time.Duration) Option {
	return func(s *Server) { s.grace = grace }
}

// WithMaxReprompts bounds consecutive generic re-prompts before the adapter
// ends the call instead of looping.
func WithMaxReprompts(n int) Option {
	return func(s *Server) { s.maxReprompts = n }
}

// NewHandler builds the HTTP handler for the adapter.
func NewHandler(engine Engine, sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		engine:       engine,
		sessions:     sessions,
		logger:       logging.NewNop(),
		grace:        30 * time.Second,
		maxReprompts: 3,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Post("/calls", s.handleInitiate)
	r.Post("/calls/events", s.handleEvent)

	return r
}

// TurnResponse is the adapter's answer to one provider callback.
type TurnResponse struct {
	CallID          string `json:"call_id"`
	Message         string `json:"message"`
	EndCall         bool   `json:"end_call"`
	CurrentStage    string `json:"current_stage,omitempty"`
	MatchedResponse string `json:"matched_response,omitempty"`
	AudioURL        string `json:"audio_url,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInitiate starts a conversation for an outbound call that was just
// answered, minting a call ID when the provider did not supply one yet.
func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CallID     string `json:"call_id"`
		CampaignID string `json:"campaign_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CallID == "" {
		req.CallID = uuid.NewString()
	}

	result, err := s.engine.Greeting(r.Context(), req.CallID, req.CampaignID)
	if err != nil {
		s.logger.Error("failed to start conversation", "call_id", req.CallID, "err", err)
		s.respond(w, r, req.CallID, &domain.Result{Message: apologyMessage, EndCall: true})
		return
	}
	s.respond(w, r, req.CallID, result)
}

// handleEvent processes one inbound telephony event.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.InboundEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if event.CallID == "" {
		http.Error(w, "call_id is required", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case domain.EventAnswered:
		result, err := s.engine.Greeting(r.Context(), event.CallID, event.CampaignID)
		if err != nil {
			s.failCall(w, r, event.CallID, err)
			return
		}
		s.respond(w, r, event.CallID, result)

	case domain.EventHangup:
		if err := s.engine.End(r.Context(), event.CallID); err != nil {
			s.logger.Error("failed to end conversation", "call_id", event.CallID, "err", err)
		}
		s.sessions.DeleteAfter(event.CallID, s.grace)
		writeJSON(w, http.StatusOK, map[string]string{"call_id": event.CallID, "status": "ended"})

	default:
		result, err := s.engine.Process(r.Context(), event.CallID, event.CampaignID, event.EffectiveInput())
		if err != nil {
			s.failCall(w, r, event.CallID, err)
			return
		}
		if !result.EndCall && result.Reprompts >= s.maxReprompts {
			// The caller is stuck. Hanging up beats looping forever.
			s.logger.Warn("reprompt bound exceeded, ending call", "call_id", event.CallID, "stage", result.CurrentStage)
			if err := s.engine.End(r.Context(), event.CallID); err != nil {
				s.logger.Error("failed to end conversation", "call_id", event.CallID, "err", err)
			}
			result = &domain.Result{Message: goodbyeMessage, EndCall: true, CurrentStage: result.CurrentStage}
		}
		s.respond(w, r, event.CallID, result)
	}
}

// failCall answers a processing failure: apologize, hang up, reclaim.
func (s *Server) failCall(w http.ResponseWriter, r *http.Request, callID string, err error) {
	s.logger.Error("turn processing failed", "call_id", callID, "err", err)
	s.sessions.DeleteAfter(callID, s.grace)
	s.respond(w, r, callID, &domain.Result{Message: apologyMessage, EndCall: true})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, callID string, result *domain.Result) {
	resp := TurnResponse{
		CallID:          callID,
		Message:         result.Message,
		EndCall:         result.EndCall,
		CurrentStage:    result.CurrentStage,
		MatchedResponse: result.MatchedResponse,
	}

	if s.tts != nil && result.Message != "" {
		url, err := s.tts.Synthesize(r.Context(), result.Message)
		if err != nil {
			// The provider can still fall back to its own voice for the text.
			s.logger.Warn("speech synthesis failed", "call_id", callID, "err", err)
		} else {
			resp.AudioURL = url
		}
	}

	if result.EndCall {
		s.sessions.DeleteAfter(callID, s.grace)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
