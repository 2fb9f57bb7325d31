package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/dialgraph/callflow/internal/adapters/http"
	"github.com/dialgraph/callflow/internal/adapters/memory"
	"github.com/dialgraph/callflow/pkg/domain"
	"github.com/dialgraph/callflow/pkg/flow"
	"github.com/dialgraph/callflow/pkg/script"
	"github.com/dialgraph/callflow/pkg/session"
)

func newTestServer(t *testing.T, opts ...httpAdapter.Option) (*httptest.Server, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(memory.New())
	engine := flow.New(script.NewRepository(), sessions)

	srv := httptest.NewServer(httpAdapter.NewHandler(engine, sessions, opts...))
	t.Cleanup(srv.Close)
	return srv, sessions
}

func postJSON(t *testing.T, url string, body any) (*http.Response, httpAdapter.TurnResponse) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var turn httpAdapter.TurnResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	return resp, turn
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_InitiateMintsCallID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, turn := postJSON(t, srv.URL+"/calls", map[string]string{"campaign_id": "campaign_001"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NotEmpty(t, turn.CallID)
	assert.Equal(t, "greeting", turn.CurrentStage)
	assert.Contains(t, turn.Message, "Premier Real Estate")
	assert.False(t, turn.EndCall)
}

func TestServer_InitiateKeepsProvidedCallID(t *testing.T) {
	srv, _ := newTestServer(t)

	_, turn := postJSON(t, srv.URL+"/calls", map[string]string{
		"call_id":     "call-42",
		"campaign_id": "campaign_001",
	})
	assert.Equal(t, "call-42", turn.CallID)
}

func TestServer_ConversationOverWebhooks(t *testing.T) {
	srv, _ := newTestServer(t)

	_, turn := postJSON(t, srv.URL+"/calls/events", domain.InboundEvent{
		CallID:     "call-1",
		CampaignID: "campaign_001",
		Type:       domain.EventAnswered,
	})
	assert.Equal(t, "greeting", turn.CurrentStage)

	_, turn = postJSON(t, srv.URL+"/calls/events", domain.InboundEvent{
		CallID:     "call-1",
		CampaignID: "campaign_001",
		Type:       domain.EventUserInput,
		Input:      "yes, I've been thinking about it",
	})
	assert.Equal(t, "timeframe", turn.CurrentStage)
	assert.Equal(t, "positive", turn.MatchedResponse)
	assert.False(t, turn.EndCall)
}

func TestServer_EventRequiresCallID(t *testing.T) {
	srv, _ := newTestServer(t)

	data, _ := json.Marshal(domain.InboundEvent{Type: domain.EventUserInput, Input: "yes"})
	resp, err := http.Post(srv.URL+"/calls/events", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_HangupEndsSessionAfterGrace(t *testing.T) {
	srv, sessions := newTestServer(t, httpAdapter.WithSessionGrace(10*time.Millisecond))
	ctx := context.Background()

	postJSON(t, srv.URL+"/calls/events", domain.InboundEvent{
		CallID: "call-1", CampaignID: "campaign_001", Type: domain.EventAnswered,
	})

	data, _ := json.Marshal(domain.InboundEvent{CallID: "call-1", Type: domain.EventHangup})
	resp, err := http.Post(srv.URL+"/calls/events", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ended", out["status"])

	// After the grace window the session is reclaimed; a fresh Get
	// synthesizes a new greeting-stage session.
	assert.Eventually(t, func() bool {
		sess, err := sessions.Get(ctx, "call-1")
		return err == nil && sess.CampaignID == ""
	}, 2*time.Second, 20*time.Millisecond)
}

// stubEngine gives failure-branch tests precise control over the result.
type stubEngine struct {
	result    *domain.Result
	err       error
	lastInput string
	ended     []string
}

func (s *stubEngine) Greeting(ctx context.Context, callID, campaignID string) (*domain.Result, error) {
	return s.result, s.err
}

func (s *stubEngine) Process(ctx context.Context, callID, campaignID, input string) (*domain.Result, error) {
	s.lastInput = input
	return s.result, s.err
}

func (s *stubEngine) End(ctx context.Context, callID string) error {
	s.ended = append(s.ended, callID)
	return nil
}

func newStubServer(t *testing.T, engine httpAdapter.Engine, opts ...httpAdapter.Option) *httptest.Server {
	t.Helper()
	sessions := session.NewManager(memory.New())
	srv := httptest.NewServer(httpAdapter.NewHandler(engine, sessions, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_DigitsWinOverSpeech(t *testing.T) {
	engine := &stubEngine{result: &domain.Result{Message: "ok", CurrentStage: "greeting"}}
	srv := newStubServer(t, engine)

	postJSON(t, srv.URL+"/calls/events", domain.InboundEvent{
		CallID: "call-1",
		Type:   domain.EventUserInput,
		Input:  "I said one",
		Digits: "1",
	})
	assert.Equal(t, "1", engine.lastInput)
}

func TestServer_ProcessingFailureApologizes(t *testing.T) {
	engine := &stubEngine{err: errors.New("store is down")}
	srv := newStubServer(t, engine)

	resp, turn := postJSON(t, srv.URL+"/calls/events", domain.InboundEvent{
		CallID: "call-1",
		Type:   domain.EventUserInput,
		Input:  "yes",
	})

	// The caller hears an apology; the provider sees a well-formed 200.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, turn.EndCall)
	assert.Contains(t, turn.Message, "technical difficulties")
}

func TestServer_InitiateFailureApologizes(t *testing.T) {
	engine := &stubEngine{err: errors.New("no campaigns")}
	srv := newStubServer(t, engine)

	resp, turn := postJSON(t, srv.URL+"/calls", map[string]string{"campaign_id": "x"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, turn.EndCall)
	assert.Contains(t, turn.Message, "technical difficulties")
}

func TestServer_RepromptBoundEndsCall(t *testing.T) {
	engine := &stubEngine{result: &domain.Result{
		Message:      "Could you repeat that?",
		CurrentStage: "greeting",
		Reprompts:    2,
	}}
	srv := newStubServer(t, engine, httpAdapter.WithMaxReprompts(2))

	_, turn := postJSON(t, srv.URL+"/calls/events", domain.InboundEvent{
		CallID: "call-1",
		Type:   domain.EventUserInput,
		Input:  "mumble",
	})

	assert.True(t, turn.EndCall)
	assert.Contains(t, turn.Message, "Thank you for your time")
	assert.Equal(t, []string{"call-1"}, engine.ended)
}

func TestServer_UnderRepromptBoundKeepsGoing(t *testing.T) {
	engine := &stubEngine{result: &domain.Result{
		Message:      "Could you repeat that?",
		CurrentStage: "greeting",
		Reprompts:    1,
	}}
	srv := newStubServer(t, engine, httpAdapter.WithMaxReprompts(3))

	_, turn := postJSON(t, srv.URL+"/calls/events", domain.InboundEvent{
		CallID: "call-1",
		Type:   domain.EventUserInput,
		Input:  "mumble",
	})

	assert.False(t, turn.EndCall)
	assert.Empty(t, engine.ended)
}

type stubSynthesizer struct {
	url string
	err error
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	return s.url, s.err
}

func TestServer_SynthesizesAudio(t *testing.T) {
	engine := &stubEngine{result: &domain.Result{Message: "Hello!", CurrentStage: "greeting"}}
	srv := newStubServer(t, engine, httpAdapter.WithSpeechSynthesizer(&stubSynthesizer{url: "https://cdn/audio/1.mp3"}))

	_, turn := postJSON(t, srv.URL+"/calls", map[string]string{"call_id": "call-1"})
	assert.Equal(t, "https://cdn/audio/1.mp3", turn.AudioURL)
}

func TestServer_SynthesisFailureStillAnswers(t *testing.T) {
	engine := &stubEngine{result: &domain.Result{Message: "Hello!", CurrentStage: "greeting"}}
	srv := newStubServer(t, engine, httpAdapter.WithSpeechSynthesizer(&stubSynthesizer{err: errors.New("tts offline")}))

	resp, turn := postJSON(t, srv.URL+"/calls", map[string]string{"call_id": "call-1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello!", turn.Message)
	assert.Empty(t, turn.AudioURL)
}
