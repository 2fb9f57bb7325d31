package domain

// Script is a fully rendered campaign script: the dialog graph the engine
// interprets for one call. Instances handed to the engine are independent
// copies; mutating one call's state must never bleed into another call
// running the same campaign.
type Script struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string `json:"name" yaml:"name"`
	Industry string `json:"industry,omitempty" yaml:"industry,omitempty"`

	// Stages is the dialog graph, keyed by stage name. Empty for legacy
	// scripts.
	Stages map[string]*Stage `json:"conversation_flow,omitempty" yaml:"conversation_flow,omitempty"`

	// Variables holds the campaign's template variables. They are merged
	// with the session's extracted facts when a stage message is rendered.
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`

	// FallbackResponses are the generic re-prompt lines used when a stage
	// has no matching rule and no fallback rule.
	FallbackResponses []string `json:"fallback_responses,omitempty" yaml:"fallback_responses,omitempty"`

	// Legacy holds the flat components of a script without a stage graph.
	Legacy *LegacyScript `json:"legacy,omitempty" yaml:"legacy,omitempty"`
}

// LegacyScript is the flat, pre-graph script shape: a fixed linear
// greeting -> more_info -> closing conversation.
type LegacyScript struct {
	Greeting string `json:"greeting" yaml:"greeting"`
	MoreInfo string `json:"more_info" yaml:"more_info"`
	Closing  string `json:"closing" yaml:"closing"`
	Fallback string `json:"fallback" yaml:"fallback"`
}

// Stage is one node of the dialog graph.
type Stage struct {
	// Message is a template; {name} placeholders are substituted from the
	// campaign variables and the facts extracted so far.
	Message string `json:"message" yaml:"message"`

	// EndCall marks a terminal stage. Terminal stages have no rules.
	EndCall bool `json:"end_call,omitempty" yaml:"end_call,omitempty"`

	// Rules are evaluated in declared order; the first pattern hit wins.
	// Order is part of the script's semantics.
	Rules []ResponseRule `json:"responses,omitempty" yaml:"responses,omitempty"`

	// Fallback, when set, is taken if no rule matches. It counts as a match
	// for transition purposes.
	Fallback *ResponseRule `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// ResponseRule defines how one class of caller response moves the
// conversation forward.
type ResponseRule struct {
	Name string `json:"name" yaml:"name"`

	// Patterns are literal substrings, matched case-insensitively against
	// the caller's input.
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`

	// ExtractInfo maps a fact name to a regular expression with exactly one
	// capturing group, run case-insensitively against the raw input.
	ExtractInfo map[string]string `json:"extract_info,omitempty" yaml:"extract_info,omitempty"`

	NextStage string `json:"next_stage" yaml:"next_stage"`
}

// IsLegacy reports whether the script has no stage graph and must be driven
// through the fixed linear flow.
func (s *Script) IsLegacy() bool {
	return len(s.Stages) == 0
}

// Clone returns a deep copy of the script. The repository hands out clones so
// a cached catalog entry is never shared with a live call.
func (s *Script) Clone() *Script {
	if s == nil {
		return nil
	}
	out := &Script{
		ID:       s.ID,
		Name:     s.Name,
		Industry: s.Industry,
	}
	if s.Stages != nil {
		out.Stages = make(map[string]*Stage, len(s.Stages))
		for name, stage := range s.Stages {
			out.Stages[name] = stage.clone()
		}
	}
	if s.Variables != nil {
		out.Variables = make(map[string]string, len(s.Variables))
		for k, v := range s.Variables {
			out.Variables[k] = v
		}
	}
	if s.FallbackResponses != nil {
		out.FallbackResponses = append([]string(nil), s.FallbackResponses...)
	}
	if s.Legacy != nil {
		legacy := *s.Legacy
		out.Legacy = &legacy
	}
	return out
}

func (st *Stage) clone() *Stage {
	if st == nil {
		return nil
	}
	out := &Stage{
		Message: st.Message,
		EndCall: st.EndCall,
	}
	if st.Rules != nil {
		out.Rules = make([]ResponseRule, len(st.Rules))
		for i, r := range st.Rules {
			out.Rules[i] = r.clone()
		}
	}
	if st.Fallback != nil {
		fb := st.Fallback.clone()
		out.Fallback = &fb
	}
	return out
}

func (r ResponseRule) clone() ResponseRule {
	out := r
	if r.Patterns != nil {
		out.Patterns = append([]string(nil), r.Patterns...)
	}
	if r.ExtractInfo != nil {
		out.ExtractInfo = make(map[string]string, len(r.ExtractInfo))
		for k, v := range r.ExtractInfo {
			out.ExtractInfo[k] = v
		}
	}
	return out
}
