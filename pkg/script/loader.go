package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/dialgraph/callflow/pkg/domain"
)

// The loader resolves the legacy-vs-graph script union exactly once, at load
// time. The engine never re-sniffs the document shape per call.

type scriptDoc struct {
	ID                string            `yaml:"id"`
	Name              string            `yaml:"name"`
	Industry          string            `yaml:"industry"`
	Variables         map[string]string `yaml:"variables"`
	Flow              yaml.Node         `yaml:"conversation_flow"`
	FallbackResponses []string          `yaml:"fallback_responses"`

	// Legacy flat components.
	Greeting string `yaml:"greeting"`
	MoreInfo string `yaml:"more_info"`
	Closing  string `yaml:"closing"`
	Fallback string `yaml:"fallback"`
}

type stageDoc struct {
	Message  string    `yaml:"message"`
	EndCall  bool      `yaml:"end_call"`
	Rules    yaml.Node `yaml:"responses"`
	Fallback *ruleDoc  `yaml:"fallback"`
}

type ruleDoc struct {
	Patterns    []string          `yaml:"patterns" mapstructure:"patterns"`
	ExtractInfo map[string]string `yaml:"extract_info" mapstructure:"extract_info"`
	NextStage   string            `yaml:"next_stage" mapstructure:"next_stage"`
}

// ParseYAML parses a script document, preserving the author-declared order
// of response rules. Pattern order is part of the script's semantics: the
// first declared rule whose pattern hits wins, so a map type that shuffles
// keys would silently change behavior.
func ParseYAML(data []byte) (*domain.Script, error) {
	var doc scriptDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse script document: %w", err)
	}

	s := &domain.Script{
		ID:                doc.ID,
		Name:              doc.Name,
		Industry:          doc.Industry,
		Variables:         doc.Variables,
		FallbackResponses: doc.FallbackResponses,
	}

	if doc.Flow.Kind == 0 {
		// No graph: legacy flat script.
		s.Legacy = &domain.LegacyScript{
			Greeting: doc.Greeting,
			MoreInfo: doc.MoreInfo,
			Closing:  doc.Closing,
			Fallback: doc.Fallback,
		}
		return s, nil
	}

	if doc.Flow.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("conversation_flow must be a mapping of stages")
	}

	s.Stages = make(map[string]*domain.Stage, len(doc.Flow.Content)/2)
	for i := 0; i+1 < len(doc.Flow.Content); i += 2 {
		name := doc.Flow.Content[i].Value
		stage, err := parseStage(doc.Flow.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", name, err)
		}
		s.Stages[name] = stage
	}
	return s, nil
}

func parseStage(node *yaml.Node) (*domain.Stage, error) {
	var doc stageDoc
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}

	stage := &domain.Stage{
		Message: doc.Message,
		EndCall: doc.EndCall,
	}
	if doc.Fallback != nil {
		stage.Fallback = doc.Fallback.rule(domain.MatchedFallback)
	}

	if doc.Rules.Kind == 0 {
		return stage, nil
	}
	if doc.Rules.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("responses must be a mapping of rules")
	}

	for i := 0; i+1 < len(doc.Rules.Content); i += 2 {
		name := doc.Rules.Content[i].Value
		var rd ruleDoc
		if err := doc.Rules.Content[i+1].Decode(&rd); err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		// A responses entry named "fallback" is the stage fallback, not an
		// ordinary rule (it matches everything).
		if name == domain.MatchedFallback {
			stage.Fallback = rd.rule(name)
			continue
		}
		stage.Rules = append(stage.Rules, *rd.rule(name))
	}
	return stage, nil
}

func (rd *ruleDoc) rule(name string) *domain.ResponseRule {
	return &domain.ResponseRule{
		Name:        name,
		Patterns:    rd.Patterns,
		ExtractInfo: rd.ExtractInfo,
		NextStage:   rd.NextStage,
	}
}

// FromDocument converts an already decoded generic document (for example a
// campaign record's script payload) into a Script. Generic maps carry no key
// order, so rules arriving as a JSON object are ordered by name for
// determinism; authors who care about precedence should ship YAML or list
// their responses explicitly.
func FromDocument(doc map[string]any) (*domain.Script, error) {
	s := &domain.Script{}

	var meta struct {
		ID                string            `mapstructure:"id"`
		Name              string            `mapstructure:"name"`
		Industry          string            `mapstructure:"industry"`
		Variables         map[string]string `mapstructure:"variables"`
		FallbackResponses []string          `mapstructure:"fallback_responses"`
	}
	if err := mapstructure.Decode(doc, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode script document: %w", err)
	}
	s.ID = meta.ID
	s.Name = meta.Name
	s.Industry = meta.Industry
	s.Variables = meta.Variables
	s.FallbackResponses = meta.FallbackResponses

	rawFlow, hasFlow := doc["conversation_flow"]
	if !hasFlow {
		var legacy domain.LegacyScript
		cfg := &mapstructure.DecoderConfig{Result: &legacy, TagName: "json"}
		dec, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(doc); err != nil {
			return nil, fmt.Errorf("failed to decode legacy script: %w", err)
		}
		s.Legacy = &legacy
		return s, nil
	}

	flow, ok := rawFlow.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("conversation_flow must be an object")
	}

	s.Stages = make(map[string]*domain.Stage, len(flow))
	for name, rawStage := range flow {
		stage, err := stageFromDocument(rawStage)
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", name, err)
		}
		s.Stages[name] = stage
	}
	return s, nil
}

func stageFromDocument(raw any) (*domain.Stage, error) {
	var doc struct {
		Message   string         `mapstructure:"message"`
		EndCall   bool           `mapstructure:"end_call"`
		Responses map[string]any `mapstructure:"responses"`
		Fallback  *ruleDoc       `mapstructure:"fallback"`
	}
	if err := mapstructure.Decode(raw, &doc); err != nil {
		return nil, err
	}

	stage := &domain.Stage{Message: doc.Message, EndCall: doc.EndCall}
	if doc.Fallback != nil {
		stage.Fallback = doc.Fallback.rule(domain.MatchedFallback)
	}

	names := make([]string, 0, len(doc.Responses))
	for name := range doc.Responses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var rd ruleDoc
		if err := mapstructure.Decode(doc.Responses[name], &rd); err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		if name == domain.MatchedFallback {
			stage.Fallback = rd.rule(name)
			continue
		}
		stage.Rules = append(stage.Rules, *rd.rule(name))
	}
	return stage, nil
}

// LoadFile reads a script document from a YAML or JSON file and validates
// the resulting graph.
func LoadFile(path string) (*domain.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}

	var s *domain.Script
	if filepath.Ext(path) == ".json" {
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse script file: %w", err)
		}
		s, err = FromDocument(doc)
	} else {
		s, err = ParseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}
