package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dialgraph/callflow/pkg/domain"
)

// ValidationError aggregates every defect found in a script graph so authors
// can fix them in one pass.
type ValidationError struct {
	Script string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("script %q has %d issue(s):\n- %s",
		e.Script, len(e.Issues), strings.Join(e.Issues, "\n- "))
}

// Validate checks a script graph at load time. Every next_stage must name a
// declared stage, terminal stages must not carry response rules, and every
// extraction expression must compile with at least one capturing group.
// Violations are registration-time errors, never runtime guesses.
func Validate(s *domain.Script) error {
	if s.IsLegacy() {
		// The linear flow has no graph to check.
		return nil
	}

	var issues []string

	if _, ok := s.Stages[domain.StageGreeting]; !ok {
		issues = append(issues, fmt.Sprintf("missing entry stage %q", domain.StageGreeting))
	}

	for name, stage := range s.Stages {
		if stage == nil {
			issues = append(issues, fmt.Sprintf("stage %q is empty", name))
			continue
		}
		if stage.EndCall {
			if len(stage.Rules) > 0 || stage.Fallback != nil {
				issues = append(issues, fmt.Sprintf("terminal stage %q declares response rules", name))
			}
			continue
		}
		for _, rule := range stage.Rules {
			issues = append(issues, checkRule(s, name, rule)...)
		}
		if stage.Fallback != nil {
			issues = append(issues, checkRule(s, name, *stage.Fallback)...)
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Script: s.Name, Issues: issues}
	}
	return nil
}

func checkRule(s *domain.Script, stage string, rule domain.ResponseRule) []string {
	var issues []string

	if rule.NextStage == "" {
		issues = append(issues, fmt.Sprintf("stage %q rule %q has no next_stage", stage, rule.Name))
	} else if _, ok := s.Stages[rule.NextStage]; !ok {
		issues = append(issues, fmt.Sprintf("stage %q rule %q points at undeclared stage %q", stage, rule.Name, rule.NextStage))
	}

	for field, expr := range rule.ExtractInfo {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			issues = append(issues, fmt.Sprintf("stage %q rule %q: extraction %q does not compile: %v", stage, rule.Name, field, err))
			continue
		}
		if re.NumSubexp() < 1 {
			issues = append(issues, fmt.Sprintf("stage %q rule %q: extraction %q has no capturing group", stage, rule.Name, field))
		}
	}
	return issues
}
