package script

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Render substitutes every {name} placeholder in the template with the
// corresponding entry from vars. A missing variable does not fail the
// render: it is replaced with a visible "[MISSING: name]" marker so the
// authoring defect is audible in the produced speech rather than crashing
// the call mid-conversation.
func Render(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		return "[MISSING: " + name + "]"
	})
}
