package buildconfig

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"
)

// Severity is a lint rule level.
type Severity int

const (
	SeverityOff Severity = iota
	SeverityWarn
	SeverityError
)

// LintRule is a rule level with optional rule options.
type LintRule struct {
	Severity Severity
	Options  []any
}

// MarshalJSON renders the rule as a bare level or as [level, options...].
func (r LintRule) MarshalJSON() ([]byte, error) {
	if len(r.Options) == 0 {
		return json.Marshal(int(r.Severity))
	}
	return json.Marshal(append([]any{int(r.Severity)}, r.Options...))
}

// LintRules is the rule set consumed by the linter transform step.
type LintRules struct {
	Parser  string              `json:"parser"`
	Env     map[string]bool     `json:"env"`
	Extends []string            `json:"extends"`
	Globals map[string]bool     `json:"globals"`
	Rules   map[string]LintRule `json:"rules"`
}

// DefaultLintRules returns the project rule set. Imports through any alias
// in resolve are exempt from unresolved-import checks since only the
// bundler knows how to resolve them.
func DefaultLintRules(resolve ResolveOptions) LintRules {
	ignore := make([]string, 0, len(resolve.Alias))
	for alias := range resolve.Alias {
		ignore = append(ignore, "^"+regexp.QuoteMeta(strings.TrimSuffix(alias, "/"))+"/")
	}
	slices.Sort(ignore)

	return LintRules{
		Parser: "babel-eslint",
		Env: map[string]bool{
			"browser": true,
			"es6":     true,
		},
		Extends: []string{"airbnb", "prettier"},
		Globals: map[string]bool{
			"chrome": true,
		},
		Rules: map[string]LintRule{
			"import/no-unresolved": {
				Severity: SeverityError,
				Options:  []any{map[string]any{"ignore": ignore}},
			},
			"jsx-a11y/click-events-have-key-events":           {Severity: SeverityOff},
			"jsx-a11y/no-noninteractive-element-interactions": {Severity: SeverityOff},
			"jsx-a11y/no-static-element-interactions":         {Severity: SeverityOff},
			"linebreak-style":                                 {Severity: SeverityOff},
			"no-console":                                      {Severity: SeverityOff},
		},
	}
}

// JSON renders the rule set as an .eslintrc.json document.
func (l LintRules) JSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}
