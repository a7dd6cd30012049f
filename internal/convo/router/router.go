// Package router maps user utterances to handler identifiers using an
// ordered keyword table. Routing is a pure function of the utterance and the
// table, which makes every entry exhaustively testable.
package router

import "strings"

// Handler identifies the specialized responder selected for an utterance.
type Handler string

// Rule pairs a handler with the keywords that trigger it. Keywords match as
// case-insensitive substrings of the utterance.
type Rule struct {
	Handler  Handler
	Keywords []string
}

// Table is an ordered list of rules plus a default handler. Rule order is a
// deliberate priority: keyword sets may overlap, and the first matching rule
// wins.
type Table struct {
	Rules   []Rule
	Default Handler
}

// Route selects exactly one handler for the utterance. It never fails; an
// utterance matching no rule selects the default handler.
func (t Table) Route(utterance string) Handler {
	folded := strings.ToLower(utterance)
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(folded, strings.ToLower(kw)) {
				return rule.Handler
			}
		}
	}
	return t.Default
}

// DefaultTable returns the built-in assistant routing table: email first,
// then tasks, with general conversation as the fallback.
func DefaultTable() Table {
	return Table{
		Rules: []Rule{
			{Handler: "email", Keywords: []string{"email", "gmail", "send", "inbox", "message", "reply", "compose"}},
			{Handler: "tasks", Keywords: []string{"todo", "task", "remind", "reminder", "schedule", "appointment"}},
		},
		Default: "general",
	}
}
