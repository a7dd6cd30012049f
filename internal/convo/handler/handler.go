// Package handler loads handler definitions from TOML files. A definition
// declares the keywords that route to a handler and the reply template the
// built-in generator uses for it, so new handlers are added by data, not code.
package handler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mizutani/convo/internal/convo/router"
)

// Definition describes one handler: its routing keywords and reply behavior.
type Definition struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Keywords    []string `toml:"keywords"`
	Instruction string   `toml:"instruction"` // System prompt for LLM-backed generators
	Reply       string   `toml:"reply"`       // Template with {{input}} placeholder
	Priority    int      `toml:"priority"`    // Lower values match first
	Default     bool     `toml:"default"`     // Fallback handler when no keywords match
}

// FormatReply substitutes the utterance into the definition's reply template.
func (d Definition) FormatReply(input string) string {
	return strings.ReplaceAll(d.Reply, "{{input}}", input)
}

// LoadDir reads all *.toml definitions from dir, ordered by priority and then
// filename so the resulting routing table is deterministic.
func LoadDir(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading handlers directory: %w", err)
	}

	type loaded struct {
		def  Definition
		file string
	}
	var defs []loaded
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		var def Definition
		if _, err := toml.DecodeFile(path, &def); err != nil {
			return nil, fmt.Errorf("decoding handler file %s: %w", entry.Name(), err)
		}
		if def.Name == "" {
			def.Name = strings.TrimSuffix(entry.Name(), ".toml")
		}
		defs = append(defs, loaded{def: def, file: entry.Name()})
	}

	sort.Slice(defs, func(i, j int) bool {
		if defs[i].def.Priority != defs[j].def.Priority {
			return defs[i].def.Priority < defs[j].def.Priority
		}
		return defs[i].file < defs[j].file
	})

	result := make([]Definition, 0, len(defs))
	for _, l := range defs {
		result = append(result, l.def)
	}
	return result, nil
}

// Table builds a routing table from definitions. The first definition marked
// default in definition order becomes the table default (the fallback
// argument applies when none is marked); every definition with keywords,
// default or not, contributes a keyword rule in definition order.
func Table(defs []Definition, fallback router.Handler) router.Table {
	t := router.Table{Default: fallback}
	defaultSet := false
	for _, def := range defs {
		if def.Default && !defaultSet {
			t.Default = router.Handler(def.Name)
			defaultSet = true
		}
		if len(def.Keywords) == 0 {
			continue
		}
		t.Rules = append(t.Rules, router.Rule{
			Handler:  router.Handler(def.Name),
			Keywords: def.Keywords,
		})
	}
	return t
}

// Defaults returns the built-in handler set: an email specialist, a task
// manager, and a general assistant fallback.
func Defaults() []Definition {
	return []Definition{
		{
			Name:        "email",
			Description: "Email specialist for reading, sending, and searching mail.",
			Keywords:    []string{"email", "gmail", "send", "inbox", "message", "reply", "compose"},
			Instruction: "You are an email management assistant. Summarize mail concisely and always confirm before sending anything.",
			Reply:       "Routing to the email assistant. You asked: \"{{input}}\". I can read, send, and search your mail.",
			Priority:    10,
		},
		{
			Name:        "tasks",
			Description: "Task manager for todos, reminders, and scheduling.",
			Keywords:    []string{"todo", "task", "remind", "reminder", "schedule", "appointment"},
			Instruction: "You are a task management assistant. Help the user create todos, set reminders, and manage their schedule.",
			Reply:       "Routing to the task manager. You asked: \"{{input}}\". I can create todos, set reminders, and track your schedule.",
			Priority:    20,
		},
		{
			Name:        "general",
			Description: "General assistant for conversation and questions.",
			Instruction: "You are a helpful general-purpose assistant. Keep answers short and clear.",
			Reply:       "Routing to the general assistant. You asked: \"{{input}}\". How can I help you today?",
			Priority:    30,
			Default:     true,
		},
	}
}
