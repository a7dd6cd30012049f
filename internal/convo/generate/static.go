package generate

import (
	"context"
	"fmt"

	"github.com/mizutani/convo/internal/convo"
	"github.com/mizutani/convo/internal/convo/handler"
)

// Static is a deterministic, in-process Generator built from handler
// definitions. Each handler answers with its reply template; unknown handlers
// get a generic acknowledgement. It performs no I/O, which keeps the CLI
// usable offline and makes turn behavior fully reproducible in tests.
type Static struct {
	defs map[string]handler.Definition
}

// NewStatic builds a Static generator over the given handler definitions.
func NewStatic(defs []handler.Definition) *Static {
	m := make(map[string]handler.Definition, len(defs))
	for _, def := range defs {
		m[def.Name] = def
	}
	return &Static{defs: m}
}

// GenerateReply renders the handler's reply template for the utterance.
func (g *Static) GenerateReply(ctx context.Context, handlerID string, history []convo.Message, utterance string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	def, ok := g.defs[handlerID]
	if !ok || def.Reply == "" {
		return fmt.Sprintf("Received: %q. No reply template is configured for handler %q.", utterance, handlerID), nil
	}
	return def.FormatReply(utterance), nil
}
