package turn

import (
	"strings"

	"github.com/mizutani/convo/internal/convo/router"
)

// Reply is the result of one completed turn. The reply text is already
// durable by the time a Reply exists; consuming or abandoning the fragment
// stream cannot affect what was persisted.
type Reply struct {
	Handler router.Handler

	text   string
	chunks chan string
}

// newReply builds a reply whose fragment channel is fully buffered and
// closed, so an abandoned consumer never blocks a producer.
func newReply(handlerID router.Handler, text string, chunkSize int) *Reply {
	fragments := splitChunks(text, chunkSize)
	ch := make(chan string, len(fragments))
	for _, f := range fragments {
		ch <- f
	}
	close(ch)
	return &Reply{Handler: handlerID, text: text, chunks: ch}
}

// Text returns the full reply, identical to the persisted assistant message.
func (r *Reply) Text() string {
	return r.text
}

// Chunks returns the reply as a finite, non-restartable sequence of text
// fragments in generation order. Draining the channel and concatenating
// yields exactly Text().
func (r *Reply) Chunks() <-chan string {
	return r.chunks
}

// splitChunks cuts text into word-preserving fragments of roughly chunkSize
// bytes. Whitespace is kept so the concatenation reproduces text exactly.
func splitChunks(text string, chunkSize int) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	rest := text
	for len(rest) > 0 {
		idx := strings.IndexByte(rest, ' ')
		var word string
		if idx < 0 {
			word, rest = rest, ""
		} else {
			word, rest = rest[:idx+1], rest[idx+1:]
		}
		current.WriteString(word)
		if current.Len() >= chunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
