// Package tokenizer estimates the token cost of text for a target model.
//
// Counting prefers the model's exact BPE encoding and falls back to a
// deterministic word-count heuristic when no encoding is available. The
// fallback exists so callers are never blocked or failed by tokenization:
// an approximate count is acceptable, unavailability is not.
package tokenizer

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter reports token counts for text. Count returns the estimate and
// whether it came from the exact encoder, so callers and tests can tell the
// two paths apart.
type Counter interface {
	Count(text, model string) (tokens int, exact bool)
}

// TiktokenCounter counts with tiktoken encodings, caching one encoder per
// model. The zero value is ready to use.
type TiktokenCounter struct {
	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
	warned   map[string]bool
}

// NewCounter returns a ready TiktokenCounter.
func NewCounter() *TiktokenCounter {
	return &TiktokenCounter{
		encoders: make(map[string]*tiktoken.Tiktoken),
		warned:   make(map[string]bool),
	}
}

// Count returns the token count of text for model. exact is false when the
// encoding could not be resolved and the heuristic was used instead.
func (c *TiktokenCounter) Count(text, model string) (int, bool) {
	enc, err := c.encoderFor(model)
	if err != nil {
		return Approximate(text), false
	}
	return len(enc.Encode(text, nil, nil)), true
}

func (c *TiktokenCounter) encoderFor(model string) (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.encoders == nil {
		c.encoders = make(map[string]*tiktoken.Tiktoken)
		c.warned = make(map[string]bool)
	}
	if enc, ok := c.encoders[model]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if !c.warned[model] {
			slog.Warn("no exact tokenizer for model, using approximate counts", "model", model, "err", err)
			c.warned[model] = true
		}
		return nil, err
	}

	c.encoders[model] = enc
	return enc, nil
}

// Approximate estimates tokens as word count times 1.3, matching observed
// English tokenization density. Deterministic and dependency-free.
func Approximate(text string) int {
	words := len(strings.Fields(text))
	return words * 13 / 10
}
