package llm

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Truncator bounds text to a token budget using the GPT-4 encoding
type Truncator struct {
	codec tokenizer.Codec
}

// NewTruncator creates a truncator backed by the cl100k codec
func NewTruncator() (*Truncator, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec: %w", err)
	}
	return &Truncator{codec: codec}, nil
}

// Count returns the number of tokens in text, estimating 4 characters per token on failure
func (t *Truncator) Count(text string) int {
	n, err := t.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return n
}

// Truncate cuts text to at most limit tokens and marks the cut with "...".
// A limit of 0 or less leaves text unchanged.
func (t *Truncator) Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	ids, _, err := t.codec.Encode(text)
	if err != nil || len(ids) <= limit {
		return text
	}
	head, err := t.codec.Decode(ids[:limit])
	if err != nil {
		return text
	}
	return head + "..."
}
