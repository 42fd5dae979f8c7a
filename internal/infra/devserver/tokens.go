package devserver

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates prompt size for the metadata block.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter loads the encoding on first use. When it cannot be loaded
// (offline, unknown model) it falls back to a word count.
type TiktokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

func NewTiktokenCounter(model string) *TiktokenCounter {
	return &TiktokenCounter{model: model}
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc == nil {
		return WordCounter{}.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// WordCounter is the dependency-free estimate.
type WordCounter struct{}

func (WordCounter) Count(text string) int { return len(strings.Fields(text)) }
