// Package segment partitions an assembled layout document into token-bounded
// segments while tracking the live heading hierarchy.
package segment

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer maps text to a token count. Counts are size estimates used for
// segment boundary decisions; the encoder's vocabulary is externally defined.
type Tokenizer interface {
	Count(text string) int
}

// encodingName is the vocabulary used for all segment size estimates.
const encodingName = "cl100k_base"

// TiktokenCounter counts tokens with the cl100k_base BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer returns the production token counter.
func NewTokenizer() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (t *TiktokenCounter) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
