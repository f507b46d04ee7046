package textutil

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"rsstranslator/internal/utils/text"
)

// gpt35TurboEncoding is the BPE encoding gpt-3.5-turbo and gpt-4 use;
// tokenize is a token-count estimator shared by every engine, not only the
// OpenAI one, so chunk sizing stays consistent regardless of which engine
// ultimately performs the call.
const gpt35TurboEncoding = "cl100k_base"

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

func getEncoding() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding(gpt35TurboEncoding)
	})
	return encoding, encodingErr
}

// Tokenize returns the BPE token count of text. On encoder initialization
// failure it falls back to a conservative rune-count estimate rather than
// erroring, since token counts here only drive chunk-size heuristics.
func Tokenize(s string) int {
	enc, err := getEncoding()
	if err != nil {
		return text.CountRunes(s)
	}
	return len(enc.Encode(s, nil, nil))
}
