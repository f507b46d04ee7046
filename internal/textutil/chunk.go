package textutil

import (
	"log/slog"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"rsstranslator/internal/utils/text"
)

// combineChunksWithNoMinimum packs chunks into delimiter-joined blocks that
// each stay under maxTokens, splitting to a new block whenever the next
// chunk would overflow it. A chunk that overflows maxTokens on its own is
// dropped (optionally replaced by an ellipsis marker) rather than breaking
// the size invariant downstream callers rely on.
func combineChunksWithNoMinimum(chunks []string, maxTokens int, delimiter, header string, addEllipsisForOverflow bool) (output []string, dropped int) {
	var candidate []string
	if header != "" {
		candidate = []string{header}
	}

	flush := func() {
		if (header != "" && len(candidate) > 1) || (header == "" && len(candidate) > 0) {
			output = append(output, strings.Join(candidate, delimiter))
		}
	}

	for _, chunk := range chunks {
		withHeader := []string{chunk}
		if header != "" {
			withHeader = []string{header, chunk}
		}

		if Tokenize(strings.Join(withHeader, delimiter)) > maxTokens {
			slog.Warn("chunk overflow, dropping", slog.Int("max_tokens", maxTokens))
			if addEllipsisForOverflow && Tokenize(strings.Join(append(append([]string{}, candidate...), "..."), delimiter)) <= maxTokens {
				candidate = append(candidate, "...")
				dropped++
			}
			continue
		}

		extended := append(append([]string{}, candidate...), chunk)
		if Tokenize(strings.Join(extended, delimiter)) > maxTokens {
			flush()
			candidate = withHeader
		} else {
			candidate = extended
		}
	}
	flush()
	return output, dropped
}

// ChunkOnDelimiter splits text on delimiter and recombines the pieces into
// blocks of at most maxTokens tokens each, re-appending delimiter to every
// returned block so re-joining them reproduces the original spacing.
func ChunkOnDelimiter(text string, maxTokens int, delimiter string) []string {
	pieces := strings.Split(text, delimiter)
	combined, dropped := combineChunksWithNoMinimum(pieces, maxTokens, delimiter, "", true)
	if dropped > 0 {
		slog.Warn("chunks dropped due to overflow", slog.Int("count", dropped))
	}
	out := make([]string, len(combined))
	for i, c := range combined {
		out[i] = c + delimiter
	}
	return out
}

var newlineRun = regexp.MustCompile(`\n+`)

// SplitChunks is one content_split pass: the original HTML is converted to
// markdown, split on runs of one or more newlines, and each resulting chunk is measured
// in both tokens and characters so callers (engines that meter one or the
// other) can pick the right budget.
type SplitChunks struct {
	Chunks     []string
	Tokens     []int
	Characters []int
}

// ContentSplit converts content to markdown and splits it into
// newline-delimited chunks, recording each chunk's token and character
// count.
func ContentSplit(content string) SplitChunks {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(content)
	if err != nil {
		slog.Error("content_split: markdown conversion failed", slog.String("error", err.Error()))
		return SplitChunks{
			Chunks:     []string{content},
			Tokens:     []int{Tokenize(content)},
			Characters: []int{text.CountRunes(content)},
		}
	}

	chunks := newlineRun.Split(markdown, -1)
	tokens := make([]int, len(chunks))
	characters := make([]int, len(chunks))
	for i, chunk := range chunks {
		tokens[i] = Tokenize(chunk)
		characters[i] = text.CountRunes(chunk)
	}
	return SplitChunks{Chunks: chunks, Tokens: tokens, Characters: characters}
}

// GroupBy selects which of SplitChunks' two parallel measurements
// GroupChunks sums against maxSize.
type GroupBy int

const (
	GroupByTokens GroupBy = iota
	GroupByCharacters
)

// GroupChunks merges short chunks from split into blocks roughly half of
// maxSize each: maxSize is an engine's full per-call budget (tokens or
// characters), and leaving headroom below it keeps room for the prompt
// wrapped around the chunk in the actual translate/summarize call.
func GroupChunks(split SplitChunks, maxSize int, groupBy GroupBy) []string {
	values := split.Tokens
	if groupBy == GroupByCharacters {
		values = split.Characters
	}

	var grouped []string
	var current strings.Builder
	currentValue := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			grouped = append(grouped, s)
		}
	}

	for i, chunk := range split.Chunks {
		value := values[i]
		if currentValue+value > maxSize/2 {
			flush()
			current.Reset()
			current.WriteString(chunk)
			currentValue = value
			continue
		}
		if current.Len() > 0 {
			if strings.HasPrefix(chunk, "|") {
				current.WriteString("\n")
			} else {
				current.WriteString("\n\n")
			}
		}
		current.WriteString(chunk)
		currentValue += value
	}
	flush()

	if len(grouped) == 0 {
		return split.Chunks
	}
	return grouped
}
