package processor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultSeparators go from paragraph to sentence to whitespace to single
// characters.
var DefaultSeparators = []string{"\n\n", ". ", "? ", "! ", "\n", " ", ""}

// Splitter is a recursive character splitter measured in runes. Separators
// stay attached to the text before them, so joining the pieces of a split
// gives back the original text.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

var _ textsplitter.TextSplitter = Splitter{}

func NewSplitter(chunkSize, chunkOverlap int) Splitter {
	return Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

func (s Splitter) SplitText(text string) ([]string, error) {
	if s.ChunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", s.ChunkSize)
	}
	seps := s.Separators
	if len(seps) == 0 || seps[len(seps)-1] != "" {
		seps = append(append([]string{}, seps...), "")
	}
	return s.split(text, seps), nil
}

func (s Splitter) split(text string, seps []string) []string {
	sep, rest := "", []string(nil)
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep, rest = candidate, seps[i+1:]
			break
		}
	}

	var chunks, fitting []string
	for _, piece := range splitKeepSeparator(text, sep) {
		if utf8.RuneCountInString(piece) <= s.ChunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting)...)
			fitting = nil
		}
		chunks = append(chunks, s.split(piece, rest)...)
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting)...)
	}
	return chunks
}

// merge packs pieces greedily into chunks of at most ChunkSize runes, carrying
// at most ChunkOverlap runes of trailing pieces into the next chunk.
func (s Splitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > s.ChunkSize && len(current) > 0 {
			chunks = appendChunk(chunks, current)
			for len(current) > 0 && (total > s.ChunkOverlap || total+n > s.ChunkSize) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	return appendChunk(chunks, current)
}

func appendChunk(chunks, pieces []string) []string {
	if chunk := strings.TrimSpace(strings.Join(pieces, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}
	return strings.SplitAfter(text, sep)
}
