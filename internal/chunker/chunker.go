// Package chunker splits long text into overlapping word windows so each
// window can be embedded as its own fragment.
package chunker

import "strings"

const (
	DefaultMaxWords = 400
	DefaultOverlap  = 80
)

// Options controls the window size. Zero values fall back to the defaults;
// an overlap that would stall the window is clamped to MaxWords-1.
type Options struct {
	MaxWords int
	Overlap  int
}

func (o Options) normalized() Options {
	if o.MaxWords <= 0 {
		o.MaxWords = DefaultMaxWords
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.MaxWords {
		o.Overlap = o.MaxWords - 1
	}
	return o
}

// Chunk is one window of the source text.
type Chunk struct {
	Position  int
	FirstWord int
	Words     int
	Text      string
}

// Split returns the windows of text in reading order. Whitespace is
// normalized to single spaces. Text without words yields nil.
func Split(text string, opts Options) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	opts = opts.normalized()
	step := opts.MaxWords - opts.Overlap

	chunks := make([]Chunk, 0, 1+(len(words)-1)/step)
	for start := 0; ; start += step {
		end := min(start+opts.MaxWords, len(words))
		chunks = append(chunks, Chunk{
			Position:  len(chunks),
			FirstWord: start,
			Words:     end - start,
			Text:      strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			return chunks
		}
	}
}
