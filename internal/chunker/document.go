package chunker

import (
	"fmt"

	"doc-embeddings/internal/nonempty"
)

// Document is long text whose chunks are embedded one vector per chunk.
// A non-empty Title is prepended to each chunk so every vector carries the
// document context.
type Document struct {
	Title   string
	Text    string
	Options Options
}

// Embeddable returns the chunk texts in order. Text with no words yields
// nonempty.ErrEmptyInput.
func (d Document) Embeddable() (nonempty.Collection[string], error) {
	chunks := Split(d.Text, d.Options)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		if d.Title != "" {
			texts[i] = fmt.Sprintf("Document: %s\n\n%s", d.Title, c.Text)
			continue
		}
		texts[i] = c.Text
	}
	return nonempty.FromSlice(texts)
}
