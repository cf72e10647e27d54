package diagnostics

import (
	"os"
	"sync"
)

// Doc is a deferred documentation extraction handle (spec §4.9). Readers
// record only the SrcPos of a comment associated with a declaration; the
// comment text itself is read from disk lazily, on first Get().
type Doc struct {
	pos  SrcPos
	once sync.Once
	text string
	err  error
}

// NewDoc records where a doc comment lives without reading it.
func NewDoc(pos SrcPos) *Doc {
	return &Doc{pos: pos}
}

// Get reads and returns the comment text, caching the result. Concurrent
// callers on different threads share one disk read via sync.Once.
func (d *Doc) Get() (string, error) {
	d.once.Do(func() {
		if d.pos.IsSynthetic() {
			d.text = ""
			return
		}
		data, err := os.ReadFile(d.pos.File)
		if err != nil {
			d.err = err
			return
		}
		end := d.pos.End()
		if end > len(data) {
			end = len(data)
		}
		if d.pos.Offset > len(data) || d.pos.Offset < 0 {
			d.err = New(DocError, d.pos, "doc comment offset out of range")
			return
		}
		d.text = string(data[d.pos.Offset:end])
	})
	return d.text, d.err
}

// Pos returns the recorded position without forcing the read.
func (d *Doc) Pos() SrcPos {
	return d.pos
}
