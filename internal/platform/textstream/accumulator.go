// Package textstream turns streamed model tokens into display-ready
// fragments. It buffers tokens until a clause boundary and rewrites
// markdown into the small HTML subset the client renders.
package textstream

import (
	"regexp"
	"strings"

	"github.com/valyala/bytebufferpool"
)

var (
	boldPattern  = regexp.MustCompile(`\*\*(.+?)\*\*`)
	strayMarkers = strings.NewReplacer("#", "", "*", "", "-", "")
)

// Accumulator is single-goroutine; callers must not share it.
type Accumulator struct {
	buf *bytebufferpool.ByteBuffer
}

func NewAccumulator() *Accumulator {
	return &Accumulator{buf: bytebufferpool.Get()}
}

// Push appends a token. When the buffer then ends on a boundary it is
// flushed and the formatted text returned; ok is false if nothing
// should be emitted.
func (a *Accumulator) Push(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	_, _ = a.buf.WriteString(token)
	if !IsBoundary(a.buf.B[len(a.buf.B)-1]) {
		return "", false
	}
	return a.Flush()
}

// Flush formats and clears whatever is buffered.
func (a *Accumulator) Flush() (string, bool) {
	if a.buf.Len() == 0 {
		return "", false
	}
	out := Format(a.buf.String())
	a.buf.Reset()
	if strings.TrimSpace(out) == "" {
		return "", false
	}
	return out, true
}

// Release returns the buffer to the pool. The accumulator is unusable afterwards.
func (a *Accumulator) Release() {
	if a.buf != nil {
		bytebufferpool.Put(a.buf)
		a.buf = nil
	}
}

func IsBoundary(c byte) bool {
	switch c {
	case ' ', '\n', '.', ',', '!', '?':
		return true
	}
	return false
}

// Format drops heading lines, renders **bold** as <b>, newlines as <br>
// and removes leftover #, * and - characters.
func Format(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "#") {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	out = boldPattern.ReplaceAllString(out, "<b>$1</b>")
	out = strings.ReplaceAll(out, "\n", "<br>")
	return strayMarkers.Replace(out)
}
