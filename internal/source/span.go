package source

import (
	"fmt"
	"strings"
)

// Span is a byte range into a shared *Source. It is the thing every
// syntactic artifact (token, expression, statement, variable reference)
// carries so later phases and, ultimately, the CLI, can point back at the
// offending source text.
type Span struct {
	Src    *Source
	Start  int
	Length int
}

func NewSpan(src *Source, start, length int) Span {
	return Span{Src: src, Start: start, Length: length}
}

func (s Span) End() int {
	return s.Start + s.Length
}

func (s Span) Text() string {
	if s.Src == nil {
		return ""
	}
	return s.Src.Text()[s.Start:s.End()]
}

// Merge returns the smallest span covering every span in spans, taking
// min-start to max-end as spec.md §3 requires. Spans with a nil Src are
// skipped. Merge of zero valid spans returns the zero Span.
func Merge(spans ...Span) Span {
	var result Span
	found := false
	for _, s := range spans {
		if s.Src == nil {
			continue
		}
		if !found {
			result = s
			found = true
			continue
		}
		end := result.End()
		if s.Start < result.Start {
			result.Start = s.Start
		}
		if s.End() > end {
			end = s.End()
		}
		result.Length = end - result.Start
		result.Src = s.Src
	}
	return result
}

// lineCol returns the 1-based line and column of byte offset off in text.
func lineCol(text string, off int) (line, col int) {
	line = 1
	lineStart := 0
	for i := 0; i < off && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, off - lineStart + 1
}

// Describe renders a minimal, non-colored diagnostic: filename, 1-based
// line:column, the offending source line, and a caret under the span's
// start. This is deliberately not a full diagnostics renderer (no
// multi-span underlines, no color, no suggestions) — that stays an
// external collaborator per spec.md §1; it exists so the CLI has
// something usable out of the box.
func (s Span) Describe() string {
	if s.Src == nil {
		return "<no source location>"
	}
	text := s.Src.Text()
	line, col := lineCol(text, s.Start)

	lineStart := strings.LastIndexByte(text[:s.Start], '\n') + 1
	lineEnd := strings.IndexByte(text[s.Start:], '\n')
	if lineEnd == -1 {
		lineEnd = len(text)
	} else {
		lineEnd += s.Start
	}
	srcLine := text[lineStart:lineEnd]

	caret := strings.Repeat(" ", col-1) + "^"
	return fmt.Sprintf("%s:%d:%d:\n%s\n%s", s.Src.Name(), line, col, srcLine, caret)
}
