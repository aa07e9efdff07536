package token

import (
	"fmt"

	"github.com/gmofishsauce/hithlain/internal/source"
)

// LexError reports a byte sequence that matched none of the token rules.
type LexError struct {
	Span source.Span
}

func (e *LexError) Error() string {
	return fmt.Sprintf("unrecognized token at %s", e.Span.Describe())
}

type lexer struct {
	src  *source.Source
	text string
	pos  int
}

// Lex scans src into an ordered token stream, failing on the first byte
// sequence matching no rule (spec.md §4.1).
func Lex(src *source.Source) ([]Token, error) {
	l := &lexer{src: src, text: src.Text()}
	var out []Token

	for {
		l.skipTrivia()
		if l.atEnd() {
			break
		}

		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}

	return out, nil
}

func (l *lexer) atEnd() bool {
	return l.pos >= len(l.text)
}

func (l *lexer) peekByte() byte {
	if l.atEnd() {
		return 0
	}
	return l.text[l.pos]
}

func (l *lexer) byteAt(off int) byte {
	if l.pos+off >= len(l.text) {
		return 0
	}
	return l.text[l.pos+off]
}

func (l *lexer) skipTrivia() {
	for !l.atEnd() {
		c := l.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.byteAt(1) == '/':
			for !l.atEnd() && l.peekByte() != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentTail(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '-'
}

func (l *lexer) span(start int) source.Span {
	return source.NewSpan(l.src, start, l.pos-start)
}

// multi-character punctuation, longest-first so "->" is preferred over a
// bare "-" (which isn't a token at all in this language).
var puncts = []struct {
	text string
	kind Kind
}{
	{"->", KindArrow},
	{"==", KindEq},
	{":", KindColon},
	{";", KindSemicolon},
	{",", KindComma},
	{"{", KindLBrace},
	{"}", KindRBrace},
	{"(", KindLParen},
	{")", KindRParen},
	{"=", KindAssign},
}

func (l *lexer) next() (Token, error) {
	start := l.pos
	c := l.peekByte()

	switch {
	case isAlpha(c):
		l.pos++
		for !l.atEnd() && isIdentTail(l.peekByte()) {
			l.pos++
		}
		name := l.text[start:l.pos]
		if kind, ok := keywords[name]; ok {
			return Token{Kind: kind, Span: l.span(start)}, nil
		}
		return Token{Kind: KindName, Span: l.span(start), Name: name}, nil

	case isDigit(c):
		return l.lexNumeric(start)

	default:
		for _, p := range puncts {
			if l.match(p.text) {
				return Token{Kind: p.kind, Span: l.span(start)}, nil
			}
		}
		// consume exactly one byte so the error span is well-formed.
		l.pos++
		return Token{}, &LexError{Span: l.span(start)}
	}
}

func (l *lexer) match(text string) bool {
	if l.pos+len(text) > len(l.text) {
		return false
	}
	if l.text[l.pos:l.pos+len(text)] != text {
		return false
	}
	l.pos += len(text)
	return true
}

var timeUnits = []struct {
	suffix  string
	nanosPerUnit uint64
}{
	{"ns", 1},
	{"us", 1_000},
	{"ms", 1_000_000},
	{"s", 1_000_000_000},
}

// lexNumeric handles the three numeric token rules: time literal (digits
// immediately followed by a unit suffix, priority 3), bit literal (a
// lone "0" or "1" not part of a longer digit run, priority 2), and the
// plain integer number otherwise.
func (l *lexer) lexNumeric(start int) (Token, error) {
	for !l.atEnd() && isDigit(l.peekByte()) {
		l.pos++
	}
	digits := l.text[start:l.pos]

	for _, u := range timeUnits {
		end := l.pos + len(u.suffix)
		if end <= len(l.text) && l.text[l.pos:end] == u.suffix {
			// the suffix must not itself be the start of a longer
			// identifier (e.g. "3nsx" is not a time literal).
			if end >= len(l.text) || !isIdentTail(l.text[end]) {
				n, err := parseUint(digits)
				if err != nil {
					return Token{}, &LexError{Span: l.span(start)}
				}
				l.pos = end
				return Token{Kind: KindTime, Span: l.span(start), Nanos: n * u.nanosPerUnit}, nil
			}
		}
	}

	if digits == "0" || digits == "1" {
		return Token{Kind: KindBit, Span: l.span(start), Bit: digits == "1"}, nil
	}

	n, err := parseUint(digits)
	if err != nil {
		return Token{}, &LexError{Span: l.span(start)}
	}
	return Token{Kind: KindNumber, Span: l.span(start), Number: n}, nil
}

func parseUint(digits string) (uint64, error) {
	var n uint64
	for i := 0; i < len(digits); i++ {
		n = n*10 + uint64(digits[i]-'0')
	}
	return n, nil
}
