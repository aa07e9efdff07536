package token

import (
	"testing"

	"github.com/gmofishsauce/hithlain/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexString(t *testing.T, text string) []Token {
	t.Helper()
	toks, err := Lex(source.New("<test>", text))
	require.NoError(t, err)
	return toks
}

func TestLexKeywordsAndPunctuation(t *testing.T) {
	toks := lexString(t, "circuit test process and or nand nor xor xnor not assert at after : ; , { } ( ) -> = ==")
	want := []Kind{
		KindCircuit, KindTest, KindProcess, KindAnd, KindOr, KindNand, KindNor,
		KindXor, KindXnor, KindNot, KindAssert, KindAt, KindAfter,
		KindColon, KindSemicolon, KindComma, KindLBrace, KindRBrace,
		KindLParen, KindRParen, KindArrow, KindAssign, KindEq,
	}
	require.Len(t, toks, len(want))
	for i, k := range want {
		assert.Equalf(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestLexBitVsNumber(t *testing.T) {
	cases := []struct {
		src      string
		wantKind Kind
		wantBit  bool
		wantNum  uint64
	}{
		{"0", KindBit, false, 0},
		{"1", KindBit, true, 0},
		{"3", KindNumber, false, 3},
		{"01", KindNumber, false, 1},
		{"10", KindNumber, false, 10},
	}
	for _, c := range cases {
		toks := lexString(t, c.src)
		require.Len(t, toks, 1)
		assert.Equal(t, c.wantKind, toks[0].Kind, c.src)
		if c.wantKind == KindBit {
			assert.Equal(t, c.wantBit, toks[0].Bit, c.src)
		} else {
			assert.Equal(t, c.wantNum, toks[0].Number, c.src)
		}
	}
}

func TestLexTimeUnits(t *testing.T) {
	cases := []struct {
		src       string
		wantNanos uint64
	}{
		{"3ns", 3},
		{"3us", 3_000},
		{"3ms", 3_000_000},
		{"3s", 3_000_000_000},
	}
	for _, c := range cases {
		toks := lexString(t, c.src)
		require.Len(t, toks, 1)
		require.Equal(t, KindTime, toks[0].Kind, c.src)
		assert.Equal(t, c.wantNanos, toks[0].Nanos, c.src)
	}
}

func TestLexIdentifierWithHyphen(t *testing.T) {
	toks := lexString(t, "c_in c-in tmp_1")
	require.Len(t, toks, 3)
	assert.Equal(t, "c_in", toks[0].Name)
	assert.Equal(t, "c-in", toks[1].Name)
	assert.Equal(t, "tmp_1", toks[2].Name)
}

func TestLexCommentsAndWhitespaceSkipped(t *testing.T) {
	toks := lexString(t, "a // a comment\n  b")
	require.Len(t, toks, 2)
	assert.Equal(t, "a", toks[0].Name)
	assert.Equal(t, "b", toks[1].Name)
}

func TestLexUnrecognizedByte(t *testing.T) {
	_, err := Lex(source.New("<test>", "a $ b"))
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
}

func TestLexFullProgramSmoke(t *testing.T) {
	src := `
        circuit main: a b c -> d e {
            d = a and b;
            e = b or c;
        }
        `
	toks := lexString(t, src)
	require.NotEmpty(t, toks)
	assert.Equal(t, KindCircuit, toks[0].Kind)
}

func TestCursorPeekAndPeek2(t *testing.T) {
	toks := lexString(t, "a (")
	cur := NewCursor(toks)

	first, ok := cur.Peek()
	require.True(t, ok)
	assert.Equal(t, KindName, first.Kind)

	a, b, ok := cur.Peek2()
	require.True(t, ok)
	assert.Equal(t, KindName, a.Kind)
	assert.Equal(t, KindLParen, b.Kind)

	_, _ = cur.Next()
	_, _ = cur.Next()
	assert.True(t, cur.AtEnd())
}
