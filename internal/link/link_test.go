package link

import (
	"testing"

	"github.com/gmofishsauce/hithlain/internal/desugar"
	"github.com/gmofishsauce/hithlain/internal/elaborate"
	"github.com/gmofishsauce/hithlain/internal/parser"
	"github.com/gmofishsauce/hithlain/internal/source"
	"github.com/gmofishsauce/hithlain/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkEntry(t *testing.T, text, entryName string) *Process {
	t.Helper()
	toks, err := token.Lex(source.New("<test>", text))
	require.NoError(t, err)
	prog, err := parser.New(toks).ParseProgram()
	require.NoError(t, err)
	desugared, _, err := desugar.Program(prog)
	require.NoError(t, err)

	for _, p := range desugared.Processes {
		if p.Name.Name == entryName {
			elaborated, err := elaborate.Entry(p)
			require.NoError(t, err)
			return Entry(elaborated)
		}
	}
	t.Fatalf("no entry point %s", entryName)
	return nil
}

func TestLinkSetFiresAtBlockInstant(t *testing.T) {
	proc := linkEntry(t, `
		test t1 {
			a = 1;
			at 5ns:
			a = 0;
		}
	`, "t1")

	var ats []AtTime
	for _, c := range proc.Conditions {
		if at, ok := c.(AtTime); ok {
			if _, ok := at.Stmt.(elaborate.SetStmt); ok {
				ats = append(ats, at)
			}
		}
	}
	require.Len(t, ats, 2)

	var times []uint64
	for _, at := range ats {
		times = append(times, at.Time.Nanos)
	}
	assert.Contains(t, times, uint64(0))
	assert.Contains(t, times, uint64(5))
}

func TestLinkAssertFiresOneProcessStepLater(t *testing.T) {
	proc := linkEntry(t, `
		test t1 {
			a = 1;
			assert a;
		}
	`, "t1")

	var found bool
	for _, c := range proc.Conditions {
		if at, ok := c.(AtTime); ok {
			if _, ok := at.Stmt.(elaborate.AssertStmt); ok {
				found = true
				assert.EqualValues(t, 0, at.Time.Nanos)
				assert.EqualValues(t, 1, at.Time.ProcessStep)
			}
		}
	}
	assert.True(t, found, "expected an Assert condition")
}

func TestLinkBinaryTriggersOnBothOperands(t *testing.T) {
	proc := linkEntry(t, `
		test t1 {
			a = 1;
			b = 1;
			c = a and b;
		}
	`, "t1")

	var whenChanges []WhenChanges
	for _, c := range proc.Conditions {
		if wc, ok := c.(WhenChanges); ok {
			if _, ok := wc.Stmt.(elaborate.BinaryStmt); ok {
				whenChanges = append(whenChanges, wc)
			}
		}
	}
	require.Len(t, whenChanges, 2, "and should trigger on both operands")
	assert.NotEqual(t, whenChanges[0].Variable, whenChanges[1].Variable)
}

func TestLinkCircuitCallRecursesIntoBody(t *testing.T) {
	proc := linkEntry(t, `
		circuit and2: x y -> z {
			z = x and y;
		}
		test t1 {
			a = 1;
			b = 1;
			c = and2(a, b);
		}
	`, "t1")

	var gotInnerBinary bool
	for _, c := range proc.Conditions {
		if wc, ok := c.(WhenChanges); ok {
			if _, ok := wc.Stmt.(elaborate.BinaryStmt); ok {
				gotInnerBinary = true
			}
		}
	}
	assert.True(t, gotInnerBinary, "circuit body's binary op should be linked in")
}

func TestLinkMoveTriggersOnSource(t *testing.T) {
	proc := linkEntry(t, `
		test t1 {
			a = 1;
			b = a;
		}
	`, "t1")

	var moveCond *WhenChanges
	for _, c := range proc.Conditions {
		if wc, ok := c.(WhenChanges); ok {
			if mv, ok := wc.Stmt.(elaborate.MoveStmt); ok {
				assert.Same(t, mv.From, wc.Variable, "Move should trigger on its source, not its target")
				moveCond = &wc
			}
		}
	}
	assert.NotNil(t, moveCond)
}
