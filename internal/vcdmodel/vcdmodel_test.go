package vcdmodel

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

func elaborateEntry(t *testing.T, text, entryName string) *elaborate.Process {
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
			return elaborated
		}
	}
	t.Fatalf("no entry point %s", entryName)
	return nil
}

func TestBuildIncludesTopLevelVariables(t *testing.T) {
	proc := elaborateEntry(t, `
		test t1 {
			a = 1;
			b = 1;
			assert a;
		}
	`, "t1")

	mod := Build(proc)
	var names []string
	for _, v := range mod.Variables {
		names = append(names, v.Variable.Name)
	}
	assert.Contains(t, names, "a")
	assert.Contains(t, names, "b")
	assert.Empty(t, mod.Submodules)
}

func TestBuildExcludesGeneratedTemporaries(t *testing.T) {
	proc := elaborateEntry(t, `
		test t1 {
			a = 1;
			b = 1;
			c = 1;
			d = a and b and c;
		}
	`, "t1")

	mod := Build(proc)
	for _, v := range mod.Variables {
		assert.False(t, v.Generated, "temporary %s should not appear in the VCD module tree", v.Name())
	}
}

func TestBuildCreatesSubmoduleForCircuitCall(t *testing.T) {
	proc := elaborateEntry(t, `
		circuit and2: x y -> z {
			z = x and y;
		}
		test t1 {
			a = 1;
			b = 1;
			c = and2(a, b);
		}
	`, "t1")

	mod := Build(proc)
	require.Len(t, mod.Submodules, 1)
	assert.Equal(t, "and2", mod.Submodules[0].Name.Name)

	var names []string
	for _, v := range mod.Submodules[0].Variables {
		names = append(names, v.Variable.Name)
	}
	assert.Contains(t, names, "x")
	assert.Contains(t, names, "y")
	assert.Contains(t, names, "z")
}
