package sim

import (
	"github.com/gmofishsauce/hithlain/internal/desugar"
	"github.com/gmofishsauce/hithlain/internal/parser"
	"github.com/gmofishsauce/hithlain/internal/source"
	"github.com/gmofishsauce/hithlain/internal/token"
	"github.com/stretchr/testify/require"
	"testing"
)

func parseAndDesugar(t *testing.T, text string) *desugar.Program {
	t.Helper()
	toks, err := token.Lex(source.New("<test>", text))
	require.NoError(t, err)
	prog, err := parser.New(toks).ParseProgram()
	require.NoError(t, err)
	desugared, _, err := desugar.Program(prog)
	require.NoError(t, err)
	return desugared
}

func TestSimulatorRunsPassingAssertions(t *testing.T) {
	prog := parseAndDesugar(t, `
		circuit something: a b c -> d e {
			d = a and b;
			e = b or c;
		}

		test main {
			x, y = something(a, b, 0);

			at 0ns:
				a = 1;
				b = 1;

				assert x;

			after 5ns:
				a = 1;
				b = 0;

				assert not(x);
		}
	`)

	sim := NewSimulator(prog, NewConfig())
	require.NoError(t, sim.RunOne("main"))
}

func TestSimulatorReportsFailingAssertion(t *testing.T) {
	prog := parseAndDesugar(t, `
		test main {
			a = 1;
			assert not(a);
		}
	`)

	sim := NewSimulator(prog, NewConfig())
	err := sim.RunOne("main")
	require.Error(t, err)
	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
}

func TestSimulatorAddCircuitWithEqualitySugar(t *testing.T) {
	prog := parseAndDesugar(t, `
		circuit add: a b cin -> o cout {
			o = a xor b xor cin;
			cout = (a and b) or ((a xor b) and cin);
		}

		test main {
			o, cout = add(a, b, 0);

			at 0ns:
				a = 1;
				b = 1;

				assert o == 0;
				assert cout == 1;

			after 5ns:
				a = 0;
				b = 0;

				assert o == 0;
				assert cout == 0;
		}
	`)

	sim := NewSimulator(prog, NewConfig())
	require.NoError(t, sim.RunOne("main"))
}

func TestRunAllContinuesPastFailures(t *testing.T) {
	prog := parseAndDesugar(t, `
		test fails {
			a = 1;
			assert not(a);
		}
		test passes {
			b = 1;
			assert b;
		}
	`)

	sim := NewSimulator(prog, NewConfig())
	results := sim.RunAll()
	require.Len(t, results, 2)

	byName := make(map[string]error)
	for _, r := range results {
		byName[r.Name] = r.Err
	}
	require.Error(t, byName["fails"])
	require.NoError(t, byName["passes"])
}

func TestRunOneUnknownEntryErrors(t *testing.T) {
	prog := parseAndDesugar(t, `
		test main {
			a = 1;
		}
	`)

	sim := NewSimulator(prog, NewConfig())
	err := sim.RunOne("nope")
	require.Error(t, err)
}

func TestMaxNanosCutsSimulationShort(t *testing.T) {
	prog := parseAndDesugar(t, `
		test main {
			at 0ns:
				a = 1;
			at 100ns:
				assert not(a);
		}
	`)

	sim := NewSimulator(prog, NewConfig(WithMaxNanos(50)))
	require.NoError(t, sim.RunOne("main"), "the failing assertion at 100ns should never run")
}
