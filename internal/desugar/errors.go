package desugar

import (
	"fmt"

	"github.com/gmofishsauce/hithlain/internal/ast"
	"github.com/gmofishsauce/hithlain/internal/source"
)

// VariableNeverWritten reports an Intermediate variable that was read
// but is never assigned anywhere in its scope (spec.md §4.3).
type VariableNeverWritten struct {
	Variable ast.Variable
	Spn      source.Span
}

func (e *VariableNeverWritten) Error() string {
	return fmt.Sprintf("variable %s is used but never written", e.Variable.Name)
}

func (e *VariableNeverWritten) Span() source.Span { return e.Spn }

// TooManyVariablesOnLHS reports an assignment whose left-hand side names
// more variables than the right-hand expression produces.
type TooManyVariablesOnLHS struct {
	Spn source.Span
}

func (e *TooManyVariablesOnLHS) Error() string {
	return "too many variables on left hand side of assignment"
}

func (e *TooManyVariablesOnLHS) Span() source.Span { return e.Spn }

// NotEnoughVariablesOnLHS reports a circuit-call assignment whose
// left-hand side names fewer variables than the circuit has outputs.
type NotEnoughVariablesOnLHS struct {
	Spn source.Span
}

func (e *NotEnoughVariablesOnLHS) Error() string {
	return "not enough variables on left hand side of assignment"
}

func (e *NotEnoughVariablesOnLHS) Span() source.Span { return e.Spn }

// CircuitDoesntExist reports a call naming a circuit that is never
// defined anywhere in the program.
type CircuitDoesntExist struct {
	Variable ast.Variable
	Spn      source.Span
}

func (e *CircuitDoesntExist) Error() string {
	return fmt.Sprintf("circuit with name %s does not exist", e.Variable.Name)
}

func (e *CircuitDoesntExist) Span() source.Span { return e.Spn }

// CircuitCycle reports a circuit that, directly or through nested calls,
// ends up calling itself: the fixed-point resolution loop in Program
// made no progress on a pass while circuits were still pending, which
// can only happen when every remaining circuit is blocked waiting on
// another blocked circuit. Distinct from CircuitDoesntExist: the named
// circuit is declared, just cyclically defined.
type CircuitCycle struct {
	Circuit ast.Variable
	Spn     source.Span
}

func (e *CircuitCycle) Error() string {
	return fmt.Sprintf("circuit %s calls itself, directly or indirectly", e.Circuit.Name)
}

func (e *CircuitCycle) Span() source.Span { return e.Spn }

// CircuitCallArity reports a circuit call with the wrong argument count.
type CircuitCallArity struct {
	Circuit  ast.Variable
	Want     int
	Got      int
	Spn      source.Span
}

func (e *CircuitCallArity) Error() string {
	return fmt.Sprintf("circuit %s takes %d input(s), called with %d", e.Circuit.Name, e.Want, e.Got)
}

func (e *CircuitCallArity) Span() source.Span { return e.Spn }

// Warning is a non-fatal diagnostic collected during desugaring rather
// than surfaced as an error (spec.md §4.3).
type Warning interface {
	error
	Span() source.Span
	isWarning()
}

// UnassignedOutput reports a circuit output that is never written
// anywhere in the circuit's body.
type UnassignedOutput struct {
	Variable ast.Variable
	Spn      source.Span
}

func (w *UnassignedOutput) Error() string {
	return fmt.Sprintf("output variable %s is never assigned", w.Variable.Name)
}

func (w *UnassignedOutput) Span() source.Span { return w.Spn }
func (*UnassignedOutput) isWarning()          {}

// UnusedVariable reports an input or intermediate variable that is
// never read anywhere in its scope.
type UnusedVariable struct {
	Variable ast.Variable
	Spn      source.Span
}

func (w *UnusedVariable) Error() string {
	return fmt.Sprintf("unused variable %s", w.Variable.Name)
}

func (w *UnusedVariable) Span() source.Span { return w.Spn }
func (*UnusedVariable) isWarning()          {}
