// Package desugar lowers the surface ast.Program into three-address form:
// every expression becomes a chain of single-operation statements writing
// into an explicit variable, with temporaries allocated as needed. This is
// the same "flatten the tree into a scope-checked instruction list" shape
// as the teacher's semantic-analysis pass (lang/ysem/analyzer.go), grown to
// also handle circuit-call inlining targets and named-output arity.
package desugar

import (
	"github.com/gmofishsauce/hithlain/internal/ast"
	"github.com/gmofishsauce/hithlain/internal/source"
)

// VariableType classifies why a VariableRef exists, driving the
// unused/unassigned diagnostics run at the end of each circuit and
// process (spec.md §4.3).
type VariableType int

const (
	VarIn VariableType = iota
	VarOut
	VarTemp
	VarIntermediate
)

func (t VariableType) String() string {
	switch t {
	case VarIn:
		return "input"
	case VarOut:
		return "output"
	case VarTemp:
		return "temporary"
	case VarIntermediate:
		return "intermediate"
	}
	return "?"
}

// VariableRef is a scope-resolved variable. Identity is pointer identity:
// two references to the same name within one scope share a *VariableRef,
// which is how later phases (elaborate, link) recognize same-variable
// reads without re-hashing names. Read/Written replace the original's
// atomics; desugaring is single-threaded in this port so plain bools
// suffice.
type VariableRef struct {
	Variable ast.Variable
	Type     VariableType
	Read     bool
	Written  bool
}

// Binary is a two-operand builtin gate application reduced to three
// variables. A single struct with an Op field replaces the original's one
// enum variant per operator; spec.md's six binary builtins differ only in
// which truth table they apply; it's constant in every other way, so
// Go's struct-with-field idiom needn't multiply Statement types.
type Binary struct {
	Op   ast.BinaryAction
	A, B *VariableRef
	Into *VariableRef
}

// Statement is the three-address instruction sum type.
type Statement interface {
	isStatement()
}

type AssertStmt struct {
	Var *VariableRef
	Spn source.Span
}

func (AssertStmt) isStatement() {}

type NotStmt struct {
	Input, Into *VariableRef
}

func (NotStmt) isStatement() {}

type BinaryStmt struct{ Binary }

func (BinaryStmt) isStatement() {}

// CustomStmt represents a circuit call: the named circuit's body is
// inlined by the elaborator, with Inputs/Into providing the glue
// variables on the caller side.
type CustomStmt struct {
	Circuit *Circuit
	Inputs  []*VariableRef
	Into    []*VariableRef
}

func (CustomStmt) isStatement() {}

type MoveStmt struct {
	Into, From *VariableRef
}

func (MoveStmt) isStatement() {}

type SetStmt struct {
	Into  *VariableRef
	Value bool
}

func (SetStmt) isStatement() {}

// Circuit is a desugared, scope-checked combinational sub-network, not
// yet instantiated into any particular caller's namespace.
type Circuit struct {
	Name    ast.Variable
	Inputs  []*VariableRef
	Outputs []*VariableRef
	Body    []Statement
}

// TimedBlock groups statements that all execute at the same initial
// simulated instant, in source order within a test or process body
// (spec.md §4.4). Nanos is the offset from the start of the run; the
// simulator layers process-step and delta-cycle ordering on top of this
// at run time.
type TimedBlock struct {
	Nanos uint64
	Body  []Statement
}

// Process is the desugared, uninstantiated form of both `test` and
// `process` blocks; spec.md §3 treats them as the same runnable shape, so
// there's exactly one Go type for both.
type Process struct {
	Name        ast.Variable
	TimedBlocks []TimedBlock
}

// Program is the whole desugared, scope-checked translation unit.
type Program struct {
	Circuits  []*Circuit
	Processes []*Process
}
