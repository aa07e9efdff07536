// Package elaborate inlines circuit calls into a single flat signal graph
// scoped to one test or process run. Every desugar.VariableRef gets a
// fresh, path-qualified UniqueVariableRef so that two calls to the same
// circuit don't alias each other's internal wiring — the same "flatten
// nested scopes into one namespace" idea as the teacher's linker stage
// (lang/yld/linker.go's symbol resolution), generalized from link-time
// symbol merging to call-time circuit instantiation.
package elaborate

import (
	"fmt"

	"github.com/gmofishsauce/hithlain/internal/ast"
	"github.com/gmofishsauce/hithlain/internal/desugar"
)

// UniqueVariableRef identifies one signal in the fully-flattened netlist
// of a single run. Identity is pointer identity: Statement operands and
// the simulator's signal store key off the *UniqueVariableRef itself.
// Identifier is assigned in allocation order (vcdmodel sorts by it); Path
// records the chain of enclosing circuit/process names for diagnostics
// and VCD scoping.
type UniqueVariableRef struct {
	Identifier int
	Generated  bool
	Path       []string
	Variable   ast.Variable
}

// Name renders the dotted path used in VCD wire names and diagnostics,
// e.g. "adder.carry.tmp_3".
func (u *UniqueVariableRef) Name() string {
	name := ""
	for _, p := range u.Path {
		name += p + "."
	}
	return name + u.Variable.Name
}

func (u *UniqueVariableRef) String() string { return u.Name() }

type refGenerator struct {
	next int
}

func (g *refGenerator) newVar(path []string, v ast.Variable) *UniqueVariableRef {
	ref := &UniqueVariableRef{Identifier: g.next, Path: path, Variable: v}
	g.next++
	return ref
}

// rename resolves a desugar.VariableRef to its UniqueVariableRef within
// the current instantiation, allocating one on first use. mapping is
// scoped to a single circuit/process instantiation, so the same source
// variable in two different call sites of the same circuit gets two
// distinct UniqueVariableRefs.
func rename(v *desugar.VariableRef, mapping map[*desugar.VariableRef]*UniqueVariableRef, gen *refGenerator, path []string) *UniqueVariableRef {
	if existing, ok := mapping[v]; ok {
		return existing
	}
	ref := gen.newVar(path, v.Variable)
	if v.Type == desugar.VarTemp {
		ref.Generated = true
	}
	mapping[v] = ref
	return ref
}

// CircuitCycle reports a circuit that, directly or through nested calls,
// ends up calling itself. desugar.Program already rejects such source,
// so only a hand-built desugar.Circuit reaches this check; there's no
// recovery, only a detection.
type CircuitCycle struct {
	Circuit string
}

func (e *CircuitCycle) Error() string {
	return fmt.Sprintf("circuit %s calls itself, directly or indirectly", e.Circuit)
}

// Binary is a two-operand builtin application over unique signals.
type Binary struct {
	Op   ast.BinaryAction
	A, B *UniqueVariableRef
	Into *UniqueVariableRef
}

// Statement is the elaborated three-address instruction sum type: the
// same shape as desugar.Statement but over UniqueVariableRef, with
// circuit calls replaced by inlined Move glue plus a CreateCircuitInstance
// marker carrying the fully elaborated sub-circuit.
type Statement interface {
	isStatement()
}

type AssertStmt struct {
	Var *UniqueVariableRef
}

func (AssertStmt) isStatement() {}

type NotStmt struct {
	Input, Into *UniqueVariableRef
}

func (NotStmt) isStatement() {}

type BinaryStmt struct{ Binary }

func (BinaryStmt) isStatement() {}

type MoveStmt struct {
	Into, From *UniqueVariableRef
}

func (MoveStmt) isStatement() {}

type SetStmt struct {
	Into  *UniqueVariableRef
	Value bool
}

func (SetStmt) isStatement() {}

// CreateCircuitInstance marks one inlined circuit call site; the
// simulator never executes it directly, but the linker recurses into its
// Body, and the VCD module builder recurses into it to build submodule
// scopes (spec.md §4.7).
type CreateCircuitInstance struct {
	Circuit *Circuit
}

func (CreateCircuitInstance) isStatement() {}

// Circuit is one inlined instantiation of a desugar.Circuit: its
// variables are fresh UniqueVariableRefs scoped to this call site.
type Circuit struct {
	Name    ast.Variable
	Inputs  []*UniqueVariableRef
	Outputs []*UniqueVariableRef
	Body    []Statement
}

type TimedBlock struct {
	Nanos uint64
	Body  []Statement
}

// Process is the fully elaborated, directly-linkable form of one test or
// process entry point.
type Process struct {
	Name        ast.Variable
	Inputs      []*UniqueVariableRef
	Outputs     []*UniqueVariableRef
	TimedBlocks []TimedBlock
}

// Entry elaborates a single desugar.Process (a test or process
// definition) into a flat run. Elaboration is per-entry-point rather
// than whole-program: spec.md §4.6 runs each test/process independently,
// and id allocation restarting at 0 per run keeps VCD output and
// diagnostics legible per run instead of accumulating program-wide.
func Entry(p *desugar.Process) (*Process, error) {
	gen := &refGenerator{}
	path := []string{p.Name.Name}
	mapping := make(map[*desugar.VariableRef]*UniqueVariableRef)

	var blocks []TimedBlock
	for _, b := range p.TimedBlocks {
		var body []Statement
		for _, stmt := range b.Body {
			stmts, err := instantiateStatement(stmt, mapping, gen, path, nil)
			if err != nil {
				return nil, err
			}
			body = append(body, stmts...)
		}
		blocks = append(blocks, TimedBlock{Nanos: b.Nanos, Body: body})
	}

	return &Process{Name: p.Name, TimedBlocks: blocks}, nil
}

// circuit elaborates one circuit body under the given call-site path,
// failing with CircuitCycle if stack already contains this circuit's
// name (a call chain that would otherwise recurse forever).
func circuit(c *desugar.Circuit, gen *refGenerator, path []string, stack []string) (*Circuit, error) {
	for _, name := range stack {
		if name == c.Name.Name {
			return nil, &CircuitCycle{Circuit: c.Name.Name}
		}
	}
	stack = append(append([]string{}, stack...), c.Name.Name)
	localPath := append(append([]string{}, path...), c.Name.Name)

	mapping := make(map[*desugar.VariableRef]*UniqueVariableRef)

	inputs := make([]*UniqueVariableRef, 0, len(c.Inputs))
	for _, v := range c.Inputs {
		inputs = append(inputs, rename(v, mapping, gen, localPath))
	}
	outputs := make([]*UniqueVariableRef, 0, len(c.Outputs))
	for _, v := range c.Outputs {
		outputs = append(outputs, rename(v, mapping, gen, localPath))
	}

	var body []Statement
	for _, stmt := range c.Body {
		stmts, err := instantiateStatement(stmt, mapping, gen, localPath, stack)
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}

	return &Circuit{Name: c.Name, Inputs: inputs, Outputs: outputs, Body: body}, nil
}

func instantiateStatement(stmt desugar.Statement, mapping map[*desugar.VariableRef]*UniqueVariableRef, gen *refGenerator, path []string, stack []string) ([]Statement, error) {
	switch s := stmt.(type) {
	case desugar.NotStmt:
		return []Statement{NotStmt{
			Input: rename(s.Input, mapping, gen, path),
			Into:  rename(s.Into, mapping, gen, path),
		}}, nil

	case desugar.BinaryStmt:
		return []Statement{BinaryStmt{Binary{
			Op:   s.Op,
			A:    rename(s.A, mapping, gen, path),
			B:    rename(s.B, mapping, gen, path),
			Into: rename(s.Into, mapping, gen, path),
		}}}, nil

	case desugar.MoveStmt:
		return []Statement{MoveStmt{
			Into: rename(s.Into, mapping, gen, path),
			From: rename(s.From, mapping, gen, path),
		}}, nil

	case desugar.SetStmt:
		return []Statement{SetStmt{
			Into:  rename(s.Into, mapping, gen, path),
			Value: s.Value,
		}}, nil

	case desugar.AssertStmt:
		return []Statement{AssertStmt{Var: rename(s.Var, mapping, gen, path)}}, nil

	case desugar.CustomStmt:
		instantiated, err := circuit(s.Circuit, gen, path, stack)
		if err != nil {
			return nil, err
		}

		var glue []Statement
		for i, arg := range s.Inputs {
			glue = append(glue, MoveStmt{Into: instantiated.Inputs[i], From: rename(arg, mapping, gen, path)})
		}
		for i, target := range s.Into {
			glue = append(glue, MoveStmt{Into: rename(target, mapping, gen, path), From: instantiated.Outputs[i]})
		}
		glue = append(glue, CreateCircuitInstance{Circuit: instantiated})
		return glue, nil

	default:
		panic(fmt.Sprintf("unhandled desugared statement type %T", stmt))
	}
}
