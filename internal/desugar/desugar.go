package desugar

import (
	"fmt"

	"github.com/gmofishsauce/hithlain/internal/ast"
	"github.com/gmofishsauce/hithlain/internal/source"
)

// forwardRef signals that a circuit body calls another circuit whose
// definition exists in the program but hasn't been desugared yet. It's
// caught internally by Program's fixed-point resolution loop and never
// escapes this package.
type forwardRef struct {
	name string
}

func (e *forwardRef) Error() string {
	return fmt.Sprintf("circuit %s not yet resolved", e.name)
}

// Program desugars a whole surface ast.Program, resolving circuit
// forward references (a circuit may call one defined later in the same
// file) with a fixed-point pass: keep attempting whichever circuits
// aren't resolved yet until a full pass makes no progress.
func Program(p ast.Program) (*Program, []Warning, error) {
	declared := make(map[string]*ast.Circuit, len(p.Circuits))
	for i := range p.Circuits {
		c := &p.Circuits[i]
		declared[c.Name.Name] = c
	}

	resolved := make(map[string]*Circuit, len(p.Circuits))
	var order []*Circuit
	var warnings []Warning

	pending := make([]*ast.Circuit, len(p.Circuits))
	for i := range p.Circuits {
		pending[i] = &p.Circuits[i]
	}

	for len(pending) > 0 {
		var next []*ast.Circuit
		progress := false

		for _, c := range pending {
			desugared, ws, err := desugarCircuit(c, declared, resolved)
			if err != nil {
				var fr *forwardRef
				if asForwardRef(err, &fr) {
					next = append(next, c)
					continue
				}
				return nil, nil, err
			}
			resolved[c.Name.Name] = desugared
			order = append(order, desugared)
			warnings = append(warnings, ws...)
			progress = true
		}

		if !progress {
			// every remaining circuit is blocked on another blocked
			// circuit: a genuine mutual/self call cycle, not a missing
			// definition.
			return nil, nil, &CircuitCycle{
				Circuit: pending[0].Name,
				Spn:     pending[0].Name.Span,
			}
		}
		pending = next
	}

	desugaredProgram := &Program{Circuits: order}

	for i := range p.Tests {
		proc, ws, err := desugarTimedEntry(p.Tests[i].Name, p.Tests[i].Body, declared, resolved)
		if err != nil {
			return nil, nil, err
		}
		desugaredProgram.Processes = append(desugaredProgram.Processes, proc)
		warnings = append(warnings, ws...)
	}
	for i := range p.Processes {
		proc, ws, err := desugarTimedEntry(p.Processes[i].Name, p.Processes[i].Body, declared, resolved)
		if err != nil {
			return nil, nil, err
		}
		desugaredProgram.Processes = append(desugaredProgram.Processes, proc)
		warnings = append(warnings, ws...)
	}

	return desugaredProgram, warnings, nil
}

func asForwardRef(err error, target **forwardRef) bool {
	if fr, ok := err.(*forwardRef); ok {
		*target = fr
		return true
	}
	return false
}

func desugarCircuit(circuit *ast.Circuit, declared map[string]*ast.Circuit, resolved map[string]*Circuit) (*Circuit, []Warning, error) {
	scope := NewScope()

	inputs := make([]*VariableRef, 0, len(circuit.Inputs))
	for _, v := range circuit.Inputs {
		ref, err := scope.DefineVariable(v, VarIn)
		if err != nil {
			return nil, nil, err
		}
		inputs = append(inputs, ref)
	}

	outputs := make([]*VariableRef, 0, len(circuit.Outputs))
	for _, v := range circuit.Outputs {
		ref, err := scope.DefineVariable(v, VarOut)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, ref)
	}

	var body []Statement
	for _, stmt := range circuit.Body {
		stmts, err := desugarStatement(stmt, declared, resolved, scope)
		if err != nil {
			return nil, nil, err
		}
		body = append(body, stmts...)
	}

	warnings := endOfScopeWarnings(scope, true)
	if err := checkIntermediatesWritten(scope); err != nil {
		return nil, nil, err
	}

	return &Circuit{Inputs: inputs, Outputs: outputs, Body: body, Name: circuit.Name}, warnings, nil
}

// desugarTimedEntry desugars the shared test/process body shape into a
// Process (spec.md §3: test and process carry the same body shape).
func desugarTimedEntry(name ast.Variable, body []ast.StatementOrTime, declared map[string]*ast.Circuit, resolved map[string]*Circuit) (*Process, []Warning, error) {
	scope := NewScope()

	var blocks []TimedBlock
	current := TimedBlock{Nanos: 0}

	for _, item := range body {
		switch it := item.(type) {
		case ast.TimeItem:
			blocks = append(blocks, current)
			switch t := it.Time.(type) {
			case ast.After:
				current = TimedBlock{Nanos: current.Nanos + t.Nanos}
			case ast.At:
				current = TimedBlock{Nanos: t.Nanos}
			}
		case ast.StmtItem:
			stmts, err := desugarStatement(it.Statement, declared, resolved, scope)
			if err != nil {
				return nil, nil, err
			}
			current.Body = append(current.Body, stmts...)
		}
	}
	blocks = append(blocks, current)

	warnings := endOfScopeWarnings(scope, false)
	if err := checkIntermediatesWritten(scope); err != nil {
		return nil, nil, err
	}

	return &Process{Name: name, TimedBlocks: blocks}, warnings, nil
}

func endOfScopeWarnings(scope *Scope, checkOutputs bool) []Warning {
	var warnings []Warning
	for _, ref := range scope.Variables() {
		if checkOutputs && ref.Type == VarOut && !ref.Written {
			warnings = append(warnings, &UnassignedOutput{Variable: ref.Variable, Spn: ref.Variable.Span})
		}
		if (ref.Type == VarIn || ref.Type == VarIntermediate) && !ref.Read {
			warnings = append(warnings, &UnusedVariable{Variable: ref.Variable, Spn: ref.Variable.Span})
		}
	}
	return warnings
}

func checkIntermediatesWritten(scope *Scope) error {
	for _, ref := range scope.Variables() {
		if ref.Type == VarIntermediate && !ref.Written {
			return &VariableNeverWritten{Variable: ref.Variable, Spn: ref.Variable.Span}
		}
	}
	return nil
}

func desugarStatement(stmt ast.Statement, declared map[string]*ast.Circuit, resolved map[string]*Circuit, scope *Scope) ([]Statement, error) {
	switch s := stmt.(type) {
	case ast.Assignment:
		into := make([]*VariableRef, 0, len(s.Into))
		for _, v := range s.Into {
			into = append(into, scope.LookupVariableWrite(v))
		}
		var res []Statement
		if err := desugarExpr(s.Expr, into, &res, declared, resolved, scope); err != nil {
			return nil, err
		}
		return res, nil

	case ast.Assert:
		ref := scope.DefineTempVariable()
		var res []Statement
		if err := desugarExpr(s.Expr, []*VariableRef{ref}, &res, declared, resolved, scope); err != nil {
			return nil, err
		}
		res = append(res, AssertStmt{Var: ref, Spn: s.Spn})
		return res, nil

	default:
		panic(fmt.Sprintf("unhandled statement type %T", stmt))
	}
}

// getFirst enforces the single-output arity every builtin and unary
// operator requires, reporting TooManyVariablesOnLHS if the caller's
// left-hand side named more than one variable.
func getFirst(into []*VariableRef) (*VariableRef, error) {
	if len(into) > 1 {
		spans := make([]source.Span, len(into))
		for i, ref := range into {
			spans[i] = ref.Variable.Span
		}
		return nil, &TooManyVariablesOnLHS{Spn: source.Merge(spans...)}
	}
	return into[0], nil
}

// desugarExpr flattens expr into zero or more three-address statements
// appended to res, with the final result landing in the variables named
// by into. Builtins and "not" require exactly one target; a circuit call
// may target as many variables as the circuit has outputs.
func desugarExpr(expr ast.Expr, into []*VariableRef, res *[]Statement, declared map[string]*ast.Circuit, resolved map[string]*Circuit, scope *Scope) error {
	switch e := expr.(type) {
	case ast.BinaryOp:
		aVar := scope.DefineTempVariable()
		bVar := scope.DefineTempVariable()
		if err := desugarExpr(e.A, []*VariableRef{aVar}, res, declared, resolved, scope); err != nil {
			return err
		}
		if err := desugarExpr(e.B, []*VariableRef{bVar}, res, declared, resolved, scope); err != nil {
			return err
		}
		target, err := getFirst(into)
		if err != nil {
			return err
		}
		*res = append(*res, BinaryStmt{Binary{Op: e.Action, A: aVar, B: bVar, Into: target}})
		return nil

	case ast.UnaryNot:
		inVar := scope.DefineTempVariable()
		if err := desugarExpr(e.Inner, []*VariableRef{inVar}, res, declared, resolved, scope); err != nil {
			return err
		}
		target, err := getFirst(into)
		if err != nil {
			return err
		}
		*res = append(*res, NotStmt{Input: inVar, Into: target})
		return nil

	case ast.Call:
		paramVars := make([]*VariableRef, 0, len(e.Args))
		for _, arg := range e.Args {
			v := scope.DefineTempVariable()
			if err := desugarExpr(arg, []*VariableRef{v}, res, declared, resolved, scope); err != nil {
				return err
			}
			paramVars = append(paramVars, v)
		}

		if _, ok := declared[e.Circuit.Name]; !ok {
			return &CircuitDoesntExist{Variable: e.Circuit, Spn: e.Circuit.Span}
		}
		circuit, ok := resolved[e.Circuit.Name]
		if !ok {
			return &forwardRef{name: e.Circuit.Name}
		}

		if len(paramVars) != len(circuit.Inputs) {
			return &CircuitCallArity{Circuit: e.Circuit, Want: len(circuit.Inputs), Got: len(paramVars), Spn: e.Spn}
		}
		if len(into) > len(circuit.Outputs) {
			return &TooManyVariablesOnLHS{Spn: e.Spn}
		}
		if len(into) < len(circuit.Outputs) {
			return &NotEnoughVariablesOnLHS{Spn: e.Spn}
		}

		*res = append(*res, CustomStmt{Circuit: circuit, Inputs: paramVars, Into: into})
		return nil

	case ast.AtomVariable:
		target, err := getFirst(into)
		if err != nil {
			return err
		}
		*res = append(*res, MoveStmt{Into: target, From: scope.LookupVariableRead(e.Variable)})
		return nil

	case ast.AtomConstant:
		target, err := getFirst(into)
		if err != nil {
			return err
		}
		*res = append(*res, SetStmt{Into: target, Value: e.Constant.Value})
		return nil

	case ast.AtomExpr:
		return desugarExpr(e.Inner, into, res, declared, resolved, scope)

	default:
		panic(fmt.Sprintf("unhandled expr type %T", expr))
	}
}
