package desugar

import (
	"fmt"

	"github.com/gmofishsauce/hithlain/internal/ast"
	"github.com/gmofishsauce/hithlain/internal/source"
)

// Scope tracks the variable namespace of a single circuit or process body
// during desugaring, mirroring the teacher's habit of a small stateful
// helper type per analysis pass (lang/ysem/analyzer.go's Analyzer).
type Scope struct {
	variables map[string]*VariableRef
	temps     int
}

func NewScope() *Scope {
	return &Scope{variables: make(map[string]*VariableRef)}
}

// Variables returns every ref defined in this scope, for the
// end-of-scope unused/unassigned sweep. Order is unspecified.
func (s *Scope) Variables() []*VariableRef {
	out := make([]*VariableRef, 0, len(s.variables))
	for _, v := range s.variables {
		out = append(out, v)
	}
	return out
}

// DefineVariable introduces a brand new named variable of the given
// type, failing if the name is already defined in this scope.
func (s *Scope) DefineVariable(v ast.Variable, t VariableType) (*VariableRef, error) {
	if existing, ok := s.variables[v.Name]; ok {
		return nil, &DuplicateDefinition{Variable: v, Prev: existing.Variable.Span, Def: v.Span}
	}
	ref := &VariableRef{Variable: v, Type: t}
	s.variables[v.Name] = ref
	return ref, nil
}

// DefineTempVariable allocates a fresh, uniquely-named temporary, the
// Go equivalent of three-address-code register allocation.
func (s *Scope) DefineTempVariable() *VariableRef {
	name := ast.Variable{Name: fmt.Sprintf("tmp_%d", s.temps)}
	s.temps++
	ref := &VariableRef{Variable: name, Type: VarTemp}
	s.variables[name.Name] = ref
	return ref
}

// LookupVariableRead resolves a read reference, implicitly declaring an
// Intermediate variable if it's the first mention (spec.md §4.3: a
// variable's first appearance, in either read or write position,
// determines its existence).
func (s *Scope) LookupVariableRead(v ast.Variable) *VariableRef {
	ref, ok := s.variables[v.Name]
	if !ok {
		ref = &VariableRef{Variable: v, Type: VarIntermediate}
		s.variables[v.Name] = ref
	}
	ref.Read = true
	return ref
}

// LookupVariableWrite resolves a write reference, implicitly declaring
// an Intermediate variable if it's the first mention.
func (s *Scope) LookupVariableWrite(v ast.Variable) *VariableRef {
	ref, ok := s.variables[v.Name]
	if !ok {
		ref = &VariableRef{Variable: v, Type: VarIntermediate}
		s.variables[v.Name] = ref
	}
	ref.Written = true
	return ref
}

// DuplicateDefinition reports redefining an already-defined input,
// output, or named variable within the same scope.
type DuplicateDefinition struct {
	Variable   ast.Variable
	Prev, Def  source.Span
}

func (e *DuplicateDefinition) Error() string {
	return fmt.Sprintf("duplicate definition of variable %s", e.Variable.Name)
}

func (e *DuplicateDefinition) Span() source.Span { return e.Def }
