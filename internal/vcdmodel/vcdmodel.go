// Package vcdmodel builds the module/scope tree the VCD writer needs out
// of an elaborated process: one $scope per circuit instance, holding the
// wires that actually belong to it. This walks the same elaborated
// statement shapes the linker does, the way the teacher's own tools
// often have a second small pass over the same IR for a different
// purpose (lang/yld/linker.go's layout pass alongside its symbol pass).
package vcdmodel

import (
	"sort"

	"github.com/gmofishsauce/hithlain/internal/ast"
	"github.com/gmofishsauce/hithlain/internal/elaborate"
)

// Module is one $scope in the eventual VCD output.
type Module struct {
	Name       ast.Variable
	Variables  []*elaborate.UniqueVariableRef
	Submodules []*Module
}

// Build walks an elaborated process into its module tree. A variable is
// included in the process's own top-level scope only if it isn't a
// generated temporary and belongs directly to the process (path length
// one) rather than to some inlined circuit instance, which gets its own
// nested scope instead (spec.md §4.7).
func Build(p *elaborate.Process) *Module {
	vars := make(map[*elaborate.UniqueVariableRef]struct{})
	var submodules []*Module

	for _, block := range p.TimedBlocks {
		for _, stmt := range block.Body {
			walkStatement(stmt, vars, &submodules)
		}
	}

	var own []*elaborate.UniqueVariableRef
	for v := range vars {
		if v.Generated || len(v.Path) != 1 {
			continue
		}
		own = append(own, v)
	}
	sortByIdentifier(own)

	return &Module{Name: p.Name, Variables: own, Submodules: submodules}
}

func buildCircuit(c *elaborate.Circuit) *Module {
	vars := make(map[*elaborate.UniqueVariableRef]struct{})
	var submodules []*Module

	for _, stmt := range c.Body {
		walkStatement(stmt, vars, &submodules)
	}

	var own []*elaborate.UniqueVariableRef
	for v := range vars {
		if v.Generated {
			continue
		}
		if len(v.Path) == 0 || v.Path[len(v.Path)-1] != c.Name.Name {
			continue
		}
		own = append(own, v)
	}
	sortByIdentifier(own)

	return &Module{Name: c.Name, Variables: own, Submodules: submodules}
}

func walkStatement(stmt elaborate.Statement, vars map[*elaborate.UniqueVariableRef]struct{}, submodules *[]*Module) {
	switch s := stmt.(type) {
	case elaborate.AssertStmt:
		vars[s.Var] = struct{}{}
	case elaborate.NotStmt:
		vars[s.Input] = struct{}{}
		vars[s.Into] = struct{}{}
	case elaborate.BinaryStmt:
		vars[s.A] = struct{}{}
		vars[s.B] = struct{}{}
		vars[s.Into] = struct{}{}
	case elaborate.MoveStmt:
		vars[s.Into] = struct{}{}
		vars[s.From] = struct{}{}
	case elaborate.SetStmt:
		vars[s.Into] = struct{}{}
	case elaborate.CreateCircuitInstance:
		*submodules = append(*submodules, buildCircuit(s.Circuit))
	default:
		panic("unhandled elaborated statement type")
	}
}

func sortByIdentifier(vars []*elaborate.UniqueVariableRef) {
	sort.Slice(vars, func(i, j int) bool { return vars[i].Identifier < vars[j].Identifier })
}
