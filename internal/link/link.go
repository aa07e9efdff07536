// Package link turns an elaborated process into the condition list the
// simulator actually runs on: each statement becomes either a one-shot
// "AtTime" trigger or a "WhenChanges" trigger on whichever operand
// variable(s) feed it, mirroring the way the teacher's own linker
// resolves symbolic statements into concrete fixups (lang/yld/linker.go)
// but targeting simulation triggers instead of relocations.
package link

import (
	"github.com/gmofishsauce/hithlain/internal/ast"
	"github.com/gmofishsauce/hithlain/internal/elaborate"
	"github.com/gmofishsauce/hithlain/internal/simtime"
)

// Condition is one entry in a process's trigger table.
type Condition interface {
	Statement() elaborate.Statement
	isCondition()
}

// AtTime fires its statement exactly once, at a fixed point in logical
// time, regardless of what else happens.
type AtTime struct {
	Time simtime.Instant
	Stmt elaborate.Statement
}

func (c AtTime) Statement() elaborate.Statement { return c.Stmt }
func (AtTime) isCondition()                     {}

// WhenChanges fires its statement every time Variable's stored value is
// updated, one delta cycle later.
type WhenChanges struct {
	Variable *elaborate.UniqueVariableRef
	Stmt     elaborate.Statement
}

func (c WhenChanges) Statement() elaborate.Statement { return c.Stmt }
func (WhenChanges) isCondition()                     {}

// Process is a runnable entry point reduced to its trigger table.
type Process struct {
	Name       ast.Variable
	Conditions []Condition
}

// Entry links one elaborated process.
func Entry(p *elaborate.Process) *Process {
	var conditions []Condition
	for _, block := range p.TimedBlocks {
		conditions = append(conditions, timedBlock(block)...)
	}
	return &Process{Name: p.Name, Conditions: conditions}
}

// timedBlock links one timed block: Set statements fire once at the
// block's own instant, Assert statements fire one process step later (so
// they observe the fully delta-settled result of that instant's Sets),
// and everything else becomes the usual WhenChanges triggers so later
// changes keep propagating.
func timedBlock(b elaborate.TimedBlock) []Condition {
	blockTime := simtime.Instant{Nanos: b.Nanos}

	var direct []Condition
	for _, stmt := range b.Body {
		switch s := stmt.(type) {
		case elaborate.SetStmt:
			direct = append(direct, AtTime{Time: blockTime, Stmt: s})
		case elaborate.AssertStmt:
			direct = append(direct, AtTime{Time: blockTime.AddProcessStep(), Stmt: s})
		}
	}

	return append(direct, statementList(b.Body, false)...)
}

// circuit links one instantiated circuit body: unlike a timed block, a
// circuit's Set statements always apply (at the start of simulated
// time), since a circuit has no notion of its own schedule — it's driven
// entirely by its inputs changing.
func circuit(c *elaborate.Circuit) []Condition {
	return statementList(c.Body, true)
}

// statementList converts every statement into its WhenChanges triggers,
// recursing into any nested circuit instance. doSets controls whether a
// bare Set produces a start-of-time AtTime trigger: true inside a
// circuit body, false inside a timed block (whose Sets were already
// handled directly by timedBlock at the block's own instant).
func statementList(stmts []elaborate.Statement, doSets bool) []Condition {
	var out []Condition
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case elaborate.NotStmt:
			out = append(out, WhenChanges{Variable: s.Input, Stmt: s})

		case elaborate.BinaryStmt:
			out = append(out, WhenChanges{Variable: s.A, Stmt: s})
			out = append(out, WhenChanges{Variable: s.B, Stmt: s})

		case elaborate.MoveStmt:
			out = append(out, WhenChanges{Variable: s.From, Stmt: s})

		case elaborate.SetStmt:
			if doSets {
				out = append(out, AtTime{Time: simtime.Start, Stmt: s})
			}

		case elaborate.CreateCircuitInstance:
			out = append(out, circuit(s.Circuit)...)

		case elaborate.AssertStmt:
			// only linked directly inside a timed block; an assert
			// inside a circuit body is dropped here and never runs.

		default:
			panic("unhandled elaborated statement type")
		}
	}
	return out
}
