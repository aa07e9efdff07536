// Package sim is the discrete-event simulator: it pops the
// earliest-scheduled statement off a time-ordered queue, executes it
// against a flat signal store, and pushes whatever it touched back onto
// the queue one delta cycle later for anything that reads it. The event
// loop itself follows the same pop/dispatch/reschedule shape as the
// teacher's own instruction-fetch loop (emul/cpu.go's Run), just ordered
// by simulated time instead of a program counter.
package sim

import (
	"container/heap"
	"fmt"

	"github.com/gmofishsauce/hithlain/internal/ast"
	"github.com/gmofishsauce/hithlain/internal/elaborate"
	"github.com/gmofishsauce/hithlain/internal/link"
	"github.com/gmofishsauce/hithlain/internal/simtime"
	"github.com/gmofishsauce/hithlain/internal/vcd"
	"github.com/gmofishsauce/hithlain/internal/vcdmodel"
)

// AssertionError reports a failed assert statement: the asserted
// variable held false when the simulator evaluated it.
type AssertionError struct {
	Var *elaborate.UniqueVariableRef
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s was false", e.Var.Name())
}

// signal is one scheduled statement execution.
type signal struct {
	Time   simtime.Instant
	Action elaborate.Statement
}

type signalQueue []signal

func (q signalQueue) Len() int            { return len(q) }
func (q signalQueue) Less(i, j int) bool  { return q[i].Time.Less(q[j].Time) }
func (q signalQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *signalQueue) Push(x interface{}) { *q = append(*q, x.(signal)) }
func (q *signalQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Simulation is one run of a single linked process: its own event
// queue, trigger table, and signal store, plus an optional live VCD
// generator.
type Simulation struct {
	pq          *signalQueue
	triggers    map[*elaborate.UniqueVariableRef][]elaborate.Statement
	store       map[*elaborate.UniqueVariableRef]bool
	vcdGen      *vcd.Generator
	config      *Config
	lastInstant simtime.Instant
}

// New builds a Simulation from a linked process's trigger table. AtTime
// conditions seed the event queue directly; WhenChanges conditions
// populate the trigger table consulted after every statement executes.
// vcdModule may be nil when cfg doesn't request VCD output.
func New(p *link.Process, cfg *Config, vcdModule *vcdmodel.Module) (*Simulation, error) {
	pq := &signalQueue{}
	heap.Init(pq)
	triggers := make(map[*elaborate.UniqueVariableRef][]elaborate.Statement)

	for _, c := range p.Conditions {
		switch cond := c.(type) {
		case link.AtTime:
			heap.Push(pq, signal{Time: cond.Time, Action: cond.Stmt})
		case link.WhenChanges:
			triggers[cond.Variable] = append(triggers[cond.Variable], cond.Stmt)
		default:
			panic("unhandled link condition type")
		}
	}

	var gen *vcd.Generator
	if cfg.CreateVCD {
		if vcdModule == nil {
			return nil, fmt.Errorf("VCD output requested but no module tree was built for %s", p.Name.Name)
		}
		g, err := vcd.New(cfg.VCDWriter, vcdModule, cfg.Stamp)
		if err != nil {
			return nil, err
		}
		gen = g
	}

	return &Simulation{
		pq:       pq,
		triggers: triggers,
		store:    make(map[*elaborate.UniqueVariableRef]bool),
		vcdGen:   gen,
		config:   cfg,
	}, nil
}

// Run drives the simulation to completion: repeated Step calls until the
// queue empties, a cutoff is hit, or a statement errors.
func (s *Simulation) Run() error {
	for {
		cont, err := s.Step()
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

// Step executes the single earliest-scheduled statement and reports
// whether the run should continue. Popping an event past the
// configured MaxNanos ends the run immediately rather than executing
// it, since everything still queued is no earlier in time.
func (s *Simulation) Step() (bool, error) {
	if s.pq.Len() == 0 {
		return false, s.finalize()
	}

	sig := heap.Pop(s.pq).(signal)
	if s.config.MaxNanos != nil && sig.Time.Nanos > *s.config.MaxNanos {
		return false, s.finalize()
	}

	modified, err := s.handleSignal(sig.Action)
	if err != nil {
		return false, err
	}
	if err := s.updateQueue(modified, sig.Time); err != nil {
		return false, err
	}
	s.lastInstant = sig.Time
	return true, nil
}

func (s *Simulation) getVar(v *elaborate.UniqueVariableRef) (Value, bool) {
	val, ok := s.store[v]
	return Value(val), ok
}

func (s *Simulation) setVar(v *elaborate.UniqueVariableRef, val Value) {
	s.store[v] = bool(val)
}

// handleSignal executes one statement against the signal store,
// returning the variables it modified. A read of a variable that has
// never been set yet (an input that hasn't settled) silently drops the
// event rather than erroring: it will fire again once that input does
// get a value.
func (s *Simulation) handleSignal(stmt elaborate.Statement) ([]*elaborate.UniqueVariableRef, error) {
	switch st := stmt.(type) {
	case elaborate.NotStmt:
		in, ok := s.getVar(st.Input)
		if !ok {
			return nil, nil
		}
		s.setVar(st.Into, in.Not())
		return []*elaborate.UniqueVariableRef{st.Into}, nil

	case elaborate.BinaryStmt:
		a, ok := s.getVar(st.A)
		if !ok {
			return nil, nil
		}
		b, ok := s.getVar(st.B)
		if !ok {
			return nil, nil
		}
		s.setVar(st.Into, evalBinary(st.Op, a, b))
		return []*elaborate.UniqueVariableRef{st.Into}, nil

	case elaborate.MoveStmt:
		v, ok := s.getVar(st.From)
		if !ok {
			return nil, nil
		}
		s.setVar(st.Into, v)
		return []*elaborate.UniqueVariableRef{st.Into}, nil

	case elaborate.SetStmt:
		s.setVar(st.Into, Value(st.Value))
		return []*elaborate.UniqueVariableRef{st.Into}, nil

	case elaborate.AssertStmt:
		v, ok := s.getVar(st.Var)
		if !ok {
			return nil, nil
		}
		if !bool(v) {
			return nil, &AssertionError{Var: st.Var}
		}
		return nil, nil

	default:
		panic(fmt.Sprintf("unhandled elaborated statement type %T", stmt))
	}
}

// evalBinary implements all six of spec.md's binary gates from the three
// base Value operations: collapsing Nand/Nor/Xnor to Not-of-their-base-op
// here, rather than giving each its own elaborated statement variant, is
// the one place the Go three-address form is flatter than the original's
// per-gate AST node.
func evalBinary(op ast.BinaryAction, a, b Value) Value {
	switch op {
	case ast.ActionAnd:
		return a.And(b)
	case ast.ActionOr:
		return a.Or(b)
	case ast.ActionXor:
		return a.Xor(b)
	case ast.ActionNand:
		return a.And(b).Not()
	case ast.ActionNor:
		return a.Or(b).Not()
	case ast.ActionXnor:
		return a.Xor(b).Not()
	default:
		panic(fmt.Sprintf("unhandled binary action %v", op))
	}
}

// updateQueue records each modified variable's new value in the VCD
// trace (if any) and schedules every statement that reads it to run one
// delta cycle later.
func (s *Simulation) updateQueue(modified []*elaborate.UniqueVariableRef, t simtime.Instant) error {
	for _, v := range modified {
		if s.vcdGen != nil {
			val, ok := s.getVar(v)
			if ok {
				if err := s.vcdGen.UpdateWire(v, bool(val), t); err != nil {
					return err
				}
			}
		}
		for _, stmt := range s.triggers[v] {
			heap.Push(s.pq, signal{Time: t.AddDelta(), Action: stmt})
		}
	}
	return nil
}

func (s *Simulation) finalize() error {
	if s.vcdGen == nil {
		return nil
	}
	return s.vcdGen.Finalize(s.lastInstant, s.config.Overshoot)
}
