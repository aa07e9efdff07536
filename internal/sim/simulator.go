package sim

import (
	"fmt"

	"github.com/gmofishsauce/hithlain/internal/desugar"
	"github.com/gmofishsauce/hithlain/internal/elaborate"
	"github.com/gmofishsauce/hithlain/internal/link"
	"github.com/gmofishsauce/hithlain/internal/vcdmodel"
)

// Simulator ties the compilation pipeline together for a whole program:
// elaborate, link, and simulate whichever entry points are asked for.
type Simulator struct {
	Program *desugar.Program
	Config  *Config
}

// NewSimulator builds a Simulator over an already-desugared program.
func NewSimulator(p *desugar.Program, cfg *Config) *Simulator {
	return &Simulator{Program: p, Config: cfg}
}

func (s *Simulator) findEntry(name string) (*desugar.Process, bool) {
	for _, p := range s.Program.Processes {
		if p.Name.Name == name {
			return p, true
		}
	}
	return nil, false
}

// RunOne runs a single named test or process and returns as soon as it
// fails or finishes: the CLI's "simulate" and single-name "test" modes
// (spec.md §5).
func (s *Simulator) RunOne(name string) error {
	proc, ok := s.findEntry(name)
	if !ok {
		return fmt.Errorf("no test or process named %q", name)
	}
	return s.execute(proc)
}

// EntryResult is one entry point's outcome from a RunAll batch.
type EntryResult struct {
	Name string
	Err  error
}

// RunAll runs every test and process in the program, continuing past
// individual failures so a single bad assertion doesn't hide every
// other result — the bare "test" CLI mode runs the whole suite and
// reports a summary rather than stopping at the first failure
// (spec.md §5, resolving an Open Question left unspecified there).
func (s *Simulator) RunAll() []EntryResult {
	var results []EntryResult
	for _, p := range s.Program.Processes {
		results = append(results, EntryResult{Name: p.Name.Name, Err: s.execute(p)})
	}
	return results
}

func (s *Simulator) execute(proc *desugar.Process) error {
	elaborated, err := elaborate.Entry(proc)
	if err != nil {
		return err
	}

	var module *vcdmodel.Module
	if s.Config.CreateVCD {
		module = vcdmodel.Build(elaborated)
	}

	linked := link.Entry(elaborated)

	simulation, err := New(linked, s.Config, module)
	if err != nil {
		return err
	}
	return simulation.Run()
}
