// Package vcd hand-rolls a Value Change Dump writer. No VCD library turned
// up anywhere in the example pack, so this follows the same bufio.Writer
// line-oriented emission style the teacher uses for its own assembler
// output (yasm/emit.go) rather than reaching for something unvetted.
package vcd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/gmofishsauce/hithlain/internal/elaborate"
	"github.com/gmofishsauce/hithlain/internal/simtime"
	"github.com/gmofishsauce/hithlain/internal/vcdmodel"
)

// Generator writes a single VCD trace incrementally as the simulator
// drives signal changes into it.
type Generator struct {
	w   *bufio.Writer
	ids map[*elaborate.UniqueVariableRef]string
}

// New writes the VCD header and the full $scope tree for top, then
// returns a Generator ready to receive wire updates. stamp is written
// verbatim as the $date field; callers that want reproducible output
// (tests, golden files) should pass a fixed string rather than a
// wall-clock timestamp.
func New(w io.Writer, top *vcdmodel.Module, stamp string) (*Generator, error) {
	bw := bufio.NewWriter(w)
	g := &Generator{w: bw, ids: make(map[*elaborate.UniqueVariableRef]string)}

	lines := []string{
		"$version Generated by the hithlain simulator $end\n",
		fmt.Sprintf("$date %s $end\n", stamp),
		"$timescale 1 ns $end\n",
	}
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return nil, err
		}
	}

	nextID := 0
	var writeModule func(m *vcdmodel.Module, top bool) error
	writeModule = func(m *vcdmodel.Module, top bool) error {
		name := m.Name.Name
		if top {
			name = "TOP"
		}
		if _, err := fmt.Fprintf(bw, "$scope module %s $end\n", name); err != nil {
			return err
		}
		for _, v := range m.Variables {
			id := identifierFor(nextID)
			nextID++
			g.ids[v] = id
			if _, err := fmt.Fprintf(bw, "$var wire 1 %s %s $end\n", id, v.Variable.Name); err != nil {
				return err
			}
		}
		for _, sub := range m.Submodules {
			if err := writeModule(sub, false); err != nil {
				return err
			}
		}
		_, err := bw.WriteString("$upscope $end\n")
		return err
	}

	if err := writeModule(top, true); err != nil {
		return nil, err
	}
	if _, err := bw.WriteString("$enddefinitions $end\n"); err != nil {
		return nil, err
	}

	return g, nil
}

// UpdateWire records a value change at time t. A variable that was never
// declared in the module tree (such as a generated temporary, which
// vcdmodel.Build leaves out) is silently ignored rather than treated as
// an error.
func (g *Generator) UpdateWire(v *elaborate.UniqueVariableRef, value bool, t simtime.Instant) error {
	id, ok := g.ids[v]
	if !ok {
		return nil
	}
	bit := byte('0')
	if value {
		bit = '1'
	}
	_, err := fmt.Fprintf(g.w, "#%d\n%c%s\n", t.Nanos, bit, id)
	return err
}

// Finalize emits one last timestamp at last+overshoot so waveform
// viewers show a settled final edge, then flushes the underlying writer.
func (g *Generator) Finalize(last simtime.Instant, overshoot simtime.Duration) error {
	if _, err := fmt.Fprintf(g.w, "#%d\n", last.Nanos+overshoot.Nanos); err != nil {
		return err
	}
	return g.w.Flush()
}

// identifierFor generates the compact printable-ASCII identifiers VCD
// readers expect, counting up through '!'..'~' (33..126) the same way a
// base-94 number would, least significant digit first.
func identifierFor(n int) string {
	const first, last = 33, 126
	const base = last - first + 1

	var out []byte
	for {
		out = append(out, byte(first+n%base))
		n /= base
		if n == 0 {
			break
		}
		n--
	}
	return string(out)
}
