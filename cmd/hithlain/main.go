// Command hithlain compiles and simulates Hithlain hardware description
// source files. Subcommands follow the teacher's own CLI tools
// (asm/main.go, os/mkbootimg/main.go): a flag.FlagSet per subcommand,
// errors printed to stderr, distinct exit codes for usage vs. runtime
// failure vs. a failed assertion.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gmofishsauce/hithlain/internal/desugar"
	"github.com/gmofishsauce/hithlain/internal/parser"
	"github.com/gmofishsauce/hithlain/internal/sim"
	"github.com/gmofishsauce/hithlain/internal/simtime"
	"github.com/gmofishsauce/hithlain/internal/source"
	"github.com/gmofishsauce/hithlain/internal/token"
)

const usage = `usage: hithlain <file> <command> [args]

commands:
  simulate -entry NAME [-output FILE] [-time DURATION] [-overshoot DURATION]
      run one entry point and write a VCD trace
  test [-time DURATION] [NAME]
      run NAME, or every test in the file if NAME is omitted
  transpile
      not implemented
`

func main() {
	os.Exit(submain(os.Args[1:]))
}

// Exit codes: 0 success, 1 bad usage, 2 compile or simulation error,
// 3 a test assertion failed.
func submain(args []string) int {
	if len(args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}

	filename, command, rest := args[0], args[1], args[2:]

	text, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hithlain: %v\n", err)
		return 2
	}

	program, err := compile(filename, string(text))
	if err != nil {
		reportError(err)
		return 2
	}

	switch command {
	case "simulate", "sim", "s":
		return runSimulate(program, rest)
	case "test", "t":
		return runTest(program, rest)
	case "transpile":
		return runTranspile(rest)
	default:
		fmt.Fprintf(os.Stderr, "hithlain: unknown command %q\n\n%s", command, usage)
		return 1
	}
}

func compile(filename, text string) (*desugar.Program, error) {
	toks, err := token.Lex(source.New(filename, text))
	if err != nil {
		return nil, err
	}
	parsed, err := parser.New(toks).ParseProgram()
	if err != nil {
		return nil, err
	}
	desugared, warnings, err := desugar.Program(parsed)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "hithlain: warning: %s\n", w.Error())
	}
	return desugared, nil
}

func runSimulate(program *desugar.Program, args []string) int {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	entry := fs.String("entry", "", "test or process to run (required)")
	output := fs.String("output", "output.vcd", "file to write the VCD trace to, or - for stdout")
	fs.StringVar(output, "o", "output.vcd", "shorthand for -output")
	timeLimit := fs.String("time", "", "stop after this much simulated time (e.g. 500ns); empty runs to completion")
	overshoot := fs.String("overshoot", "10ns", "time buffer appended to the end of the generated VCD")
	stamp := fs.String("stamp", "", "override the VCD $date field; defaults to the current time, for reproducible output in tests")
	fs.Parse(args)

	if *entry == "" {
		fmt.Fprintln(os.Stderr, "hithlain: simulate requires -entry")
		return 1
	}

	overshootDur, err := parseDuration(*overshoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hithlain: -overshoot: %v\n", err)
		return 1
	}

	opts := []sim.Option{sim.WithOvershoot(overshootDur)}
	if *timeLimit != "" {
		limit, err := parseDuration(*timeLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hithlain: -time: %v\n", err)
			return 1
		}
		opts = append(opts, sim.WithMaxNanos(limit.Nanos))
	}

	out, closeFn, err := openOutput(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hithlain: %v\n", err)
		return 2
	}
	defer closeFn()

	opts = append(opts, sim.WithVCD(out), sim.WithStamp(vcdStamp(*stamp)))
	simulator := sim.NewSimulator(program, sim.NewConfig(opts...))

	if err := simulator.RunOne(*entry); err != nil {
		reportError(err)
		return exitCodeFor(err)
	}
	fmt.Printf("hithlain: %s passed\n", *entry)
	return 0
}

func runTest(program *desugar.Program, args []string) int {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	timeLimit := fs.String("time", "", "stop each test after this much simulated time (e.g. 500ns)")
	fs.Parse(args)

	var opts []sim.Option
	if *timeLimit != "" {
		limit, err := parseDuration(*timeLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hithlain: -time: %v\n", err)
			return 1
		}
		opts = append(opts, sim.WithMaxNanos(limit.Nanos))
	}

	simulator := sim.NewSimulator(program, sim.NewConfig(opts...))

	if name := fs.Arg(0); name != "" {
		if err := simulator.RunOne(name); err != nil {
			reportError(err)
			return exitCodeFor(err)
		}
		fmt.Printf("hithlain: %s passed\n", name)
		return 0
	}

	results := simulator.RunAll()
	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Printf("hithlain: %s FAILED: %v\n", r.Name, r.Err)
		} else {
			fmt.Printf("hithlain: %s passed\n", r.Name)
		}
	}
	if failures > 0 {
		fmt.Printf("hithlain: %d/%d tests failed\n", failures, len(results))
		return 3
	}
	fmt.Printf("hithlain: %d tests passed\n", len(results))
	return 0
}

// runTranspile mirrors the original CLI's subcommand, whose match arm
// was always empty: VHDL/Verilog output was never implemented there
// either, so there's nothing here to port.
func runTranspile(args []string) int {
	fmt.Fprintln(os.Stderr, "hithlain: transpile is not implemented")
	return 1
}

func exitCodeFor(err error) int {
	var assertErr *sim.AssertionError
	if errors.As(err, &assertErr) {
		return 3
	}
	return 2
}

func openOutput(path string) (out *os.File, closeFn func(), err error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// vcdStamp gives the VCD $date field its value: the current time, unless
// override is set. Calling time.Now() here, at the CLI boundary, rather
// than inside internal/vcd or internal/sim, keeps the simulator itself
// deterministic — tests construct a sim.Config with a fixed Stamp
// directly and never go through this function.
func vcdStamp(override string) string {
	if override != "" {
		return override
	}
	return time.Now().Format("2006-01-02 15:04:05")
}

type spanner interface {
	Span() source.Span
}

func reportError(err error) {
	var s spanner
	if errors.As(err, &s) {
		fmt.Fprintf(os.Stderr, "hithlain: %v\n  at %s\n", err, s.Span().Describe())
		return
	}
	fmt.Fprintf(os.Stderr, "hithlain: %v\n", err)
}

// parseDuration accepts a non-negative integer followed by one of the
// time units spec.md's surface syntax uses for delays (ns, us, ms, s).
func parseDuration(s string) (simtime.Duration, error) {
	units := []struct {
		suffix string
		scale  uint64
	}{
		{"ns", 1},
		{"us", 1_000},
		{"ms", 1_000_000},
		{"s", 1_000_000_000},
	}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			n, err := strconv.ParseUint(strings.TrimSuffix(s, u.suffix), 10, 64)
			if err != nil {
				return simtime.Duration{}, fmt.Errorf("invalid duration %q", s)
			}
			return simtime.FromNanos(n * u.scale), nil
		}
	}
	return simtime.Duration{}, fmt.Errorf("invalid duration %q: expected a number followed by ns, us, ms, or s", s)
}
