package sim

// Value is a single simulated bit. It's a distinct type rather than a
// bare bool so the gate operations below read as the truth table they
// implement, the same way the teacher's instruction set keeps opcode
// behavior as small named methods instead of inline expressions
// (emul/cpu.go's per-opcode methods).
type Value bool

func (v Value) Not() Value { return !v }

func (v Value) And(o Value) Value { return v && o }

func (v Value) Or(o Value) Value { return v || o }

func (v Value) Xor(o Value) Value { return v != o }
