// Package brain holds the calculator core: an append-only instruction log and
// an evaluator that replays it into a result and a textual description.
package brain

// InstructionKind tags the variant held by an Instruction.
type InstructionKind int

const (
	KindNumber InstructionKind = iota
	KindVariable
	KindOperator
)

func (k InstructionKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindVariable:
		return "variable"
	case KindOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// Instruction is one entry of a Program. Value is set for numbers, Name holds
// the variable name or the operator symbol.
type Instruction struct {
	Kind  InstructionKind
	Value float64
	Name  string
}

// Number returns an instruction pushing a numeric literal.
func Number(v float64) Instruction {
	return Instruction{Kind: KindNumber, Value: v}
}

// Variable returns an instruction pushing a named variable.
func Variable(name string) Instruction {
	return Instruction{Kind: KindVariable, Name: name}
}

// Operator returns an instruction applying the operator with the given symbol.
func Operator(symbol string) Instruction {
	return Instruction{Kind: KindOperator, Name: symbol}
}

// Program is the instruction log. Instructions are only ever appended or
// removed from the tail. The zero value is an empty program.
type Program struct {
	instructions []Instruction
}

func (p *Program) PushNumber(v float64) {
	p.instructions = append(p.instructions, Number(v))
}

func (p *Program) PushVariable(name string) {
	p.instructions = append(p.instructions, Variable(name))
}

func (p *Program) PushOperator(symbol string) {
	p.instructions = append(p.instructions, Operator(symbol))
}

// UndoLast drops the most recent instruction. It does nothing on an empty log.
func (p *Program) UndoLast() {
	if len(p.instructions) == 0 {
		return
	}
	p.instructions = p.instructions[:len(p.instructions)-1]
}

// Clear empties the log.
func (p *Program) Clear() {
	p.instructions = nil
}

// Len reports the number of instructions in the log.
func (p *Program) Len() int {
	return len(p.instructions)
}

// Snapshot returns a copy of the instructions in entry order.
func (p *Program) Snapshot() []Instruction {
	out := make([]Instruction, len(p.instructions))
	copy(out, p.instructions)
	return out
}
