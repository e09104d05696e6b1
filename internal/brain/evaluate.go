package brain

import (
	"math/rand/v2"
)

// Outcome is the result of replaying a program.
type Outcome struct {
	// Result is only meaningful when HasResult is set.
	Result          float64
	HasResult       bool
	ResultIsPending bool
	Description     string
	// Err is the last domain error hit during the replay, if any.
	Err error
}

// Evaluator replays programs against the operator table. It keeps no state
// between calls apart from its random source.
type Evaluator struct {
	rand RandSource
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRand sets the source drawn from by the rand operator.
func WithRand(src RandSource) Option {
	return func(e *Evaluator) {
		e.rand = src
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = globalRand{}
	}
	return e
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

var defaultEvaluator = NewEvaluator()

// Evaluate replays program with the default evaluator.
func Evaluate(program []Instruction, bindings map[string]float64) Outcome {
	return defaultEvaluator.Evaluate(program, bindings)
}

// accumulator is the running value and the text that produced it.
type accumulator struct {
	value float64
	text  string
}

// pendingOp is a binary operator waiting for its second operand.
type pendingOp struct {
	op    operation
	first accumulator
}

// run holds the transient state of a single replay.
type run struct {
	acc     *accumulator
	pending *pendingOp
	err     error
}

func (s *run) set(value float64, text string) {
	s.acc = &accumulator{value: value, text: text}
}

func (s *run) record(err error) {
	if err != nil {
		s.err = err
	}
}

// resolve combines the pending operation with the accumulator. Both must be
// present, otherwise nothing happens.
func (s *run) resolve() {
	if s.pending == nil || s.acc == nil {
		return
	}
	p := s.pending
	if p.op.binaryCheck != nil {
		s.record(p.op.binaryCheck(p.first.value, s.acc.value))
	}
	s.set(p.op.binary(p.first.value, s.acc.value), p.op.binaryText(p.first.text, s.acc.text))
	s.pending = nil
}

// Evaluate replays program from scratch, left to right, resolving binary
// operators once their second operand is known. Variables missing from
// bindings read as zero and unknown operator symbols are ignored.
func (e *Evaluator) Evaluate(program []Instruction, bindings map[string]float64) Outcome {
	if len(program) == 0 {
		return Outcome{}
	}

	var s run
	for _, in := range program {
		switch in.Kind {
		case KindNumber:
			s.set(in.Value, FormatNumber(in.Value))
		case KindVariable:
			s.set(bindings[in.Name], in.Name)
		case KindOperator:
			e.apply(&s, in.Name)
		}
	}

	out := Outcome{
		ResultIsPending: s.pending != nil,
		Err:             s.err,
	}
	if s.acc != nil {
		out.Result = s.acc.value
		out.HasResult = true
	}
	switch {
	case s.pending != nil:
		second := ""
		if s.acc != nil {
			second = s.acc.text
		}
		out.Description = s.pending.op.binaryText(s.pending.first.text, second)
	case s.acc != nil:
		out.Description = s.acc.text
	}
	return out
}

func (e *Evaluator) apply(s *run, symbol string) {
	name, op, ok := lookup(symbol)
	if !ok {
		return
	}

	switch op.kind {
	case OpConstant:
		s.set(op.value, name)
	case OpNullary:
		s.set(op.nullary(e.rand), op.nullaryText())
	case OpUnary:
		if s.acc == nil {
			return
		}
		if op.unaryCheck != nil {
			s.record(op.unaryCheck(s.acc.value))
		}
		s.set(op.unary(s.acc.value), op.unaryText(s.acc.text))
	case OpBinary:
		if s.acc == nil {
			return
		}
		s.resolve()
		s.pending = &pendingOp{op: op, first: *s.acc}
		s.acc = nil
	case OpEquals:
		s.resolve()
	}
}
