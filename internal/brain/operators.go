package brain

import (
	"math"
	"sort"
)

// OperatorKind classifies an operator symbol.
type OperatorKind int

const (
	OpConstant OperatorKind = iota
	OpNullary
	OpUnary
	OpBinary
	OpEquals
)

func (k OperatorKind) String() string {
	switch k {
	case OpConstant:
		return "constant"
	case OpNullary:
		return "nullary"
	case OpUnary:
		return "unary"
	case OpBinary:
		return "binary"
	case OpEquals:
		return "equals"
	default:
		return "unknown"
	}
}

// Symbols used on the keypad. Square and subtract use the same code points
// as the original keypad; ASCII aliases are registered below.
const (
	SymbolPi         = "π"
	SymbolE          = "e"
	SymbolRand       = "rand"
	SymbolNegate     = "±"
	SymbolSquare     = "х²" // Cyrillic х
	SymbolReciprocal = "x⁻¹"
	SymbolSqrt       = "√"
	SymbolSin        = "sin"
	SymbolCos        = "cos"
	SymbolTan        = "tan"
	SymbolAsin       = "sin⁻¹"
	SymbolAcos       = "cos⁻¹"
	SymbolLog        = "log"
	SymbolLn         = "ln"
	SymbolAdd        = "+"
	SymbolSubtract   = "−" // minus sign
	SymbolMultiply   = "×"
	SymbolDivide     = "÷"
	SymbolPower      = "xʸ"
	SymbolModulo     = "%"
	SymbolEquals     = "="
)

// RandSource supplies uniform values in [0, 1). *math/rand/v2.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// operation is one entry of the operator table. Only the fields matching
// kind are set; the check functions may be nil.
type operation struct {
	kind OperatorKind

	value float64

	nullary     func(RandSource) float64
	nullaryText func() string

	unary      func(float64) float64
	unaryText  func(string) string
	unaryCheck func(float64) error

	binary      func(a, b float64) float64
	binaryText  func(a, b string) string
	binaryCheck func(a, b float64) error
}

func constant(v float64) operation {
	return operation{kind: OpConstant, value: v}
}

func nullary(f func(RandSource) float64, text func() string) operation {
	return operation{kind: OpNullary, nullary: f, nullaryText: text}
}

func unary(f func(float64) float64, text func(string) string, check func(float64) error) operation {
	return operation{kind: OpUnary, unary: f, unaryText: text, unaryCheck: check}
}

func binary(f func(a, b float64) float64, text func(a, b string) string, check func(a, b float64) error) operation {
	return operation{kind: OpBinary, binary: f, binaryText: text, binaryCheck: check}
}

func prefix(name string) func(string) string {
	return func(a string) string { return name + "(" + a + ")" }
}

func postfix(mark string) func(string) string {
	return func(a string) string { return "(" + a + ")" + mark }
}

func infix(mark string) func(a, b string) string {
	return func(a, b string) string { return a + mark + b }
}

func checkNonZero(err error) func(float64) error {
	return func(x float64) error {
		if x == 0 {
			return err
		}
		return nil
	}
}

func checkUnitInterval(x float64) error {
	if x < -1 || x > 1 {
		return ErrInverseTrigDomain
	}
	return nil
}

// operations is read-only after package initialisation.
var operations = map[string]operation{
	SymbolPi: constant(math.Pi),
	SymbolE:  constant(math.E),

	SymbolRand: nullary(
		func(r RandSource) float64 { return r.Float64() },
		func() string { return "rand()" },
	),

	SymbolNegate: unary(
		func(x float64) float64 { return -x },
		func(a string) string { return "-" + a },
		nil,
	),
	SymbolSquare:     unary(func(x float64) float64 { return x * x }, postfix("²"), nil),
	SymbolReciprocal: unary(func(x float64) float64 { return 1 / x }, postfix("⁻¹"), checkNonZero(ErrReciprocalOfZero)),
	SymbolSqrt: unary(math.Sqrt, prefix("√"), func(x float64) error {
		if x < 0 {
			return ErrNegativeSquareRoot
		}
		return nil
	}),
	SymbolSin:  unary(math.Sin, prefix("sin"), nil),
	SymbolCos:  unary(math.Cos, prefix("cos"), nil),
	SymbolTan:  unary(math.Tan, prefix("tan"), nil),
	SymbolAsin: unary(math.Asin, prefix("sin⁻¹"), checkUnitInterval),
	SymbolAcos: unary(math.Acos, prefix("cos⁻¹"), checkUnitInterval),
	SymbolLog:  unary(math.Log10, prefix("log"), nil),
	SymbolLn:   unary(math.Log, prefix("ln"), nil),

	SymbolAdd:      binary(func(a, b float64) float64 { return a + b }, infix("+"), nil),
	SymbolSubtract: binary(func(a, b float64) float64 { return a - b }, infix("-"), nil),
	SymbolMultiply: binary(func(a, b float64) float64 { return a * b }, infix("x"), nil),
	SymbolDivide: binary(func(a, b float64) float64 { return a / b }, infix("÷"), func(_, b float64) error {
		if b == 0 {
			return ErrDivisionByZero
		}
		return nil
	}),
	SymbolPower: binary(math.Pow, infix("^"), nil),
	// math.Mod truncates, so the remainder takes the sign of the dividend.
	SymbolModulo: binary(math.Mod, infix("%"), nil),

	SymbolEquals: {kind: OpEquals},
}

// aliases maps keyboard-friendly spellings onto canonical symbols.
var aliases = map[string]string{
	"x²":   SymbolSquare,
	"-":    SymbolSubtract,
	"*":    SymbolMultiply,
	"/":    SymbolDivide,
	"^":    SymbolPower,
	"sqrt": SymbolSqrt,
	"pi":   SymbolPi,
}

// lookup resolves aliases and returns the canonical symbol with its entry.
func lookup(symbol string) (string, operation, bool) {
	if canonical, ok := aliases[symbol]; ok {
		symbol = canonical
	}
	op, ok := operations[symbol]
	return symbol, op, ok
}

// Lookup reports the kind of the operator registered under symbol or one of
// its aliases.
func Lookup(symbol string) (OperatorKind, bool) {
	_, op, ok := lookup(symbol)
	if !ok {
		return 0, false
	}
	return op.kind, true
}

// IsOperator reports whether symbol names a known operator.
func IsOperator(symbol string) bool {
	_, _, ok := lookup(symbol)
	return ok
}

// Symbols returns the canonical operator symbols in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(operations))
	for s := range operations {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
