package brain

import (
	"errors"
	"fmt"
	"math"
)

// PlotVariable is the variable bound to x when a program is plotted.
const PlotVariable = "M"

// MaxSamples bounds the number of points Sample will produce.
const MaxSamples = 10000

var ErrInvalidRange = errors.New("invalid sample range")

// Func returns f(x), which evaluates program with variable bound to x on top
// of bindings. The second return value is false when the program leaves no
// result; non-finite results are still returned. bindings is copied, and the
// returned function must not be called concurrently.
func (e *Evaluator) Func(program []Instruction, bindings map[string]float64, variable string) func(x float64) (float64, bool) {
	vars := make(map[string]float64, len(bindings)+1)
	for k, v := range bindings {
		vars[k] = v
	}
	program = append([]Instruction(nil), program...)

	return func(x float64) (float64, bool) {
		vars[variable] = x
		out := e.Evaluate(program, vars)
		return out.Result, out.HasResult
	}
}

// Point is one sample of a plotted function.
type Point struct {
	X float64
	Y float64
}

// Sample evaluates f at from, from+step, ... up to and including to, and
// returns the points where f has a result.
func Sample(f func(float64) (float64, bool), from, to, step float64) ([]Point, error) {
	for _, v := range []float64{from, to, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite bound", ErrInvalidRange)
		}
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %g", ErrInvalidRange, step)
	}
	if to < from {
		return nil, fmt.Errorf("%w: from %g is after to %g", ErrInvalidRange, from, to)
	}
	n := math.Floor((to-from)/step) + 1
	if n > MaxSamples {
		return nil, fmt.Errorf("%w: %g samples exceeds limit of %d", ErrInvalidRange, n, MaxSamples)
	}

	points := make([]Point, 0, int(n))
	for i := 0; i < int(n); i++ {
		// Multiply rather than accumulate so rounding error does not drift.
		x := from + float64(i)*step
		if y, ok := f(x); ok {
			points = append(points, Point{X: x, Y: y})
		}
	}
	return points, nil
}
