package brain

import "errors"

// Domain errors reported by operator validators. None of them stop the
// arithmetic; they only travel in Outcome.Err.
var (
	ErrDivisionByZero     = errors.New("division by zero")
	ErrReciprocalOfZero   = errors.New("reciprocal of zero")
	ErrNegativeSquareRoot = errors.New("square root of negative number")
	ErrInverseTrigDomain  = errors.New("argument outside [-1, 1]")
)
