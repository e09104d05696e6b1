package session

import (
	"sync"
	"time"

	"calculator-brain/internal/brain"
)

// Session is one calculator: its instruction log and the variable bindings
// ("memory") it is evaluated against. Methods are safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	program  brain.Program
	vars     map[string]float64
	lastUsed time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		vars:      make(map[string]float64),
		lastUsed:  now,
	}
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.lastUsed = time.Now()
}

func (s *Session) PushNumber(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.program.PushNumber(v)
}

func (s *Session) PushVariable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.program.PushVariable(name)
}

func (s *Session) PushOperator(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.program.PushOperator(symbol)
}

func (s *Session) UndoLast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.program.UndoLast()
}

// Clear resets the program and forgets all variable bindings.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.program.Clear()
	s.vars = make(map[string]float64)
}

// SetVariable binds name to v for subsequent evaluations.
func (s *Session) SetVariable(name string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.vars[name] = v
}

// Variables returns a copy of the current bindings.
func (s *Session) Variables() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyVars()
}

func (s *Session) copyVars() map[string]float64 {
	out := make(map[string]float64, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Len reports the number of instructions in the session's program.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program.Len()
}

// Evaluate replays the program against the session's bindings.
func (s *Session) Evaluate(e *brain.Evaluator) brain.Outcome {
	program, vars := s.snapshot()
	return e.Evaluate(program, vars)
}

// Plot samples the program as a function of brain.PlotVariable. The
// returned outcome is the evaluation with the session's own bindings.
func (s *Session) Plot(e *brain.Evaluator, from, to, step float64) (brain.Outcome, []brain.Point, error) {
	program, vars := s.snapshot()
	out := e.Evaluate(program, vars)

	points, err := brain.Sample(e.Func(program, vars, brain.PlotVariable), from, to, step)
	if err != nil {
		return out, nil, err
	}
	return out, points, nil
}

func (s *Session) snapshot() ([]brain.Instruction, map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.program.Snapshot(), s.copyVars()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}
