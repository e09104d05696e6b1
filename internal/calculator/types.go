package calculator

import (
	"errors"
	"math"

	"calculator-brain/internal/brain"
)

// NumberRequest is the JSON body for POST /calculator/sessions/{id}/numbers
// and PUT /calculator/sessions/{id}/variables/{name}.
type NumberRequest struct {
	Value *float64 `json:"value"`
}

// VariableRequest is the JSON body for POST /calculator/sessions/{id}/variables.
type VariableRequest struct {
	Name string `json:"name"`
}

// OperatorRequest is the JSON body for POST /calculator/sessions/{id}/operators.
type OperatorRequest struct {
	Symbol string `json:"symbol"`
}

// Instruction is the wire form of one program entry. Exactly one field is set.
type Instruction struct {
	Number   *float64 `json:"number,omitempty"`
	Variable string   `json:"variable,omitempty"`
	Operator string   `json:"operator,omitempty"`
}

var errAmbiguousInstruction = errors.New("instruction must set exactly one of number, variable, operator")

func (in Instruction) toBrain() (brain.Instruction, error) {
	set := 0
	if in.Number != nil {
		set++
	}
	if in.Variable != "" {
		set++
	}
	if in.Operator != "" {
		set++
	}
	if set != 1 {
		return brain.Instruction{}, errAmbiguousInstruction
	}

	switch {
	case in.Number != nil:
		return brain.Number(*in.Number), nil
	case in.Variable != "":
		return brain.Variable(in.Variable), nil
	default:
		return brain.Operator(in.Operator), nil
	}
}

// EvaluateRequest is the JSON body for POST /calculator/evaluate.
type EvaluateRequest struct {
	Program   []Instruction      `json:"program"`
	Variables map[string]float64 `json:"variables"`
}

// OutcomeResponse is the JSON response for every endpoint that evaluates a
// program. Result is null when there is no result or it is not finite;
// Display always carries the formatted value.
type OutcomeResponse struct {
	SessionID       string             `json:"session_id,omitempty"`
	Result          *float64           `json:"result"`
	Display         string             `json:"display"`
	ResultIsPending bool               `json:"result_is_pending"`
	Description     string             `json:"description"`
	Error           string             `json:"error,omitempty"`
	Variables       map[string]float64 `json:"variables,omitempty"`
}

func newOutcomeResponse(sessionID string, out brain.Outcome, vars map[string]float64) OutcomeResponse {
	resp := OutcomeResponse{
		SessionID:       sessionID,
		ResultIsPending: out.ResultIsPending,
		Description:     out.Description,
		Variables:       vars,
	}
	if out.HasResult {
		resp.Display = brain.FormatNumber(out.Result)
		if isFinite(out.Result) {
			v := out.Result
			resp.Result = &v
		}
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}

// PlotPoint is one sampled (x, y) pair.
type PlotPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlotResponse is the JSON response for GET /calculator/sessions/{id}/plot.
// Samples that are undefined or not finite are counted in Skipped.
type PlotResponse struct {
	SessionID   string      `json:"session_id"`
	Description string      `json:"description"`
	Variable    string      `json:"variable"`
	Points      []PlotPoint `json:"points"`
	Skipped     int         `json:"skipped"`
}

// OperatorInfo describes one supported operator symbol.
type OperatorInfo struct {
	Symbol string `json:"symbol"`
	Kind   string `json:"kind"`
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
