package calculator

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"calculator-brain/internal/brain"
	"calculator-brain/internal/observability"
	"calculator-brain/internal/session"
	"calculator-brain/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	observability.Logger = zap.NewNop()
	if err := InitMetrics(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fixture struct {
	t      *testing.T
	store  *session.Store
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := session.NewStore()
	r := chi.NewRouter()
	NewAPI(store, brain.NewEvaluator()).RegisterRoutes(r)
	return &fixture{t: t, store: store, router: r}
}

func (f *fixture) do(method, target string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	return testutil.ExecuteRequest(testutil.NewJSONRequest(f.t, method, target, body), f.router)
}

func (f *fixture) outcome(w *httptest.ResponseRecorder) OutcomeResponse {
	f.t.Helper()
	testutil.CheckResponseCode(f.t, http.StatusOK, w.Code)
	var resp OutcomeResponse
	testutil.DecodeJSONBody(f.t, w.Body, &resp)
	return resp
}

func (f *fixture) newSession() string {
	f.t.Helper()
	w := f.do(http.MethodPost, "/calculator/sessions", nil)
	testutil.CheckResponseCode(f.t, http.StatusCreated, w.Code)
	var resp OutcomeResponse
	testutil.DecodeJSONBody(f.t, w.Body, &resp)
	return "/calculator/sessions/" + resp.SessionID
}

func (f *fixture) number(base string, v float64) OutcomeResponse {
	f.t.Helper()
	return f.outcome(f.do(http.MethodPost, base+"/numbers", map[string]float64{"value": v}))
}

func (f *fixture) operator(base, symbol string) OutcomeResponse {
	f.t.Helper()
	return f.outcome(f.do(http.MethodPost, base+"/operators", map[string]string{"symbol": symbol}))
}

func (f *fixture) variable(base, name string) OutcomeResponse {
	f.t.Helper()
	return f.outcome(f.do(http.MethodPost, base+"/variables", map[string]string{"name": name}))
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	testutil.DecodeJSONBody(t, w.Body, &body)
	return body["error"]
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/calculator/sessions", nil)
	testutil.CheckResponseCode(t, http.StatusCreated, w.Code)

	var resp OutcomeResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)

	if _, err := uuid.Parse(resp.SessionID); err != nil {
		t.Fatalf("expected UUID session id, got %q: %v", resp.SessionID, err)
	}
	if resp.Result != nil || resp.Description != "" || resp.ResultIsPending {
		t.Fatalf("expected empty outcome, got %+v", resp)
	}
	if f.store.Len() != 1 {
		t.Fatalf("expected 1 stored session, got %d", f.store.Len())
	}
}

func TestPushNumber(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	resp := f.number(base, 5)

	if resp.Result == nil || *resp.Result != 5 {
		t.Fatalf("expected result 5, got %v", resp.Result)
	}
	if resp.Display != "5" || resp.Description != "5" || resp.ResultIsPending {
		t.Fatalf("unexpected outcome %+v", resp)
	}
}

func TestPendingBinaryOperation(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	f.number(base, 5)
	resp := f.operator(base, "+")

	if resp.Result != nil {
		t.Fatalf("expected no result, got %v", *resp.Result)
	}
	if !resp.ResultIsPending || resp.Description != "5+" {
		t.Fatalf("expected pending 5+, got %+v", resp)
	}

	f.number(base, 3)
	resp = f.operator(base, "=")

	if resp.Result == nil || *resp.Result != 8 || resp.Description != "5+3" || resp.ResultIsPending {
		t.Fatalf("expected 5+3 = 8, got %+v", resp)
	}
}

func TestDivideByZeroIsReportedNotRejected(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	oldLogger := observability.Logger
	observability.Logger = zap.New(core)
	t.Cleanup(func() { observability.Logger = oldLogger })

	f := newFixture(t)
	base := f.newSession()

	f.number(base, 8)
	f.operator(base, brain.SymbolDivide)
	f.number(base, 0)
	resp := f.operator(base, "=")

	if resp.Error != brain.ErrDivisionByZero.Error() {
		t.Fatalf("expected error %q, got %q", brain.ErrDivisionByZero.Error(), resp.Error)
	}
	if resp.Result != nil {
		t.Fatalf("expected null result for +Inf, got %v", *resp.Result)
	}
	if resp.Display != "+Inf" {
		t.Fatalf("expected display +Inf, got %q", resp.Display)
	}
	if resp.Description != "8÷0" {
		t.Fatalf("expected description %q, got %q", "8÷0", resp.Description)
	}

	warned := logs.FilterMessage("evaluation reported a domain error").All()
	if len(warned) != 1 {
		t.Fatalf("expected 1 domain error log, got %d", len(warned))
	}
}

func TestVariablesAndBinding(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	f.variable(base, "x")
	f.operator(base, brain.SymbolSquare)
	resp := f.operator(base, "=")

	if resp.Result == nil || *resp.Result != 0 {
		t.Fatalf("expected unbound x to read 0, got %+v", resp)
	}

	resp = f.outcome(f.do(http.MethodPut, base+"/variables/x", map[string]float64{"value": 3}))

	if resp.Result == nil || *resp.Result != 9 {
		t.Fatalf("expected 9, got %+v", resp)
	}
	if resp.Description != "(x)²" {
		t.Fatalf("expected description %q, got %q", "(x)²", resp.Description)
	}
	if resp.Variables["x"] != 3 {
		t.Fatalf("expected variables to include x=3, got %v", resp.Variables)
	}
}

func TestUndoAndClear(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	f.number(base, 1)
	f.operator(base, "+")
	f.number(base, 2)

	resp := f.outcome(f.do(http.MethodPost, base+"/undo", nil))
	if !resp.ResultIsPending || resp.Description != "1+" || resp.Result != nil {
		t.Fatalf("expected pending 1+ after undo, got %+v", resp)
	}

	f.outcome(f.do(http.MethodPut, base+"/variables/M", map[string]float64{"value": 1}))

	resp = f.outcome(f.do(http.MethodPost, base+"/clear", nil))
	if resp.Result != nil || resp.ResultIsPending || resp.Description != "" || len(resp.Variables) != 0 {
		t.Fatalf("expected empty outcome after clear, got %+v", resp)
	}
}

func TestUndoOnEmptySession(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	resp := f.outcome(f.do(http.MethodPost, base+"/undo", nil))
	if resp.Result != nil || resp.Description != "" {
		t.Fatalf("expected empty outcome, got %+v", resp)
	}
}

func TestUnknownOperatorIsIgnored(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	f.number(base, 4)
	resp := f.operator(base, "frobnicate")

	if resp.Result == nil || *resp.Result != 4 || resp.Error != "" {
		t.Fatalf("expected unknown operator to be ignored, got %+v", resp)
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()
	f.number(base, 7)

	resp := f.outcome(f.do(http.MethodGet, base, nil))
	if resp.Result == nil || *resp.Result != 7 {
		t.Fatalf("expected 7, got %+v", resp)
	}

	w := f.do(http.MethodDelete, base, nil)
	testutil.CheckResponseCode(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodGet, base, nil)
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodDelete, base, nil)
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)
}

func TestSessionRequestErrors(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	tests := []struct {
		name    string
		method  string
		target  string
		body    any
		status  int
		wantErr string
	}{
		{
			name:   "unknown session",
			method: http.MethodPost, target: "/calculator/sessions/nope/numbers",
			body:   map[string]float64{"value": 1},
			status: http.StatusNotFound, wantErr: "session not found",
		},
		{
			name:   "missing value",
			method: http.MethodPost, target: base + "/numbers",
			body:   map[string]string{},
			status: http.StatusBadRequest, wantErr: "value is required",
		},
		{
			name:   "missing name",
			method: http.MethodPost, target: base + "/variables",
			body:   map[string]string{"name": ""},
			status: http.StatusBadRequest, wantErr: "name is required",
		},
		{
			name:   "missing symbol",
			method: http.MethodPost, target: base + "/operators",
			body:   map[string]string{},
			status: http.StatusBadRequest, wantErr: "symbol is required",
		},
		{
			name:   "missing bound value",
			method: http.MethodPut, target: base + "/variables/M",
			body:   map[string]string{},
			status: http.StatusBadRequest, wantErr: "value is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(tc.method, tc.target, tc.body)
			testutil.CheckResponseCode(t, tc.status, w.Code)
			if got := errorBody(t, w); got != tc.wantErr {
				t.Fatalf("expected error %q, got %q", tc.wantErr, got)
			}
		})
	}
}

func TestPushNumberInvalidJSON(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	req := httptest.NewRequest(http.MethodPost, base+"/numbers", nil)
	w := testutil.ExecuteRequest(req, f.router)

	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
}

func TestPlot(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	f.variable(base, brain.PlotVariable)
	f.operator(base, brain.SymbolMultiply)
	f.number(base, 2)
	f.operator(base, "=")

	w := f.do(http.MethodGet, base+"/plot?from=0&to=1&step=0.5", nil)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp PlotResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)

	want := []PlotPoint{{X: 0, Y: 0}, {X: 0.5, Y: 1}, {X: 1, Y: 2}}
	if len(resp.Points) != len(want) {
		t.Fatalf("expected %d points, got %+v", len(want), resp.Points)
	}
	for i := range want {
		if resp.Points[i] != want[i] {
			t.Fatalf("point %d: expected %+v, got %+v", i, want[i], resp.Points[i])
		}
	}
	if resp.Description != "Mx2" || resp.Variable != brain.PlotVariable || resp.Skipped != 0 {
		t.Fatalf("unexpected plot metadata %+v", resp)
	}
}

func TestPlotSkipsNonFinitePoints(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	f.number(base, 1)
	f.operator(base, brain.SymbolDivide)
	f.variable(base, brain.PlotVariable)
	f.operator(base, "=")

	w := f.do(http.MethodGet, base+"/plot?from=-1&to=1&step=1", nil)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp PlotResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)

	if len(resp.Points) != 2 || resp.Skipped != 1 {
		t.Fatalf("expected 2 points and 1 skipped, got %+v", resp)
	}
}

func TestPlotRejectsPendingProgram(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()

	f.number(base, 1)
	f.operator(base, "+")

	w := f.do(http.MethodGet, base+"/plot", nil)
	testutil.CheckResponseCode(t, http.StatusConflict, w.Code)
	if got := errorBody(t, w); got != "result is pending" {
		t.Fatalf("expected error %q, got %q", "result is pending", got)
	}
}

func TestPlotRejectsBadRange(t *testing.T) {
	f := newFixture(t)
	base := f.newSession()
	f.number(base, 1)

	for _, query := range []string{"?step=abc", "?step=0", "?from=2&to=1"} {
		t.Run(query, func(t *testing.T) {
			w := f.do(http.MethodGet, base+"/plot"+query, nil)
			testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestEvaluateStateless(t *testing.T) {
	f := newFixture(t)
	five, three := 5.0, 3.0

	req := EvaluateRequest{
		Program: []Instruction{
			{Number: &five},
			{Operator: "+"},
			{Number: &three},
			{Operator: "="},
		},
	}
	resp := f.outcome(f.do(http.MethodPost, "/calculator/evaluate", req))

	if resp.Result == nil || *resp.Result != 8 || resp.Description != "5+3" {
		t.Fatalf("expected 5+3 = 8, got %+v", resp)
	}
	if resp.SessionID != "" {
		t.Fatalf("did not expect a session id, got %q", resp.SessionID)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected no sessions to be created, got %d", f.store.Len())
	}
}

func TestEvaluateStatelessWithVariables(t *testing.T) {
	f := newFixture(t)

	req := EvaluateRequest{
		Program:   []Instruction{{Variable: "x"}, {Operator: brain.SymbolSquare}, {Operator: "="}},
		Variables: map[string]float64{"x": 3},
	}
	resp := f.outcome(f.do(http.MethodPost, "/calculator/evaluate", req))

	if resp.Result == nil || *resp.Result != 9 {
		t.Fatalf("expected 9, got %+v", resp)
	}
}

func TestEvaluateRejectsAmbiguousInstruction(t *testing.T) {
	f := newFixture(t)
	one := 1.0

	req := EvaluateRequest{Program: []Instruction{{Number: &one, Operator: "+"}}}
	w := f.do(http.MethodPost, "/calculator/evaluate", req)

	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
	if got := errorBody(t, w); got != "instruction 0: "+errAmbiguousInstruction.Error() {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestOperators(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/calculator/operators", nil)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var ops []OperatorInfo
	testutil.DecodeJSONBody(t, w.Body, &ops)

	kinds := make(map[string]string, len(ops))
	for _, op := range ops {
		kinds[op.Symbol] = op.Kind
	}
	if kinds["+"] != "binary" || kinds[brain.SymbolSqrt] != "unary" || kinds["="] != "equals" {
		t.Fatalf("unexpected operator kinds %v", kinds)
	}
}
