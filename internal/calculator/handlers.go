package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"calculator-brain/internal/brain"
	"calculator-brain/internal/handlers"
	"calculator-brain/internal/observability"
	"calculator-brain/internal/session"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// Default plot window, matching a graph centred on the origin.
const (
	defaultPlotFrom = -10.0
	defaultPlotTo   = 10.0
	defaultPlotStep = 0.1
)

// API serves calculator sessions over HTTP.
type API struct {
	store *session.Store
	eval  *brain.Evaluator
}

func NewAPI(store *session.Store, eval *brain.Evaluator) *API {
	return &API{store: store, eval: eval}
}

// ---------------------------------------------------------------------------
// Handlers — session lifecycle
// ---------------------------------------------------------------------------

// CreateSession handles POST /calculator/sessions
func (a *API) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.create_session",
		trace.WithAttributes(
			attribute.String("calculator.operation", "create_session"),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	s := a.store.Create()
	span.SetAttributes(attribute.String("session.id", s.ID))

	logger.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("request_id", requestID),
	)

	a.respond(ctx, span, logger, w, http.StatusCreated, "create_session", s)
}

// GetSession handles GET /calculator/sessions/{sessionID}
func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "evaluate", nil)
}

// DeleteSession handles DELETE /calculator/sessions/{sessionID}
func (a *API) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	sessionID := chi.URLParam(r, "sessionID")

	ctx, span := tracer.Start(ctx, "calculator.delete_session",
		trace.WithAttributes(
			attribute.String("calculator.operation", "delete_session"),
			attribute.String("request.id", requestID),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	if err := a.store.Delete(sessionID); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "delete_session", "session not found", err, http.StatusNotFound, w)
		return
	}

	span.SetStatus(codes.Ok, "")
	logger.Info("session deleted",
		zap.String("session_id", sessionID),
		zap.String("request_id", requestID),
	)
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Handlers — instruction log
// ---------------------------------------------------------------------------

// PushNumber handles POST /calculator/sessions/{sessionID}/numbers
func (a *API) PushNumber(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "push_number", func(r *http.Request, s *session.Session) error {
		var req NumberRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		if req.Value == nil {
			return errors.New("value is required")
		}
		s.PushNumber(*req.Value)
		countInstruction(r.Context(), brain.KindNumber)
		return nil
	})
}

// PushVariable handles POST /calculator/sessions/{sessionID}/variables
func (a *API) PushVariable(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "push_variable", func(r *http.Request, s *session.Session) error {
		var req VariableRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		if req.Name == "" {
			return errors.New("name is required")
		}
		s.PushVariable(req.Name)
		countInstruction(r.Context(), brain.KindVariable)
		return nil
	})
}

// PushOperator handles POST /calculator/sessions/{sessionID}/operators.
// Unknown symbols are appended like any other and ignored on evaluation.
func (a *API) PushOperator(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "push_operator", func(r *http.Request, s *session.Session) error {
		var req OperatorRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		if req.Symbol == "" {
			return errors.New("symbol is required")
		}
		if !brain.IsOperator(req.Symbol) {
			observability.LoggerWithTrace(r.Context()).Debug("unknown operator symbol",
				zap.String("symbol", req.Symbol),
			)
		}
		s.PushOperator(req.Symbol)
		countInstruction(r.Context(), brain.KindOperator)
		return nil
	})
}

// BindVariable handles PUT /calculator/sessions/{sessionID}/variables/{name}
func (a *API) BindVariable(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "bind_variable", func(r *http.Request, s *session.Session) error {
		var req NumberRequest
		if err := decode(r, &req); err != nil {
			return err
		}
		if req.Value == nil {
			return errors.New("value is required")
		}
		s.SetVariable(chi.URLParam(r, "name"), *req.Value)
		return nil
	})
}

// Undo handles POST /calculator/sessions/{sessionID}/undo
func (a *API) Undo(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "undo", func(_ *http.Request, s *session.Session) error {
		s.UndoLast()
		return nil
	})
}

// Clear handles POST /calculator/sessions/{sessionID}/clear
func (a *API) Clear(w http.ResponseWriter, r *http.Request) {
	a.handleSessionOp(w, r, "clear", func(_ *http.Request, s *session.Session) error {
		s.Clear()
		return nil
	})
}

// handleSessionOp is the shared implementation for endpoints acting on an
// existing session: it opens a span, resolves the session, applies the
// change, re-evaluates the program and writes the outcome.
func (a *API) handleSessionOp(w http.ResponseWriter, r *http.Request, opName string, apply func(*http.Request, *session.Session) error) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	sessionID := chi.URLParam(r, "sessionID")

	ctx, span := tracer.Start(ctx, fmt.Sprintf("calculator.%s", opName),
		trace.WithAttributes(
			attribute.String("calculator.operation", opName),
			attribute.String("request.id", requestID),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	s, err := a.store.Get(sessionID)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "session not found", err, http.StatusNotFound, w)
		return
	}

	if apply != nil {
		if err := apply(r.WithContext(ctx), s); err != nil {
			observability.RecordError(ctx, span, logger, errorCounter, opName, err.Error(), err, http.StatusBadRequest, w)
			return
		}
	}

	a.respond(ctx, span, logger, w, http.StatusOK, opName, s)
}

// respond evaluates the session, records metrics and span data for the
// outcome and writes it as JSON.
func (a *API) respond(ctx context.Context, span trace.Span, logger *zap.Logger, w http.ResponseWriter, status int, opName string, s *session.Session) {
	start := time.Now()
	out := s.Evaluate(a.eval)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	recordOutcome(ctx, span, logger, opName, out, elapsed)

	handlers.WriteJSON(w, status, newOutcomeResponse(s.ID, out, s.Variables()))
}

// recordOutcome attaches an evaluation outcome to metrics, the span and the log.
// Domain errors are reported but do not fail the request.
func recordOutcome(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, out brain.Outcome, elapsed float64) {
	requestID := observability.RequestIDFromContext(ctx)
	attrs := metric.WithAttributes(attribute.String("operation", opName))
	evalHistogram.Record(ctx, elapsed, attrs)
	if out.HasResult && isFinite(out.Result) {
		resultGauge.Record(ctx, out.Result, attrs)
		span.SetAttributes(attribute.Float64("calculator.result", out.Result))
	}

	span.SetAttributes(
		attribute.Bool("calculator.pending", out.ResultIsPending),
		attribute.String("calculator.description", out.Description),
	)

	if out.Err != nil {
		domainErrorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", opName),
			attribute.String("error", out.Err.Error()),
		))
		span.AddEvent("domain.error", trace.WithAttributes(
			attribute.String("error", out.Err.Error()),
		))
		logger.Warn("evaluation reported a domain error",
			zap.String("operation", opName),
			zap.Error(out.Err),
			zap.String("description", out.Description),
			zap.String("request_id", requestID),
		)
	}

	span.AddEvent("evaluation.complete", trace.WithAttributes(
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator operation completed",
		zap.String("operation", opName),
		zap.String("description", out.Description),
		zap.Bool("has_result", out.HasResult),
		zap.Float64("result", out.Result),
		zap.Bool("pending", out.ResultIsPending),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)
}

func countInstruction(ctx context.Context, kind brain.InstructionKind) {
	instructionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind.String())))
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Handler — plotting
// ---------------------------------------------------------------------------

// Plot handles GET /calculator/sessions/{sessionID}/plot?from=&to=&step=.
// The program is sampled as a function of brain.PlotVariable. Plotting is
// refused while a binary operation is pending.
func (a *API) Plot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)
	sessionID := chi.URLParam(r, "sessionID")

	ctx, span := tracer.Start(ctx, "calculator.plot",
		trace.WithAttributes(
			attribute.String("calculator.operation", "plot"),
			attribute.String("request.id", requestID),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	q := r.URL.Query()
	from, errFrom := queryFloat(q.Get("from"), defaultPlotFrom)
	to, errTo := queryFloat(q.Get("to"), defaultPlotTo)
	step, errStep := queryFloat(q.Get("step"), defaultPlotStep)
	if err := errors.Join(errFrom, errTo, errStep); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "plot", "invalid plot range", err, http.StatusBadRequest, w)
		return
	}

	s, err := a.store.Get(sessionID)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "plot", "session not found", err, http.StatusNotFound, w)
		return
	}

	if out := s.Evaluate(a.eval); out.ResultIsPending {
		observability.RecordError(ctx, span, logger, errorCounter, "plot", "result is pending", fmt.Errorf("cannot plot %q", out.Description), http.StatusConflict, w)
		return
	}

	start := time.Now()
	out, points, err := s.Plot(a.eval, from, to, step)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "plot", err.Error(), err, http.StatusBadRequest, w)
		return
	}

	resp := PlotResponse{
		SessionID:   s.ID,
		Description: out.Description,
		Variable:    brain.PlotVariable,
		Points:      make([]PlotPoint, 0, len(points)),
	}
	for _, p := range points {
		if !isFinite(p.Y) {
			continue
		}
		resp.Points = append(resp.Points, PlotPoint{X: p.X, Y: p.Y})
	}
	sampled := int((to-from)/step) + 1
	resp.Skipped = sampled - len(resp.Points)

	evalHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("operation", "plot")))
	span.SetAttributes(
		attribute.Int("plot.points", len(resp.Points)),
		attribute.Int("plot.skipped", resp.Skipped),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("plot sampled",
		zap.String("session_id", s.ID),
		zap.Float64("from", from),
		zap.Float64("to", to),
		zap.Float64("step", step),
		zap.Int("points", len(resp.Points)),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, resp)
}

func queryFloat(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Handlers — stateless
// ---------------------------------------------------------------------------

// Evaluate handles POST /calculator/evaluate — replays a program supplied in
// the request body without creating a session.
func (a *API) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.evaluate_program",
		trace.WithAttributes(
			attribute.String("calculator.operation", "evaluate_program"),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "evaluate_program", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	program := make([]brain.Instruction, 0, len(req.Program))
	for i, in := range req.Program {
		bi, err := in.toBrain()
		if err != nil {
			observability.RecordError(ctx, span, logger, errorCounter, "evaluate_program", fmt.Sprintf("instruction %d: %v", i, err), err, http.StatusBadRequest, w)
			return
		}
		program = append(program, bi)
	}
	span.SetAttributes(attribute.Int("program.length", len(program)))

	start := time.Now()
	out := a.eval.Evaluate(program, req.Variables)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	recordOutcome(ctx, span, logger, "evaluate_program", out, elapsed)

	handlers.WriteJSON(w, http.StatusOK, newOutcomeResponse("", out, nil))
}

// Operators handles GET /calculator/operators
func Operators(w http.ResponseWriter, r *http.Request) {
	symbols := brain.Symbols()
	resp := make([]OperatorInfo, 0, len(symbols))
	for _, s := range symbols {
		kind, _ := brain.Lookup(s)
		resp = append(resp, OperatorInfo{Symbol: s, Kind: kind.String()})
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}
