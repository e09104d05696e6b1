// Package console is a line-oriented front end for the calculator core.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"calculator-brain/internal/brain"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// ErrQuit is returned by Exec when the user asks to leave.
var ErrQuit = errors.New("quit")

// Console holds one calculator: its program and its variable bindings.
type Console struct {
	eval    *brain.Evaluator
	logger  *zap.Logger
	program brain.Program
	vars    map[string]float64
}

func New(eval *brain.Evaluator, logger *zap.Logger) *Console {
	return &Console{
		eval:   eval,
		logger: logger,
		vars:   make(map[string]float64),
	}
}

// Exec runs every whitespace-separated token on line and returns the text to
// show afterwards.
func (c *Console) Exec(line string) (string, error) {
	for _, tok := range strings.Fields(line) {
		switch tok {
		case "quit", "exit":
			return "", ErrQuit
		case "help":
			return help(), nil
		case "vars":
			return c.listVars(), nil
		case "undo":
			c.program.UndoLast()
		case "clear":
			c.program.Clear()
			c.vars = make(map[string]float64)
		default:
			c.push(tok)
		}
	}
	return c.render(c.eval.Evaluate(c.program.Snapshot(), c.vars)), nil
}

func (c *Console) push(tok string) {
	if name, ok := storeTarget(tok); ok {
		out := c.eval.Evaluate(c.program.Snapshot(), c.vars)
		c.vars[name] = out.Result
		c.logger.Debug("variable bound", zap.String("name", name), zap.Float64("value", out.Result))
		return
	}
	if brain.IsOperator(tok) {
		c.program.PushOperator(tok)
		return
	}
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		c.program.PushNumber(v)
		return
	}
	c.program.PushVariable(tok)
}

// storeTarget recognises "→M" and "->M".
func storeTarget(tok string) (string, bool) {
	for _, prefix := range []string{"→", "->"} {
		if name, ok := strings.CutPrefix(tok, prefix); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

func (c *Console) render(out brain.Outcome) string {
	var b strings.Builder
	if out.Description != "" {
		b.WriteString(out.Description)
		if out.ResultIsPending {
			b.WriteString(" ...")
		} else {
			b.WriteString(" =")
		}
		b.WriteString("\n")
	}
	if out.HasResult {
		b.WriteString(brain.FormatNumber(out.Result))
	} else {
		b.WriteString("0")
	}
	if out.Err != nil {
		fmt.Fprintf(&b, "\nerror: %v", out.Err)
	}
	return b.String()
}

func (c *Console) listVars() string {
	if len(c.vars) == 0 {
		return "no variables"
	}
	names := make([]string, 0, len(c.vars))
	for name := range c.vars {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+" = "+brain.FormatNumber(c.vars[name]))
	}
	return strings.Join(lines, "\n")
}

func help() string {
	return "numbers, variables and operators separated by spaces\n" +
		"operators: " + strings.Join(brain.Symbols(), " ") + "\n" +
		"aliases: - * / ^ x² sqrt pi\n" +
		"commands: undo clear vars ->NAME help quit"
}

// Run reads lines from r until EOF or quit, writing each result to w.
func (c *Console) Run(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		done, err := c.step(sc.Text(), w)
		if err != nil || done {
			return err
		}
	}
	return sc.Err()
}

// RunTerminal is Run with line editing and history on an interactive terminal.
// rw must be the terminal, already in raw mode.
func (c *Console) RunTerminal(rw io.ReadWriter) error {
	t := term.NewTerminal(rw, "> ")
	for {
		line, err := t.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}
		done, err := c.step(line, t)
		if err != nil || done {
			return err
		}
	}
}

func (c *Console) step(line string, w io.Writer) (bool, error) {
	text, err := c.Exec(line)
	if errors.Is(err, ErrQuit) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		return true, fmt.Errorf("write output: %w", err)
	}
	return false, nil
}
