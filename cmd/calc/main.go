// Command calc is an interactive terminal calculator.
package main

import (
	"fmt"
	"io"
	"os"

	"calculator-brain/internal/brain"
	"calculator-brain/internal/console"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	logger := zap.NewNop()
	if os.Getenv("CALC_DEBUG") != "" {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	c := console.New(brain.NewEvaluator(), logger)

	if err := run(c); err != nil {
		logger.Error("console stopped", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *console.Console) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return c.Run(os.Stdin, os.Stdout)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	return c.RunTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout})
}
