package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"blue/internal/onboard"
	"blue/internal/script"
)

// PlanMode prints what a run would do without opening the console.
type PlanMode struct {
	Name   string
	Link   string
	Steps  []onboard.Step
	Script script.Script

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

func (m *PlanMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run writes the plan.
func (m *PlanMode) Run(_ context.Context) (*Result, error) {
	w := m.stdout()
	fmt.Fprintf(w, "mode:    %s\n", m.Name)
	fmt.Fprintf(w, "console: %s\n", m.Link)
	fmt.Fprintln(w, "steps:")
	for i, step := range m.Steps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step.Name())
	}

	if len(m.Script) > 0 {
		fmt.Fprintf(w, "script:  %d lines, %d audited\n", len(m.Script), len(m.Script.Critical()))
		for _, line := range m.Script {
			fmt.Fprintf(w, "  %-10s %s\n", line.Category, line.Text)
		}
	}
	return &Result{Mode: m.Name}, nil
}
