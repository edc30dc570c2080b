// Package script models the onboarding configuration script: an
// ordered list of device configuration lines, each classified as
// structural scaffolding or as a critical line whose effect is audited.
package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Category partitions configuration lines for the audit.
type Category int

const (
	// Critical lines must show up in the running configuration.
	Critical Category = iota
	// Structural lines are separators and transaction control; they
	// are deployed but never audited.
	Structural
)

func (c Category) String() string {
	if c == Structural {
		return "structural"
	}
	return "critical"
}

// StructuralMarkers are the substrings that make a line structural.
var StructuralMarkers = []string{"!", "exit", "request", "commit", "no shutdown"}

// Line is one trimmed line of the onboarding script.
type Line struct {
	Text     string
	Category Category
}

// NewLine trims text and derives its category.
func NewLine(text string) Line {
	text = strings.TrimSpace(text)
	return Line{Text: text, Category: Categorize(text)}
}

// Categorize returns Structural if text contains any of the
// [StructuralMarkers], otherwise Critical.
func Categorize(text string) Category {
	for _, m := range StructuralMarkers {
		if strings.Contains(text, m) {
			return Structural
		}
	}
	return Critical
}

// Script is an ordered sequence of lines.  Order matters for
// deployment only.
type Script []Line

// New builds a Script from raw text lines, preserving order.
func New(lines ...string) Script {
	s := make(Script, 0, len(lines))
	for _, l := range lines {
		s = append(s, NewLine(l))
	}
	return s
}

// Texts returns the text of every line in order.
func (s Script) Texts() []string {
	out := make([]string, len(s))
	for i, l := range s {
		out[i] = l.Text
	}
	return out
}

// Critical returns the critical lines in script order.
func (s Script) Critical() []Line {
	var out []Line
	for _, l := range s {
		if l.Category == Critical {
			out = append(out, l)
		}
	}
	return out
}

// Load reads a script file.  Lines are trimmed and blank lines dropped.
func Load(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return s, nil
}

// Parse reads lines from r.
func Parse(r io.Reader) (Script, error) {
	var s Script
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		s = append(s, NewLine(text))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
