package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	forceColor   bool
	disableColor bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetColorForcing overrides TTY detection for ok/fail lines.
func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
	applyColor()
}

// SetOutput redirects OK/Fail/Panel output, mainly for tests.
func SetOutput(out, errOut io.Writer) {
	stdout, stderr = out, errOut
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TermSize returns the stdout terminal size, or 80x24 when unknown.
func TermSize() (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

func applyColor() {
	switch {
	case disableColor:
		color.NoColor = true
		lipgloss.SetColorProfile(termenv.Ascii)
	case forceColor:
		color.NoColor = false
	}
}

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
)

func OK(msg string)   { fmt.Fprintln(stdout, okColor.Sprint(current.SymDone+" "+msg)) }
func Fail(msg string) { fmt.Fprintln(stderr, failColor.Sprint("✖ "+msg)) }

// Hint prints a muted follow-up line under a failure.
func Hint(msg string) { fmt.Fprintln(stderr, current.Muted.Render(msg)) }
