package style

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Spinner is a minimal progress indicator used around long-running
// steps such as downloads and extraction.
type Spinner interface {
	SetSuffix(suffix string)
	SetFinalMSG(finalMSG string)
	Start()
	Stop()
}

// TerminalSpinner animates on a real terminal.
type TerminalSpinner struct {
	spinner *spinner.Spinner
}

func NewTerminalSpinner(cs []string, d time.Duration, options ...spinner.Option) *TerminalSpinner {
	s := spinner.New(cs, d, options...)
	_ = s.Color("cyan")
	return &TerminalSpinner{spinner: s}
}

func (s *TerminalSpinner) SetSuffix(suffix string) {
	s.spinner.Suffix = suffix
}

func (s *TerminalSpinner) SetFinalMSG(finalMSG string) {
	s.spinner.FinalMSG = finalMSG
}

func (s *TerminalSpinner) Start() {
	s.spinner.Start()
}

func (s *TerminalSpinner) Stop() {
	s.spinner.Stop()
}

// TestSpinner prints each update on its own line instead of redrawing,
// keeping test output stable.
type TestSpinner struct {
	Writer   io.Writer
	Suffix   string
	FinalMSG string
	colorize func(a ...interface{}) string
}

func NewTestSpinner(w io.Writer) *TestSpinner {
	return &TestSpinner{
		Writer:   w,
		colorize: color.New(color.FgCyan).SprintFunc(),
	}
}

func (s *TestSpinner) SetSuffix(suffix string) {
	s.Suffix = suffix
	fmt.Fprintf(s.Writer, "[SET SUFFIX] %s\n", suffix)
}

func (s *TestSpinner) SetFinalMSG(finalMSG string) {
	s.FinalMSG = finalMSG
}

func (s *TestSpinner) Start() {
	fmt.Fprintf(s.Writer, "[SPINNER START]\n")
}

func (s *TestSpinner) Stop() {
	fmt.Fprintf(s.Writer, "[SPINNER STOP]\n")
	if s.FinalMSG != "" {
		fmt.Fprintf(s.Writer, "[FINAL MSG] %s\n", s.FinalMSG)
	}
}

// NewSpinner picks the spinner implementation for the environment.
func NewSpinner(w io.Writer) Spinner {
	if os.Getenv("JAVELIN_TEST") == "true" {
		return NewTestSpinner(w)
	}
	return NewTerminalSpinner(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
}
