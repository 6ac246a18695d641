// Package cliui renders bootstrap progress and results for the bootforge
// CLI: styled output on an interactive terminal, plain lines or JSON
// otherwise. Grounded on the teacher's tui package (wizard.go's
// Print{Error,Success,Warning}/StyleTitle, non_interactive.go's
// OutputMode-gated NonInteractiveTUICallback, and progress.go's lipgloss
// palette), adapted from vendor-sync events to bootstrap progress lines.
package cliui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Mode controls how output is displayed, mirroring the teacher's OutputMode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeQuiet
	ModeJSON
)

// IsInteractive reports whether stdout is an actual terminal, gating
// styled/huh-driven output the way the teacher's callback selection
// (TUICallback vs NonInteractiveTUICallback) does.
func IsInteractive() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// JSONResult is the structured form emitted under ModeJSON.
type JSONResult struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError is the structured error shape inside a JSONResult.
type JSONError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Printer renders command feedback for one Mode.
type Printer struct {
	Mode Mode
	Out  io.Writer
	Err  io.Writer
}

// NewPrinter builds a Printer writing to stdout/stderr.
func NewPrinter(mode Mode) *Printer {
	return &Printer{Mode: mode, Out: os.Stdout, Err: os.Stderr}
}

func (p *Printer) render(title, msg string, style lipgloss.Style, symbol string) {
	if IsInteractive() {
		fmt.Fprintln(p.Err, style.Render(symbol+" "+title))
		if msg != "" {
			fmt.Fprintln(p.Err, msg)
		}
		return
	}
	fmt.Fprintf(p.Err, "%s: %s\n", title, msg)
}

// Error prints a fatal error, or emits a JSON error object under ModeJSON.
func (p *Printer) Error(title, msg string) {
	if p.Mode == ModeJSON {
		p.json(JSONResult{Status: "error", Error: &JSONError{Title: title, Message: msg}})
		return
	}
	p.render(title, msg, styleErr, "✖")
}

// Success prints a completion message, or a JSON success object.
func (p *Printer) Success(msg string) {
	if p.Mode == ModeJSON {
		p.json(JSONResult{Status: "success", Message: msg})
		return
	}
	if p.Mode == ModeQuiet {
		return
	}
	if IsInteractive() {
		fmt.Fprintln(p.Out, styleSuccess.Render("✔ "+msg))
		return
	}
	fmt.Fprintln(p.Out, msg)
}

// Warning prints a non-fatal warning (spec §7's degraded error kinds
// surface here), or a JSON warning object.
func (p *Printer) Warning(title, msg string) {
	if p.Mode == ModeJSON {
		p.json(JSONResult{Status: "warning", Message: fmt.Sprintf("%s: %s", title, msg)})
		return
	}
	if p.Mode == ModeQuiet {
		return
	}
	p.render(title, msg, styleWarn, "!")
}

// Progress prints one onProgress line from the coordinator. Suppressed
// entirely under ModeQuiet and ModeJSON (which only emits its final
// result object).
func (p *Printer) Progress(line string) {
	if p.Mode != ModeNormal {
		return
	}
	if IsInteractive() {
		fmt.Fprintln(p.Err, styleDim.Render(line))
		return
	}
	fmt.Fprintln(p.Err, line)
}

// Result prints a successful command's payload: a JSON object under
// ModeJSON, otherwise msg (already formatted by the caller).
func (p *Printer) Result(msg string, data interface{}) {
	if p.Mode == ModeJSON {
		p.json(JSONResult{Status: "success", Message: msg, Data: data})
		return
	}
	if p.Mode == ModeQuiet {
		return
	}
	fmt.Fprintln(p.Out, msg)
}

func (p *Printer) json(v JSONResult) {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// Title styles a heading the way the teacher's StyleTitle does.
func Title(text string) string {
	if !IsInteractive() {
		return text
	}
	return styleTitle.Render(text)
}
