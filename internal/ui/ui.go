// Package ui provides ANSI color styling for CLI output.
package ui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI256 color codes.
const (
	colorAccent = 74  // blue: ids, headings
	colorMuted  = 245 // medium gray: secondary detail
	colorGood   = 114 // green: ready, healthy
	colorWarn   = 215 // orange: blocked, stale, degraded
	colorBad    = 203 // red: cycles, unreachable
)

var noColor bool

func init() {
	noColor = !ShouldUseColor()
}

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderGood returns s in green.
func RenderGood(s string) string { return render(colorGood, s) }

// RenderWarn returns s in orange.
func RenderWarn(s string) string { return render(colorWarn, s) }

// RenderBad returns s in red.
func RenderBad(s string) string { return render(colorBad, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// ShouldUseColor returns true when ANSI colors should be used on stdout.
// It respects NO_COLOR, CLICOLOR_FORCE, CLICOLOR, and TTY detection.
func ShouldUseColor() bool {
	// https://no-color.org: any non-empty value disables color.
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	// CLICOLOR_FORCE=1 forces color even without a TTY.
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	// CLICOLOR=0 explicitly disables color.
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	// Default: color if stdout is a terminal.
	return term.IsTerminal(int(os.Stdout.Fd()))
}
