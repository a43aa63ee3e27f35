// Package cli provides shared formatting helpers for the saiqual CLI.
package cli

import (
	"os"
	"strings"
)

// colorEnabled is false when NO_COLOR env var is set (per no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

func wrap(code, s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Green wraps s in ANSI green. Returns s unchanged when NO_COLOR is set.
func Green(s string) string { return wrap("32", s) }

// Yellow wraps s in ANSI yellow. Returns s unchanged when NO_COLOR is set.
func Yellow(s string) string { return wrap("33", s) }

// Red wraps s in ANSI red. Returns s unchanged when NO_COLOR is set.
func Red(s string) string { return wrap("31", s) }

// Bold wraps s in ANSI bold. Returns s unchanged when NO_COLOR is set.
func Bold(s string) string { return wrap("1", s) }

// LifecycleColor colors a container lifecycle state name for status output:
// READY green, FAILED red, transitional states yellow, anything else plain.
func LifecycleColor(state string) string {
	switch state {
	case "READY":
		return Green(state)
	case "FAILED":
		return Red(state)
	case "DEPLOYING", "TEARING_DOWN":
		return Yellow(state)
	default:
		return state
	}
}

// DotPad pads name with dots to the given width.
// Example: DotPad("copy-scripts", 20) → "copy-scripts ......."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}
