// Package term holds small helpers for printing to the user's terminal.
package term

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// IsTerminal is replaced in tests.
var IsTerminal = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// hyperlinkEnv lists variables set by terminals known to render OSC 8 links.
var hyperlinkEnv = []string{
	"WT_SESSION",
	"VTE_VERSION",
	"KONSOLE_VERSION",
	"KITTY_WINDOW_ID",
	"WEZTERM_EXECUTABLE",
	"DOMTERM",
	"TERM_PROGRAM",
}

func SupportsHyperlinks() bool {
	if !IsTerminal() {
		return false
	}
	switch os.Getenv("TERM") {
	case "", "dumb", "alacritty":
		return false
	}
	for _, key := range hyperlinkEnv {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

func ClickableLink(label string, url string) string {
	if url == "" {
		return label
	}
	if label == "" {
		label = url
	}
	if !SupportsHyperlinks() {
		return label
	}
	return "\x1b]8;;" + url + "\x1b\\" + label + "\x1b]8;;\x1b\\"
}

// Mask keeps the bot id prefix of a token ("123456:") and the last four
// characters, hiding the rest.
func Mask(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	prefix := ""
	secret := token
	if idx := strings.Index(token, ":"); idx >= 0 {
		prefix = token[:idx+1]
		secret = token[idx+1:]
	}
	if len(secret) <= 4 {
		return prefix + strings.Repeat("*", len(secret))
	}
	return prefix + strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
