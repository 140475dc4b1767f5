package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"

	"github.com/abrezinsky/crowdscore/internal/browser"
	"github.com/abrezinsky/crowdscore/internal/logger"
)

var (
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4F8DFF")).Bold(true)
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#52C41A"))
)

// logLevels is the order the l key cycles through
var logLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

// console handles single-key shortcuts typed into the server terminal
type console struct {
	out     io.Writer
	log     logger.Logger
	baseURL string
	open    func(string) error
}

func newConsole(out io.Writer, log logger.Logger, baseURL string) *console {
	return &console{out: out, log: log, baseURL: baseURL, open: browser.Open}
}

// handleKey runs the shortcut for k and reports whether the server should stop.
func (c *console) handleKey(k byte) bool {
	switch k {
	case 'a', 'A':
		c.openPage("/admin")
	case 's', 'S':
		c.openPage("/score")
	case 'h', 'H':
		if c.log.IsHTTPLoggingEnabled() {
			c.log.DisableHTTPLogging()
			fmt.Fprintln(c.out, warnStyle.Render("HTTP logging disabled"))
		} else {
			c.log.EnableHTTPLogging()
			fmt.Fprintln(c.out, noteStyle.Render("HTTP logging enabled"))
		}
	case 'l', 'L':
		next := cycleLogLevel(c.log)
		fmt.Fprintln(c.out, noteStyle.Render("Log level: "+next.String()))
	case '?':
		c.printHelp()
	case 'q', 'Q', 0x03: // ctrl+c arrives as a byte in raw mode
		fmt.Fprintln(c.out, warnStyle.Render("Shutting down server..."))
		return true
	}
	return false
}

func (c *console) openPage(path string) {
	url := c.baseURL + path
	fmt.Fprintln(c.out, noteStyle.Render("Opening "+url))
	if err := c.open(url); err != nil {
		fmt.Fprintln(c.out, errStyle.Render(fmt.Sprintf("Error opening browser: %v", err)))
	}
}

func (c *console) printHelp() {
	fmt.Fprintln(c.out, titleStyle.Render("Keyboard shortcuts:"))
	for _, line := range [][2]string{
		{"a", "open admin page in browser"},
		{"s", "open a new scorecard in browser"},
		{"h", "toggle HTTP request logging"},
		{"l", "cycle log level (debug, info, warn, error)"},
		{"q", "quit server"},
		{"?", "show this help"},
	} {
		fmt.Fprintf(c.out, "    %s  %s\n", keyStyle.Render(line[0]), line[1])
	}
	fmt.Fprintln(c.out)
}

// cycleLogLevel moves the logger to the next level and returns it.
func cycleLogLevel(log logger.Logger) slog.Level {
	current := log.GetLevel()
	next := slog.LevelInfo
	for i, l := range logLevels {
		if l == current {
			next = logLevels[(i+1)%len(logLevels)]
			break
		}
	}
	log.SetLevel(next)
	return next
}

// runUntil feeds keys to the console until ctx ends, the keys run out or
// a quit key arrives.
func runUntil(ctx context.Context, keys <-chan byte, c *console, quit func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case k, ok := <-keys:
			if !ok {
				return
			}
			if c.handleKey(k) {
				quit()
				return
			}
		}
	}
}

// readKeys pumps r into a channel one byte at a time.
func readKeys(r io.Reader) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if err != nil {
				return
			}
			if n == 1 {
				keys <- buf[0]
			}
		}
	}()
	return keys
}
