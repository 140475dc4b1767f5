// Package browser opens pages of the running server from the console.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Commander starts an external command
type Commander interface {
	Start(name string, args ...string) error
}

// ExecCommander starts commands with os/exec
type ExecCommander struct{}

// Start runs the command without waiting for it
func (ExecCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Command returns the launcher for goos. Only absolute http(s) URLs are
// accepted since the result is handed to a shell helper.
func Command(goos, rawURL string) (string, []string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", nil, fmt.Errorf("refusing to open %q: not an http url", rawURL)
	}

	switch goos {
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{rawURL}, nil
	case "darwin":
		return "open", []string{rawURL}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// Open opens rawURL in the default browser
func Open(rawURL string) error {
	return OpenWithCommander(rawURL, ExecCommander{}, runtime.GOOS)
}

// OpenWithCommander opens rawURL through commander as if running on goos
func OpenWithCommander(rawURL string, commander Commander, goos string) error {
	name, args, err := Command(goos, rawURL)
	if err != nil {
		return err
	}
	return commander.Start(name, args...)
}
