package browser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type mockCommander struct {
	name string
	args []string
	err  error
}

func (m *mockCommander) Start(name string, args ...string) error {
	m.name = name
	m.args = args
	return m.err
}

func TestOpenWithCommander(t *testing.T) {
	const page = "http://192.168.1.20:8081/score?fight=mock_1"
	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{"linux", "xdg-open", []string{page}},
		{"freebsd", "xdg-open", []string{page}},
		{"darwin", "open", []string{page}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", page}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			mock := &mockCommander{}
			if err := OpenWithCommander(page, mock, tt.goos); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if mock.name != tt.wantName {
				t.Errorf("expected %s, got %s", tt.wantName, mock.name)
			}
			if diff := cmp.Diff(tt.wantArgs, mock.args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpenWithCommander_UnsupportedPlatform(t *testing.T) {
	mock := &mockCommander{}
	err := OpenWithCommander("http://localhost:8081/admin", mock, "plan9")
	if err == nil || !strings.Contains(err.Error(), "unsupported platform: plan9") {
		t.Fatalf("expected unsupported platform error, got %v", err)
	}
	if mock.name != "" {
		t.Error("no command should be started")
	}
}

func TestOpenWithCommander_RejectsNonHTTP(t *testing.T) {
	for _, raw := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "/admin", "http://"} {
		mock := &mockCommander{}
		if err := OpenWithCommander(raw, mock, "linux"); err == nil {
			t.Errorf("%q: expected error", raw)
		}
		if mock.name != "" {
			t.Errorf("%q: no command should be started", raw)
		}
	}
}

func TestOpenWithCommander_StartError(t *testing.T) {
	boom := errors.New("no display")
	err := OpenWithCommander("https://score.example.com/admin", &mockCommander{err: boom}, "linux")
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
}
