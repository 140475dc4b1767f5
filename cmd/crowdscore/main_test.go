package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/scorecard"
	"github.com/abrezinsky/crowdscore/internal/services"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	base := []string{"--config", filepath.Join(dir, "none.toml"), "--db", filepath.Join(dir, "data", "test.db")}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "crowdscore dev\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFightsCmd(t *testing.T) {
	out, err := execute(t, "fights", "all")
	if err != nil {
		t.Fatalf("fights failed: %v", err)
	}
	for _, want := range []string{"Naoya Inoue vs", "mock_1", "rds"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFightsCmd_Refresh(t *testing.T) {
	out, err := execute(t, "fights", "today", "--refresh")
	if err != nil {
		t.Fatalf("fights failed: %v", err)
	}
	if !strings.Contains(out, "from mock") {
		t.Errorf("expected refresh summary, got:\n%s", out)
	}
}

func TestFightsCmd_BadArg(t *testing.T) {
	if _, err := execute(t, "fights", "yesterday"); err == nil {
		t.Fatal("expected error for an unknown view")
	}
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCmd()
	cmd.SetArgs([]string{"version", "--config", filepath.Join(dir, "none.toml"), "--log-level", "debug"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	version, _, err := cmd.Find([]string{"version"})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	cfg, err := loadConfig(version, &rootOptions{
		configPath: filepath.Join(dir, "none.toml"),
		logLevel:   "debug",
		logFormat:  "json",
	})
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected the explicit flag to win, got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("an unset flag must not override the default, got %s", cfg.LogFormat)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nprot = 80\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := loadConfig(newRootCmd(), &rootOptions{configPath: path})
	if err == nil || !strings.Contains(err.Error(), "unknown config keys") {
		t.Fatalf("expected config error, got %v", err)
	}
}

type fakeOpener struct {
	urls []string
	err  error
}

func (f *fakeOpener) open(url string) error {
	f.urls = append(f.urls, url)
	return f.err
}

func newTestConsole() (*console, *bytes.Buffer, *fakeOpener, *logger.SlogLogger) {
	var out bytes.Buffer
	log := logger.NewNop()
	log.SetLevel(slog.LevelInfo)
	opener := &fakeOpener{}
	c := newConsole(&out, log, "http://localhost:8081")
	c.open = opener.open
	return c, &out, opener, log
}

func TestConsole_OpenPages(t *testing.T) {
	c, out, opener, _ := newTestConsole()

	c.handleKey('a')
	c.handleKey('S')
	want := []string{"http://localhost:8081/admin", "http://localhost:8081/score"}
	if diff := cmp.Diff(want, opener.urls); diff != "" {
		t.Errorf("opened urls mismatch (-want +got):\n%s", diff)
	}

	opener.err = errors.New("no display")
	c.handleKey('a')
	if !strings.Contains(out.String(), "Error opening browser: no display") {
		t.Errorf("expected browser error, got:\n%s", out.String())
	}
}

func TestConsole_HTTPLogging(t *testing.T) {
	c, out, _, log := newTestConsole()

	c.handleKey('h')
	if !log.IsHTTPLoggingEnabled() {
		t.Fatal("expected HTTP logging on")
	}
	c.handleKey('h')
	if log.IsHTTPLoggingEnabled() {
		t.Fatal("expected HTTP logging off")
	}
	if !strings.Contains(out.String(), "HTTP logging disabled") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestConsole_QuitAndHelp(t *testing.T) {
	c, out, _, _ := newTestConsole()

	if c.handleKey('?') {
		t.Error("help must not quit")
	}
	if !strings.Contains(out.String(), "Keyboard shortcuts:") {
		t.Errorf("expected help, got:\n%s", out.String())
	}
	if c.handleKey('x') {
		t.Error("unknown keys must not quit")
	}
	for _, k := range []byte{'q', 'Q', 0x03} {
		if !c.handleKey(k) {
			t.Errorf("expected %q to quit", k)
		}
	}
}

func TestCycleLogLevel(t *testing.T) {
	log := logger.NewNop()
	log.SetLevel(slog.LevelDebug)

	var got []slog.Level
	for range 4 {
		got = append(got, cycleLogLevel(log))
	}
	want := []slog.Level{slog.LevelInfo, slog.LevelWarn, slog.LevelError, slog.LevelDebug}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}

	log.SetLevel(slog.Level(2))
	if next := cycleLogLevel(log); next != slog.LevelInfo {
		t.Errorf("unknown levels should reset to info, got %v", next)
	}
}

func TestRunUntil(t *testing.T) {
	c, _, opener, _ := newTestConsole()

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		runUntil(context.Background(), readKeys(strings.NewReader("aq s")), c, func() { close(quit) })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runUntil did not return")
	}
	select {
	case <-quit:
	default:
		t.Error("expected quit to be called")
	}
	if len(opener.urls) != 1 {
		t.Errorf("keys after q must be ignored, opened %v", opener.urls)
	}
}

func TestRunUntil_ContextDone(t *testing.T) {
	c, _, _, _ := newTestConsole()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	keys := make(chan byte)
	runUntil(ctx, keys, c, func() { t.Error("quit must not be called") })
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, services.BoutView{State: "active"})
	if out.Len() != 0 {
		t.Errorf("expected nothing for an unfinished bout, got %q", out.String())
	}

	printResult(&out, services.BoutView{
		State: "finalized", CornerA: "Fury", CornerB: "Usyk", TotalA: 113, TotalB: 115,
		Save: scorecard.SaveStatus{State: scorecard.SaveDone, Method: "local", RecordID: "abc"},
	})
	if got := out.String(); got != "Fury 113 - 115 Usyk\nsaved (local) abc\n" {
		t.Errorf("unexpected output %q", got)
	}

	out.Reset()
	printResult(&out, services.BoutView{
		State: "finalized", Save: scorecard.SaveStatus{State: scorecard.SaveFailed, Error: "disk full"},
	})
	if !strings.Contains(out.String(), "save failed: disk full") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	printBanner(&out)
	if !strings.Contains(out.String(), "C R O W D S C O R E") {
		t.Errorf("unexpected banner:\n%s", out.String())
	}
}
