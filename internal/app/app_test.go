package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/abrezinsky/crowdscore/internal/auth"
	"github.com/abrezinsky/crowdscore/internal/config"
	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/persistence"
	"github.com/abrezinsky/crowdscore/internal/services"
	"github.com/abrezinsky/crowdscore/internal/testutil"
	"github.com/abrezinsky/crowdscore/pkg/scoreapi"
)

func createTestTemplatesFS() fstest.MapFS {
	layout := `{{define "layout"}}<html><body>{{template "content" .}}</body></html>{{end}}`
	return fstest.MapFS{
		"layout.html":          {Data: []byte(layout)},
		"index.html":           {Data: []byte(`{{define "content"}}Index{{end}}`)},
		"score.html":           {Data: []byte(`{{define "content"}}Score{{end}}`)},
		"scorecard.html":       {Data: []byte(`{{define "content"}}Card{{end}}`)},
		"admin/login.html":     {Data: []byte(`<html><body>Login</body></html>`)},
		"admin/layout.html":    {Data: []byte(`{{define "admin"}}{{template "content" .}}{{end}}`)},
		"admin/dashboard.html": {Data: []byte(`{{define "content"}}Dashboard{{end}}`)},
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	return cfg
}

func createTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	app, err := New(logger.NewNop(), cfg, createTestTemplatesFS(), fstest.MapFS{}, auth.New("test-password", "test-secret"))
	if err != nil {
		t.Fatalf("failed to create test app: %v", err)
	}
	return app
}

func TestNew_InitializesApp(t *testing.T) {
	app := createTestApp(t, testConfig(t))
	defer app.Close()

	if app.Router() == nil {
		t.Fatal("expected router")
	}
	if app.Bouts() == nil || app.Settings() == nil || app.Schedule() == nil {
		t.Fatal("expected services to be wired")
	}
	if app.handlers.Limiter == nil {
		t.Error("expected rate limiter with the default config")
	}
	if app.handlers.Hub == nil || app.handlers.Metrics == nil {
		t.Error("expected hub and metrics")
	}
}

func TestNew_NoRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit = 0
	app := createTestApp(t, cfg)
	defer app.Close()

	if app.handlers.Limiter != nil {
		t.Error("expected no limiter when rate_limit is 0")
	}
}

func TestNew_ConfiguredDefaults(t *testing.T) {
	cfg := testConfig(t)
	cfg.Settings.DefaultRounds = 6
	app := createTestApp(t, cfg)
	defer app.Close()

	view, err := app.Bouts().Start(context.Background(), services.StartRequest{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if view.RoundCount != 6 {
		t.Errorf("expected configured default of 6 rounds, got %d", view.RoundCount)
	}
}

func TestNew_BadDBPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "test.db")
	if _, err := New(logger.NewNop(), cfg, createTestTemplatesFS(), fstest.MapFS{}, auth.New("p", "s")); err == nil {
		t.Fatal("expected error for an unwritable database path")
	}
}

func TestNew_MissingTemplates(t *testing.T) {
	if _, err := New(logger.NewNop(), testConfig(t), fstest.MapFS{}, fstest.MapFS{}, auth.New("p", "s")); err == nil {
		t.Fatal("expected template error")
	}
}

func TestRouter_ServesAPI(t *testing.T) {
	app := createTestApp(t, testConfig(t))
	defer app.Close()

	srv := httptest.NewServer(app.Router())
	defer srv.Close()

	for _, path := range []string{"/api/fights", "/metrics", "/"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestRemoteClient(t *testing.T) {
	cfg := config.Defaults()
	if RemoteClient(cfg, logger.NewNop()) != nil {
		t.Error("expected no client without a remote url")
	}
	cfg.RemoteURL = "https://store.example.com"
	client := RemoteClient(cfg, logger.NewNop())
	if client == nil || !client.Configured() {
		t.Fatal("expected a configured client")
	}
}

func TestSink(t *testing.T) {
	repo := testutil.NewTestRepository(t)

	if _, ok := Sink(nil, repo, logger.NewNop()).(*persistence.LocalSink); !ok {
		t.Error("expected local sink without a remote client")
	}
	if _, ok := Sink(scoreapi.NewMockClient(), repo, logger.NewNop()).(*persistence.FallbackSink); !ok {
		t.Error("expected fallback sink with a remote client")
	}
}

func TestSetDefaultBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{"sets when empty", "", "http://192.168.1.100:8081"},
		{"replaces localhost", "http://localhost:8081", "http://192.168.1.100:8081"},
		{"keeps a real url", "http://192.168.1.50:8081", "http://192.168.1.50:8081"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := createTestApp(t, testConfig(t))
			defer app.Close()
			ctx := context.Background()

			if tt.existing != "" {
				if err := app.Settings().SetBaseURL(ctx, tt.existing); err != nil {
					t.Fatalf("SetBaseURL failed: %v", err)
				}
			}
			app.setDefaultBaseURL("http://192.168.1.100:8081")

			got, err := app.Settings().GetBaseURL(ctx)
			if err != nil {
				t.Fatalf("GetBaseURL failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSetDefaultBaseURL_ConfiguredWins(t *testing.T) {
	cfg := testConfig(t)
	cfg.Settings.BaseURL = "https://score.example.com"
	app := createTestApp(t, cfg)
	defer app.Close()

	app.setDefaultBaseURL("http://192.168.1.100:8081")
	got, _ := app.Settings().GetBaseURL(context.Background())
	if got != "https://score.example.com" {
		t.Errorf("expected configured base url to be kept, got %s", got)
	}
}

func TestSetDefaultBaseURL_HandlesRepoError(t *testing.T) {
	app := createTestApp(t, testConfig(t))
	app.repo.DB().Close()

	// Only logs a warning
	app.setDefaultBaseURL("http://192.168.1.100:8081")
}

type mockInterface struct {
	flags net.Flags
	addrs []net.Addr
	err   error
}

func (m mockInterface) Flags() net.Flags           { return m.flags }
func (m mockInterface) Addrs() ([]net.Addr, error) { return m.addrs, m.err }

type mockNetworkProvider struct {
	interfaces []networkInterface
	err        error
}

func (m mockNetworkProvider) Interfaces() ([]networkInterface, error) {
	return m.interfaces, m.err
}

func ipNet(s string) *net.IPNet {
	return &net.IPNet{IP: net.ParseIP(s), Mask: net.CIDRMask(24, 32)}
}

func TestGetPreferredIP(t *testing.T) {
	tests := []struct {
		name     string
		provider mockNetworkProvider
		want     string
	}{
		{"interfaces error", mockNetworkProvider{err: net.ErrClosed}, "localhost"},
		{"addrs error", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, err: net.ErrClosed},
		}}, "localhost"},
		{"down interface", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{addrs: []net.Addr{ipNet("192.168.1.2")}},
		}}, "localhost"},
		{"loopback interface", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp | net.FlagLoopback, addrs: []net.Addr{ipNet("192.168.1.2")}},
		}}, "localhost"},
		{"ip addr", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{&net.IPAddr{IP: net.ParseIP("192.168.1.100")}}},
		}}, "192.168.1.100"},
		{"public fallback", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("8.8.8.8")}},
		}}, "8.8.8.8"},
		{"private preferred", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("8.8.8.8"), ipNet("172.20.0.4")}},
		}}, "172.20.0.4"},
		{"skips loopback and ipv6", mockNetworkProvider{interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{ipNet("127.0.0.1"), ipNet("fe80::1"), ipNet("10.0.0.9")}},
		}}, "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getPreferredIP(tt.provider); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestGetPreferredIP_Real(t *testing.T) {
	ip := getPreferredIP(realNetworkProvider{})
	if ip == "localhost" {
		return
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		t.Errorf("expected an IPv4 address or localhost, got %s", ip)
	}
}

func TestApp_Run(t *testing.T) {
	app := createTestApp(t, testConfig(t))

	done := make(chan error, 1)
	go func() {
		done <- app.Run("127.0.0.1:0")
	}()

	select {
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	app.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
