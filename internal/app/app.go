package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/abrezinsky/crowdscore/internal/auth"
	"github.com/abrezinsky/crowdscore/internal/config"
	"github.com/abrezinsky/crowdscore/internal/handlers"
	"github.com/abrezinsky/crowdscore/internal/logger"
	"github.com/abrezinsky/crowdscore/internal/metrics"
	"github.com/abrezinsky/crowdscore/internal/persistence"
	"github.com/abrezinsky/crowdscore/internal/repository"
	"github.com/abrezinsky/crowdscore/internal/scorecard"
	"github.com/abrezinsky/crowdscore/internal/services"
	"github.com/abrezinsky/crowdscore/internal/websocket"
	"github.com/abrezinsky/crowdscore/pkg/scoreapi"
)

const shutdownTimeout = 5 * time.Second

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     *repository.Repository
	settings *services.SettingsService
	schedule *services.ScheduleService
	bouts    *services.ScorecardService
	server   *http.Server
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg config.Config, templatesFS, staticFS fs.FS, adminAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	client := RemoteClient(cfg, log)

	settingsService := services.NewSettingsService(log, repo, cfg.Settings)
	scheduleService := services.NewScheduleService(log, repo, client)
	historyService := services.NewHistoryService(log, repo, settingsService)
	m := metrics.New()

	boutService := services.NewScorecardService(log, Sink(client, repo, log), settingsService,
		services.WithSchedule(scheduleService),
		services.WithMetrics(m),
	)

	hub := websocket.New(log, boutService)
	hub.Start()
	boutService.SetBroadcaster(hub)

	var limiter *handlers.IPRateLimiter
	if cfg.RateLimit > 0 {
		limiter = handlers.NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	var httpLog handlers.HTTPLogger = handlers.NoopHTTPLogger{}
	if l, ok := log.(handlers.HTTPLogger); ok {
		httpLog = l
	}

	h, err := handlers.New(
		boutService,
		scheduleService,
		historyService,
		settingsService,
		templatesFS,
		handlers.NewStaticServer(staticFS),
		adminAuth,
		hub,
		m,
		limiter,
		httpLog,
	)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		log:      log,
		handlers: h,
		repo:     repo,
		settings: settingsService,
		schedule: scheduleService,
		bouts:    boutService,
		server: &http.Server{
			Handler:           h.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// RemoteClient returns the scorecard API client, or nil when no remote
// store is configured.
func RemoteClient(cfg config.Config, log logger.Logger) scoreapi.Client {
	if cfg.RemoteURL == "" {
		return nil
	}
	return scoreapi.NewHTTPClient(cfg.RemoteURL, cfg.RemoteAPIKey, cfg.RemoteTimeout, log)
}

// Sink picks where finalized scorecards go. With a remote store the local
// database is both the fallback and a mirror.
func Sink(client scoreapi.Client, repo repository.ScorecardRepository, log logger.Logger) scorecard.ResultSink {
	local := persistence.NewLocalSink(repo)
	if client == nil {
		return local
	}
	return persistence.NewFallbackSink(persistence.NewRemoteSink(client), local, log, persistence.WithMirror(repo))
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Bouts returns the live scorecard service
func (a *App) Bouts() *services.ScorecardService {
	return a.bouts
}

// Settings returns the settings service
func (a *App) Settings() *services.SettingsService {
	return a.settings
}

// Schedule returns the fight schedule service
func (a *App) Schedule() *services.ScheduleService {
	return a.schedule
}

// Close stops the server and closes the database
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Warn("Server shutdown failed", "error", err)
	}
	if err := a.repo.Close(); err != nil {
		a.log.Warn("Failed to close database", "error", err)
	}
}

// Run starts the HTTP server and blocks until Close is called
func (a *App) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	// Set default base URL if not configured, using detected LAN IP
	ip := getPreferredIP(realNetworkProvider{})
	baseURL := fmt.Sprintf("http://%s:%d", ip, ln.Addr().(*net.TCPAddr).Port)
	a.setDefaultBaseURL(baseURL)

	if err := a.schedule.EnsureFresh(context.Background()); err != nil {
		a.log.Warn("Fight schedule unavailable", "error", err)
	}

	a.log.Info("Server starting", "url", baseURL)
	a.log.Info("Admin URL", "url", baseURL+"/admin")
	if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// setDefaultBaseURL sets the base URL setting if not already configured
// or if current value uses localhost (which isn't useful for QR codes)
func (a *App) setDefaultBaseURL(baseURL string) {
	ctx := context.Background()
	existing, _ := a.settings.GetBaseURL(ctx)

	if existing == "" || strings.Contains(existing, "localhost") {
		if err := a.settings.SetBaseURL(ctx, baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the address phones on the same network can reach.
// Private IPv4 ranges win; localhost when nothing else is up.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
