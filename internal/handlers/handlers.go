package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/abrezinsky/crowdscore/internal/auth"
	"github.com/abrezinsky/crowdscore/internal/metrics"
	"github.com/abrezinsky/crowdscore/internal/services"
	"github.com/abrezinsky/crowdscore/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// AdminPageData holds the data passed to admin templates
type AdminPageData struct {
	Title     string
	PageTitle string
	ActiveNav string
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index          *template.Template
	Score          *template.Template
	Scorecard      *template.Template
	AdminLogin     *template.Template
	AdminDashboard *template.Template
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Bouts        services.ScorecardServicer
	Schedule     services.ScheduleServicer
	History      services.HistoryServicer
	Settings     services.SettingsServicer
	Auth         *auth.Auth
	Hub          *websocket.Hub
	Metrics      *metrics.Metrics
	Limiter      *IPRateLimiter
	Log          HTTPLogger
	templates    *Templates
	staticServer http.Handler
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies. A nil limiter
// disables API rate limiting.
func New(
	bouts services.ScorecardServicer,
	schedule services.ScheduleServicer,
	history services.HistoryServicer,
	settings services.SettingsServicer,
	templatesFS fs.FS,
	staticServer http.Handler,
	adminAuth *auth.Auth,
	hub *websocket.Hub,
	m *metrics.Metrics,
	limiter *IPRateLimiter,
	log HTTPLogger,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Handlers{
		Bouts:        bouts,
		Schedule:     schedule,
		History:      history,
		Settings:     settings,
		Auth:         adminAuth,
		Hub:          hub,
		Metrics:      m,
		Limiter:      limiter,
		Log:          log,
		templates:    templates,
		staticServer: staticServer,
	}, nil
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// NewForTesting creates a Handlers instance without loading templates (for testing API endpoints)
func NewForTesting(
	bouts services.ScorecardServicer,
	schedule services.ScheduleServicer,
	history services.HistoryServicer,
	settings services.SettingsServicer,
) *Handlers {
	return &Handlers{
		Bouts:    bouts,
		Schedule: schedule,
		History:  history,
		Settings: settings,
		Auth:     auth.New("test-password", "test-secret"),
		Log:      NoopHTTPLogger{},
	}
}

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Index, err = template.ParseFS(templatesFS, "layout.html", "index.html"); err != nil {
		return nil, fmt.Errorf("index template: %w", err)
	}
	if t.Score, err = template.ParseFS(templatesFS, "layout.html", "score.html"); err != nil {
		return nil, fmt.Errorf("score template: %w", err)
	}
	if t.Scorecard, err = template.ParseFS(templatesFS, "layout.html", "scorecard.html"); err != nil {
		return nil, fmt.Errorf("scorecard template: %w", err)
	}
	if t.AdminLogin, err = template.ParseFS(templatesFS, "admin/login.html"); err != nil {
		return nil, fmt.Errorf("admin login template: %w", err)
	}
	if t.AdminDashboard, err = template.ParseFS(templatesFS, "admin/layout.html", "admin/dashboard.html"); err != nil {
		return nil, fmt.Errorf("admin dashboard template: %w", err)
	}

	return t, nil
}
