package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/abrezinsky/crowdscore/internal/app"
	"github.com/abrezinsky/crowdscore/internal/auth"
	"github.com/abrezinsky/crowdscore/web"
)

type serveOptions struct {
	port       int
	adminPw    string
	baseURL    string
	remoteURL  string
	rateLimit  float64
	noKeyboard bool
	noBanner   bool
}

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF4D4F")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#4F8DFF")).
			Padding(0, 3)
	taglineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scoring web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, root, opts)
		},
	}
	addServeFlags(cmd, opts)
	return cmd
}

func addServeFlags(cmd *cobra.Command, opts *serveOptions) {
	f := cmd.Flags()
	f.IntVar(&opts.port, "port", 8081, "HTTP server port")
	f.StringVar(&opts.adminPw, "adminpw", "", "admin password (auto-generated if not set)")
	f.StringVar(&opts.baseURL, "base-url", "", "public base URL used for share links and QR codes")
	f.StringVar(&opts.remoteURL, "remote-url", "", "remote scorecard store URL")
	f.Float64Var(&opts.rateLimit, "rate-limit", 20, "API requests per second per IP (0 disables)")
	f.BoolVar(&opts.noKeyboard, "nokeyboard", false, "disable keyboard shortcuts")
	f.BoolVar(&opts.noBanner, "nobanner", false, "skip the startup banner")
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	applyIntFlag(cmd, "port", &cfg.Port, opts.port)
	applyStringFlag(cmd, "adminpw", &cfg.AdminPassword, opts.adminPw)
	applyStringFlag(cmd, "remote-url", &cfg.RemoteURL, opts.remoteURL)
	applyFloatFlag(cmd, "rate-limit", &cfg.RateLimit, opts.rateLimit)
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = opts.baseURL
		cfg.Settings.BaseURL = opts.baseURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := ensureDataDir(cfg.DBPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !opts.noBanner {
		printBanner(out)
	}

	password := cfg.AdminPassword
	if password == "" {
		password = auth.GeneratePassword()
	}
	appLog := newLogger(out, cfg)

	a, err := app.New(appLog, cfg, web.GetTemplatesFS(), web.GetStaticFS(), auth.New(password, cfg.TokenSecret))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	appLog.Info("Admin password", "password", password)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Run(cfg.Addr())
	}()

	if opts.noKeyboard {
		fmt.Fprintln(out, "Keyboard shortcuts disabled")
	} else {
		c := newConsole(out, appLog, fmt.Sprintf("http://localhost:%d", cfg.Port))
		c.printHelp()
		go listenForKeyboard(ctx, c, stop)
	}

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		appLog.Info("Shutting down")
		return nil
	}
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, bannerStyle.Render("C R O W D S C O R E"))
	fmt.Fprintln(w, taglineStyle.Render("  score every round, settle every argument"))
	fmt.Fprintln(w)
}
