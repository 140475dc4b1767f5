package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/crowdscore/internal/auth"
)

// LoginPageData holds data for the login template
type LoginPageData struct {
	Error string
	Next  string
}

// safeNext keeps post-login redirects on this site
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/admin") || strings.HasPrefix(next, "//") {
		return "/admin"
	}
	return next
}

// handleLoginPage renders the login form
func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if h.Auth.GetSessionFromRequest(r) {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}

	h.templates.AdminLogin.Execute(w, LoginPageData{Next: next})
}

// handleLogin exchanges the admin password for a signed session cookie
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.FormValue("next"))

	token, ok := h.Auth.Login(r.FormValue("password"))
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		h.templates.AdminLogin.Execute(w, LoginPageData{Error: "Invalid password", Next: next})
		return
	}

	auth.SetSessionCookie(w, token)
	http.Redirect(w, r, next, http.StatusFound)
}

// handleLogout revokes the session and redirects to login
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.Auth.Logout(cookie.Value)
	}

	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}
