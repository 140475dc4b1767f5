package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CookieName    = "crowdscore_session"
	SessionExpiry = 24 * time.Hour

	issuer  = "crowdscore"
	subject = "admin"
)

var (
	ErrInvalidToken = errors.New("invalid admin token")
	ErrExpiredToken = errors.New("admin token expired")
	ErrRevokedToken = errors.New("admin token revoked")
)

// Boxing words for password generation
var ringWords = []string{
	"jab", "hook", "uppercut", "cross", "clinch",
	"southpaw", "orthodox", "canvas", "corner", "bell",
	"ropes", "gloves", "knockout", "decision", "judge",
	"round", "referee", "belt", "contender",
}

// Auth issues and checks signed admin session tokens
type Auth struct {
	password string
	secret   []byte
	now      func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // token ID -> expiry
}

// Option configures an Auth
type Option func(*Auth)

// WithClock replaces time.Now when issuing and checking tokens
func WithClock(now func() time.Time) Option {
	return func(a *Auth) { a.now = now }
}

// New creates a new Auth. An empty secret gets a random one, so sessions do
// not survive a restart.
func New(password, secret string, opts ...Option) *Auth {
	a := &Auth{
		password: password,
		secret:   []byte(secret),
		now:      time.Now,
		revoked:  make(map[string]time.Time),
	}
	if secret == "" {
		a.secret = make([]byte, 32)
		rand.Read(a.secret)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GeneratePassword creates a random 3-word password
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		words[i] = ringWords[randomInt(len(ringWords))]
	}
	return strings.Join(words, "-")
}

// Login validates the password and returns a signed session token if valid
func (a *Auth) Login(password string) (string, bool) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) != 1 {
		return "", false
	}
	token, err := a.issue()
	if err != nil {
		return "", false
	}
	return token, true
}

func (a *Auth) issue() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionExpiry)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse checks a token's signature, expiry and revocation
func (a *Auth) Parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(subject),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.revoked[claims.ID]; ok {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Logout revokes a session token until it would have expired anyway
func (a *Auth) Logout(token string) {
	claims, err := a.Parse(token)
	if err != nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	for id, exp := range a.revoked {
		if now.After(exp) {
			delete(a.revoked, id)
		}
	}
	a.revoked[claims.ID] = claims.ExpiresAt.Time
}

// ValidateSession checks if a session token is valid
func (a *Auth) ValidateSession(token string) bool {
	_, err := a.Parse(token)
	return err == nil
}

// GetSessionFromRequest extracts and validates the session from a request
func (a *Auth) GetSessionFromRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return a.ValidateSession(cookie.Value)
}

// RequireAuth middleware for admin pages (redirects to login)
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.GetSessionFromRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, "/admin/login", http.StatusFound)
	})
}

// RequireAuthAPI middleware for API endpoints (returns 401)
func (a *Auth) RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.GetSessionFromRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - please log in"}`))
	})
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// randomInt returns a random int in [0, max)
func randomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
