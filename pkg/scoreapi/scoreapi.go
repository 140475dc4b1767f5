// Package scoreapi provides a client for the hosted scorecard store, a
// PostgREST-style REST API that holds saved scorecards and the fight schedule.
package scoreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/abrezinsky/crowdscore/internal/logger"
)

// FlexString is a string type that can be unmarshaled from either a string or a number.
// Record IDs come back as integers or UUIDs depending on how the table was created.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler for FlexString
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	return fmt.Errorf("FlexString: cannot unmarshal %s", string(data))
}

// String returns the string value
func (f FlexString) String() string {
	return string(f)
}

// RoundScore is one round of a remote scorecard
type RoundScore struct {
	Round    int `json:"round"`
	Fighter1 int `json:"fighter1"`
	Fighter2 int `json:"fighter2"`
}

// ScorecardRecord is a row of the scorecards table
type ScorecardRecord struct {
	ID            FlexString   `json:"id,omitempty"`
	ClientID      string       `json:"client_id"`
	FightID       string       `json:"fight_id,omitempty"`
	Fighter1      string       `json:"fighter1"`
	Fighter2      string       `json:"fighter2"`
	RoundScores   []RoundScore `json:"round_scores"`
	TotalFighter1 int          `json:"total_fighter1"`
	TotalFighter2 int          `json:"total_fighter2"`
	Winner        string       `json:"winner"`
	Revision      int          `json:"revision"`
	FinalizedAt   time.Time    `json:"finalized_at"`
	CreatedAt     string       `json:"created_at,omitempty"`
}

// FightRecord is a row of the fights table
type FightRecord struct {
	ID             FlexString `json:"id"`
	Fighter1       string     `json:"fighter1"`
	Fighter2       string     `json:"fighter2"`
	Fighter1Record string     `json:"fighter1_record"`
	Fighter2Record string     `json:"fighter2_record"`
	Title          string     `json:"title"`
	FightDate      string     `json:"fight_date"`
	FightTime      string     `json:"fight_time"`
	Venue          string     `json:"venue"`
	City           string     `json:"city"`
	Network        string     `json:"network"`
	WeightClass    string     `json:"weight_class"`
	Rounds         int        `json:"rounds"`
	Status         string     `json:"status"`
}

// APIError is the error body returned by the REST API
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("score store returned status %d: %s (%s)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("score store returned status %d: %s", e.Status, e.Message)
}

// Client defines the interface for the hosted scorecard store
type Client interface {
	// InsertScorecard stores a scorecard, replacing an earlier revision with the same client ID
	InsertScorecard(ctx context.Context, rec ScorecardRecord) (ScorecardRecord, error)
	// ListScorecards returns saved scorecards, newest first. An empty fightID lists all.
	ListScorecards(ctx context.Context, fightID string) ([]ScorecardRecord, error)
	// FetchFights returns the fight schedule ordered by date
	FetchFights(ctx context.Context) ([]FightRecord, error)
	// Configured reports whether a base URL has been set
	Configured() bool
	// BaseURL returns the configured base URL
	BaseURL() string
	// SetBaseURL updates the base URL
	SetBaseURL(url string)
}

// HTTPClient is a real HTTP client for the scorecard store
type HTTPClient struct {
	mu         sync.RWMutex
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new client that authenticates with an API key
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// NewHTTPClientWithHTTPClient creates a new client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL, apiKey string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		log:        log,
	}
}

// Configured reports whether a base URL has been set
func (c *HTTPClient) Configured() bool {
	return c.BaseURL() != ""
}

// BaseURL returns the configured base URL
func (c *HTTPClient) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL updates the base URL
func (c *HTTPClient) SetBaseURL(url string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(url, "/")
	c.mu.Unlock()
}

// doRequest sends a request to the REST API and decodes a JSON response.
// Non-2xx responses are returned as *APIError.
func (c *HTTPClient) doRequest(ctx context.Context, method, table string, query url.Values, body, out any, prefer string) error {
	baseURL := c.BaseURL()
	if baseURL == "" {
		return fmt.Errorf("score store URL is not configured")
	}

	reqURL := fmt.Sprintf("%s/rest/v1/%s", baseURL, table)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	c.log.Debug("Score store request", "method", method, "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to score store: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("Score store response", "status", resp.StatusCode, "bytes", len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// InsertScorecard upserts a scorecard keyed on its client ID
func (c *HTTPClient) InsertScorecard(ctx context.Context, rec ScorecardRecord) (ScorecardRecord, error) {
	query := url.Values{}
	query.Set("on_conflict", "client_id")

	var rows []ScorecardRecord
	err := c.doRequest(ctx, http.MethodPost, "scorecards", query, []ScorecardRecord{rec}, &rows,
		"return=representation,resolution=merge-duplicates")
	if err != nil {
		return ScorecardRecord{}, err
	}
	if len(rows) == 0 {
		return ScorecardRecord{}, fmt.Errorf("score store returned no rows for scorecard %s", rec.ClientID)
	}
	return rows[0], nil
}

// ListScorecards returns saved scorecards, newest first
func (c *HTTPClient) ListScorecards(ctx context.Context, fightID string) ([]ScorecardRecord, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "created_at.desc")
	if fightID != "" {
		query.Set("fight_id", "eq."+fightID)
	}

	var rows []ScorecardRecord
	if err := c.doRequest(ctx, http.MethodGet, "scorecards", query, nil, &rows, ""); err != nil {
		return nil, err
	}
	return rows, nil
}

// FetchFights returns the fight schedule ordered by date
func (c *HTTPClient) FetchFights(ctx context.Context) ([]FightRecord, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "fight_date.asc")

	var rows []FightRecord
	if err := c.doRequest(ctx, http.MethodGet, "fights", query, nil, &rows, ""); err != nil {
		return nil, err
	}
	return rows, nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
