package scoreapi

import (
	"context"
	"strconv"
	"sync"
)

// MockClient is a mock score store client for testing. It is safe for
// concurrent use since saves run on background goroutines.
type MockClient struct {
	mu        sync.Mutex
	fights    []FightRecord
	cards     []ScorecardRecord
	baseURL   string
	fetchErr  error
	insertErr error
	listErr   error
	nextID    int
	inserts   int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithFights sets the fights to return
func WithFights(fights []FightRecord) MockOption {
	return func(m *MockClient) {
		m.fights = fights
	}
}

// WithFetchError sets an error to return from FetchFights
func WithFetchError(err error) MockOption {
	return func(m *MockClient) {
		m.fetchErr = err
	}
}

// WithInsertError sets an error to return from InsertScorecard
func WithInsertError(err error) MockOption {
	return func(m *MockClient) {
		m.insertErr = err
	}
}

// WithListError sets an error to return from ListScorecards
func WithListError(err error) MockOption {
	return func(m *MockClient) {
		m.listErr = err
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) MockOption {
	return func(m *MockClient) {
		m.baseURL = url
	}
}

// NewMockClient creates a new mock client
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		baseURL: "http://mock-scorestore.local",
		fights:  DefaultMockFights(),
		nextID:  100,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured reports whether a base URL has been set
func (m *MockClient) Configured() bool {
	return m.BaseURL() != ""
}

// BaseURL returns the configured base URL
func (m *MockClient) BaseURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// SetBaseURL updates the base URL
func (m *MockClient) SetBaseURL(url string) {
	m.mu.Lock()
	m.baseURL = url
	m.mu.Unlock()
}

// SetInsertError changes the InsertScorecard error after construction
func (m *MockClient) SetInsertError(err error) {
	m.mu.Lock()
	m.insertErr = err
	m.mu.Unlock()
}

// InsertScorecard stores the record, replacing one with the same client ID
func (m *MockClient) InsertScorecard(ctx context.Context, rec ScorecardRecord) (ScorecardRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.insertErr != nil {
		return ScorecardRecord{}, m.insertErr
	}
	for i, existing := range m.cards {
		if existing.ClientID == rec.ClientID {
			rec.ID = existing.ID
			m.cards[i] = rec
			return rec, nil
		}
	}
	m.nextID++
	rec.ID = FlexString(strconv.Itoa(m.nextID))
	m.cards = append(m.cards, rec)
	return rec, nil
}

// ListScorecards returns stored records, newest first
func (m *MockClient) ListScorecards(ctx context.Context, fightID string) ([]ScorecardRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []ScorecardRecord
	for i := len(m.cards) - 1; i >= 0; i-- {
		if fightID == "" || m.cards[i].FightID == fightID {
			out = append(out, m.cards[i])
		}
	}
	return out, nil
}

// FetchFights returns the configured fights or error
func (m *MockClient) FetchFights(ctx context.Context) ([]FightRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.fights, nil
}

// Scorecards returns the stored records (for testing)
func (m *MockClient) Scorecards() []ScorecardRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ScorecardRecord(nil), m.cards...)
}

// InsertCalls returns how many times InsertScorecard was called
func (m *MockClient) InsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts
}

// DefaultMockFights returns a small schedule for demos and tests
func DefaultMockFights() []FightRecord {
	return []FightRecord{
		{ID: "101", Fighter1: "Tyson Fury", Fighter2: "Oleksandr Usyk", Fighter1Record: "34-1-1",
			Fighter2Record: "22-0-0", Title: "Undisputed Heavyweight Championship", FightDate: "2026-05-16",
			Venue: "Kingdom Arena", City: "Riyadh", Network: "DAZN", WeightClass: "Heavyweight", Rounds: 12,
			Status: "upcoming"},
		{ID: "102", Fighter1: "Canelo Alvarez", Fighter2: "Terence Crawford", Fighter1Record: "63-2-2",
			Fighter2Record: "41-0-0", Title: "Super Middleweight Championship", FightDate: "2026-06-20",
			Venue: "Allegiant Stadium", City: "Las Vegas", Network: "Netflix", WeightClass: "Super Middleweight",
			Rounds: 12, Status: "upcoming"},
	}
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)
