package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestIndexPage(t *testing.T) {
	ts := newTestSetup(t)

	w := ts.get(t, "/")
	expectStatus(t, w, http.StatusOK)
	body := w.Body.String()
	today, upcoming, ok := strings.Cut(body, "upcoming:")
	if !ok {
		t.Fatalf("unexpected page: %q", body)
	}
	if !strings.Contains(today, "mock_1") || strings.Contains(today, "mock_3") {
		t.Errorf("unexpected today list: %q", today)
	}
	if !strings.Contains(upcoming, "mock_3") || strings.Contains(upcoming, "mock_1") {
		t.Errorf("unexpected upcoming list: %q", upcoming)
	}
}

func TestScorePage(t *testing.T) {
	ts := newTestSetup(t)

	tests := []struct {
		name   string
		query  string
		status int
		want   string
	}{
		{"blank", "", http.StatusOK, "bout= fight= rounds=0"},
		{"scheduled", "?fight=mock_2", http.StatusOK, "fight=mock_2"},
		{"resume", "?bout=abc&rounds=6", http.StatusOK, "bout=abc fight= rounds=6"},
		{"rounds not a number", "?rounds=many", http.StatusBadRequest, "rounds must be between 1 and 20"},
		{"rounds too high", "?rounds=21", http.StatusBadRequest, "rounds must be between 1 and 20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.get(t, "/score"+tt.query)
			expectStatus(t, w, tt.status)
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, w.Body.String())
			}
		})
	}
}

func TestScorecardPage(t *testing.T) {
	ts := newTestSetup(t)
	ts.saveScorecard(t, "c1", "fight_1")

	w := ts.get(t, "/scorecards/c1")
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Blue 29-27 share=") {
		t.Errorf("unexpected page: %q", w.Body.String())
	}

	ts.settings.SetBaseURL(context.Background(), "https://score.example.com")
	w = ts.get(t, "/scorecards/c1")
	if !strings.Contains(w.Body.String(), "share=https://score.example.com/scorecards/c1") {
		t.Errorf("expected share link, got %q", w.Body.String())
	}

	w = ts.get(t, "/scorecards/missing")
	expectStatus(t, w, http.StatusNotFound)
	if !strings.Contains(w.Body.String(), "scorecard not found") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}
