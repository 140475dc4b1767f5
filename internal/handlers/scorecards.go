package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/crowdscore/internal/services"
)

// ==================== Schedule ====================

func (h *Handlers) handleListFights(w http.ResponseWriter, r *http.Request) {
	when := r.URL.Query().Get("when")
	if when == "" {
		when = services.WhenAll
	}

	fights, err := h.Schedule.List(r.Context(), when)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, FightsResponse{When: when, Fights: fights})
}

func (h *Handlers) handleRoundAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.History.RoundAnalytics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, analytics)
}

// ==================== Saved Scorecards ====================

func (h *Handlers) handleListScorecards(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		respondError(w, err)
		return
	}

	cards, err := h.History.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, cards)
}

func (h *Handlers) handleGetScorecard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	card, err := h.History.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	// No share link until a base URL is configured
	link, _ := h.History.ShareURL(r.Context(), id)
	respondOK(w, ScorecardResponse{Scorecard: card, ShareURL: link})
}

func (h *Handlers) handleScorecardQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.History.QRCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
