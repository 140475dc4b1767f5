package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/crowdscore/internal/models"
	"github.com/abrezinsky/crowdscore/internal/services"
)

// IndexPageData lists the fights shown on the home page
type IndexPageData struct {
	Today    []models.Fight
	Upcoming []models.Fight
}

// ScorePageData seeds the scorecard page. The page starts a bout from these
// values unless it is resuming one.
type ScorePageData struct {
	BoutID  string
	FightID string
	Rounds  int
}

// ScorecardPageData renders a saved scorecard read-only
type ScorecardPageData struct {
	Card      *models.Scorecard
	ShareURL  string
	Analytics []models.RoundAnalytics
}

// ==================== Public Pages ====================

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data IndexPageData
	// A failing schedule still leaves manual scoring usable
	data.Today, _ = h.Schedule.List(ctx, services.WhenToday)
	data.Upcoming, _ = h.Schedule.List(ctx, services.WhenUpcoming)
	h.templates.Index.ExecuteTemplate(w, "layout", data)
}

func (h *Handlers) handleScorePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := ScorePageData{
		BoutID:  q.Get("bout"),
		FightID: q.Get("fight"),
	}
	if v := q.Get("rounds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > services.MaxRounds {
			respondError(w, BadRequest(fmt.Sprintf("rounds must be between 1 and %d", services.MaxRounds)))
			return
		}
		data.Rounds = n
	}
	h.templates.Score.ExecuteTemplate(w, "layout", data)
}

func (h *Handlers) handleScorecardPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	card, err := h.History.Get(ctx, id)
	if err != nil {
		apiErr := ToAPIError(err)
		http.Error(w, apiErr.Message, apiErr.Status)
		return
	}

	data := ScorecardPageData{Card: card}
	data.ShareURL, _ = h.History.ShareURL(ctx, id)
	if card.FightID != "" {
		data.Analytics, _ = h.History.RoundAnalytics(ctx, card.FightID)
	}
	h.templates.Scorecard.ExecuteTemplate(w, "layout", data)
}

// ==================== Admin Pages ====================

func (h *Handlers) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	data := AdminPageData{
		Title:     "Admin Dashboard",
		PageTitle: "Admin Dashboard",
		ActiveNav: "dashboard",
	}
	h.templates.AdminDashboard.ExecuteTemplate(w, "admin", data)
}

// ==================== Stats ====================

func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.History.Stats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{
		"scorecards": stats,
		"live_bouts": h.Bouts.LiveBouts(),
	})
}

// ==================== Scorecards ====================

func (h *Handlers) handleDeleteScorecard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, BadRequest("Missing id parameter"))
		return
	}
	if err := h.History.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// ==================== Schedule ====================

func (h *Handlers) handleRefreshFights(w http.ResponseWriter, r *http.Request) {
	result, err := h.Schedule.Refresh(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleSeedFights(w http.ResponseWriter, r *http.Request) {
	count, err := h.Schedule.SeedMockFights(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, fmt.Sprintf("Seeded %d mock fights", count))
}

// ==================== Settings ====================

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.AllSettings(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondOK(w, SettingsResponse{
		ItemHeight:     s.ItemHeight,
		WheelThreshold: s.WheelThreshold,
		TapDebounceMs:  s.TapDebounceMs,
		OutsideClick:   s.OutsideClick,
		Amendments:     s.Amendments,
		DefaultRounds:  s.DefaultRounds,
		BaseURL:        s.BaseURL,
	})
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	update := services.SettingsUpdate{
		ItemHeight:     req.ItemHeight,
		WheelThreshold: req.WheelThreshold,
		TapDebounceMs:  req.TapDebounceMs,
		OutsideClick:   req.OutsideClick,
		Amendments:     req.Amendments,
		DefaultRounds:  req.DefaultRounds,
		BaseURL:        req.BaseURL,
	}
	if err := h.Settings.UpdateSettings(r.Context(), update); err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, "Settings updated")
}

// ==================== Database Management ====================

func (h *Handlers) handleResetDatabase(w http.ResponseWriter, r *http.Request) {
	var req DatabaseResetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Settings.ResetTables(r.Context(), req.Tables)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, result.Message)
}
