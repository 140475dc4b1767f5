package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/crowdscore/internal/scorecard"
	"github.com/abrezinsky/crowdscore/internal/services"
)

// pickerActions are the gestures accepted on /picker/{action}
var pickerActions = map[string]bool{
	"activate":   true,
	"drag-start": true,
	"drag-move":  true,
	"drag-end":   true,
	"wheel":      true,
	"tap":        true,
	"outside":    true,
	"cancel":     true,
}

// boutResponse writes the view returned by a bout operation
func boutResponse(w http.ResponseWriter, view services.BoutView, err error) {
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, view)
}

func (h *Handlers) handleStartBout(w http.ResponseWriter, r *http.Request) {
	var req services.StartRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Bouts.Start(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, view)
}

func (h *Handlers) handleGetBout(w http.ResponseWriter, r *http.Request) {
	view, err := h.Bouts.Get(r.Context(), chi.URLParam(r, "id"))
	boutResponse(w, view, err)
}

func (h *Handlers) handleRecordWinner(w http.ResponseWriter, r *http.Request) {
	var req WinnerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	corner, err := scorecard.ParseCorner(req.Corner)
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Bouts.RecordWinner(r.Context(), chi.URLParam(r, "id"), corner)
	boutResponse(w, view, err)
}

func (h *Handlers) handleSetNames(w http.ResponseWriter, r *http.Request) {
	var req NamesRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Bouts.SetNames(r.Context(), chi.URLParam(r, "id"), req.CornerA, req.CornerB)
	boutResponse(w, view, err)
}

func (h *Handlers) handleSetRound(w http.ResponseWriter, r *http.Request) {
	round, err := parseIntParam(r, "round")
	if err != nil {
		respondError(w, err)
		return
	}
	var req RoundRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Bouts.SetPair(r.Context(), chi.URLParam(r, "id"), round, req.A, req.B)
	boutResponse(w, view, err)
}

func (h *Handlers) handlePicker(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if !pickerActions[action] {
		respondError(w, NotFound("Unknown picker action: "+action))
		return
	}
	var req PickerRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	view, err := h.Bouts.Apply(r.Context(), chi.URLParam(r, "id"), services.BoutCommand{
		Action: action,
		Round:  req.Round,
		Corner: req.Corner,
		Y:      req.Y,
		DeltaY: req.DeltaY,
		Index:  req.Index,
	})
	boutResponse(w, view, err)
}

func (h *Handlers) handleFinalize(w http.ResponseWriter, r *http.Request) {
	view, err := h.Bouts.Finalize(r.Context(), chi.URLParam(r, "id"))
	boutResponse(w, view, err)
}

func (h *Handlers) handleReset(w http.ResponseWriter, r *http.Request) {
	result, err := h.Bouts.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}
