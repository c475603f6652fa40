package handler

import (
	"net/http"

	"github.com/Dan9191/chi-portal/internal/models"
	"github.com/Dan9191/chi-portal/internal/service"
)

type toggleRequest struct {
	Date models.Day `json:"date"`
}

// ListHabits returns active habits with streak statistics
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	habits, err := h.svc.ListHabits(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

// CreateHabit creates a habit
func (h *Handler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in service.HabitInput
	if err := decode(w, r, &in, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	habit, err := h.svc.CreateHabit(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

// GetHabit returns a single habit with statistics
func (h *Handler) GetHabit(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	habit, err := h.svc.GetHabit(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// UpdateHabit replaces a habit's editable fields
func (h *Handler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in service.HabitInput
	if err := decode(w, r, &in, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	habit, err := h.svc.UpdateHabit(r.Context(), userID, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// DeleteHabit deactivates a habit
func (h *Handler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteHabit(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "habit deleted"})
}

// ToggleHabit flips completion for a day; the body is optional and defaults to today
func (h *Handler) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req toggleRequest
	if err := decode(w, r, &req, true); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.ToggleHabit(r.Context(), userID, id, req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ExportHabits downloads the habits report as XML
func (h *Handler) ExportHabits(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := h.svc.ExportReport(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="habits.xml"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
