package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dinechat/dinechat/pkg/reservation"
)

// Handler provides REST endpoints for reservation administration.
type Handler struct {
	repo      *reservation.Repository
	forwarder *reservation.Forwarder
}

// NewHandler creates a new reservation API handler.
func NewHandler(repo *reservation.Repository, forwarder *reservation.Forwarder) *Handler {
	return &Handler{repo: repo, forwarder: forwarder}
}

// RegisterRoutes registers all reservation API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/reservations", h.List)
	mux.HandleFunc("GET /api/v1/reservations/{id}", h.Get)
	mux.HandleFunc("GET /api/v1/reservations/{id}/forwards", h.ListForwards)
	mux.HandleFunc("GET /api/v1/reservations/{id}/dead-letters", h.ListDeadLetters)
	mux.HandleFunc("POST /api/v1/reservations/{id}/dead-letters/{dlid}/replay", h.ReplayDeadLetter)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func toReservationResponse(rec *reservation.Record) ReservationResponse {
	return ReservationResponse{
		ID:         rec.ID,
		SessionID:  rec.SessionID,
		Restaurant: rec.Restaurant,
		BookingURL: rec.BookingURL,
		People:     rec.People,
		Time:       rec.Time,
		Allergies:  rec.Allergies,
		GuestName:  rec.GuestName,
		Status:     rec.Status,
		Attempts:   rec.Attempts,
		LastError:  rec.LastError,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		ModifiedAt: rec.ModifiedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/v1/reservations
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	recs, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}

	resp := make([]ReservationResponse, 0, len(recs))
	for i := range recs {
		resp = append(resp, toReservationResponse(&recs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/reservations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "reservation not found")
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(rec))
}

// ListForwards handles GET /api/v1/reservations/{id}/forwards
func (h *Handler) ListForwards(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.repo.ListForwards(r.Context(), r.PathValue("id"), 50, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list forward attempts")
		return
	}

	resp := make([]ForwardResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, ForwardResponse{
			ID:            a.ID,
			Restaurant:    a.Restaurant,
			ResponseCode:  a.ResponseCode,
			AttemptNumber: a.AttemptNumber,
			Status:        a.Status,
			Error:         a.Error,
			DurationMs:    a.DurationMs,
			CreatedAt:     a.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListDeadLetters handles GET /api/v1/reservations/{id}/dead-letters
func (h *Handler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	letters, err := h.repo.ListDeadLetters(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list dead letters")
		return
	}

	resp := make([]DeadLetterResponse, 0, len(letters))
	for _, dl := range letters {
		resp = append(resp, DeadLetterResponse{
			ID:         dl.ID,
			Restaurant: dl.Restaurant,
			LastError:  dl.LastError,
			Attempts:   dl.Attempts,
			CreatedAt:  dl.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReplayDeadLetter handles POST /api/v1/reservations/{id}/dead-letters/{dlid}/replay
func (h *Handler) ReplayDeadLetter(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	dlid := r.PathValue("dlid")

	dl, err := h.repo.GetDeadLetterByID(r.Context(), dlid)
	if err != nil || dl.ReservationID != id {
		writeError(w, http.StatusNotFound, "dead letter not found")
		return
	}
	if !dl.Replayable {
		writeError(w, http.StatusConflict, "dead letter already replayed")
		return
	}

	rec, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		// The record may predate persistence; fall back to the payload
		// frozen in the dead letter.
		var frozen reservation.Record
		if jsonErr := json.Unmarshal([]byte(dl.Payload), &frozen); jsonErr != nil {
			writeError(w, http.StatusInternalServerError, "corrupt dead letter payload")
			return
		}
		rec = &frozen
	}

	if err := h.repo.MarkDeadLetterReplayed(r.Context(), dlid); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mark dead letter replayed")
		return
	}

	// The forward outlives the request.
	go h.forwarder.Forward(context.WithoutCancel(r.Context()), rec)
	w.WriteHeader(http.StatusAccepted)
}
