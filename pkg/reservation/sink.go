package reservation

import (
	"context"

	"github.com/dinechat/dinechat/pkg/dialog"
)

// Sink persists reservations completed by the dialog engine. It satisfies
// dialog.ReservationSink; the engine calls Save off the request path.
type Sink struct {
	repo *Repository
}

// NewSink creates a sink backed by the reservation repository.
func NewSink(repo *Repository) *Sink {
	return &Sink{repo: repo}
}

// Save stores a completed reservation as pending. The booking URL is
// filled in later from the confirmation event.
func (s *Sink) Save(ctx context.Context, sessionID string, r dialog.Reservation) error {
	return s.repo.Create(ctx, &Record{
		SessionID:  sessionID,
		Restaurant: r.Restaurant,
		People:     r.People,
		Time:       r.Time,
		Allergies:  r.Allergies,
		GuestName:  r.Name,
		Status:     StatusPending,
	})
}
