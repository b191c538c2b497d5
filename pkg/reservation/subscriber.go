package reservation

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pitabwire/frame/workerpool"
	"github.com/pitabwire/util"

	"github.com/dinechat/dinechat/pkg/events"
)

// Subscriber implements queue.SubscribeWorker. It reacts to
// reservation.confirmed events by marking the stored record confirmed and
// handing it to the forwarder.
type Subscriber struct {
	Repo      *Repository
	Forwarder *Forwarder
	Pool      workerpool.WorkerPool
}

// Handle is called by frame's pub/sub for each event message.
func (rs *Subscriber) Handle(ctx context.Context, _ map[string]string, message []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		util.Log(ctx).WithError(err).Error("reservation subscriber: unmarshal envelope")
		return err
	}

	if env.Type != events.ReservationConfirmed {
		return nil
	}

	var data events.ReservationData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		util.Log(ctx).WithError(err).Error("reservation subscriber: unmarshal payload")
		return err
	}

	rec, err := rs.Repo.LatestPendingBySession(ctx, env.SessionID)
	if err != nil {
		// The asynchronous save may have been lost; reconstruct the
		// record from the event payload.
		rec = &Record{
			SessionID:  env.SessionID,
			Restaurant: data.Restaurant,
			People:     data.People,
			Time:       data.Time,
			Allergies:  data.Allergies,
			GuestName:  data.Name,
		}
	}
	rec.Status = StatusConfirmed
	if rec.BookingURL == "" {
		rec.BookingURL = data.BookingURL
	}

	if rec.ID == "" {
		if err := rs.Repo.Create(ctx, rec); err != nil {
			util.Log(ctx).WithError(err).Error("reservation subscriber: create record")
			return err
		}
	} else if err := rs.Repo.Update(ctx, rec); err != nil {
		util.Log(ctx).WithError(err).Error("reservation subscriber: update record")
		return err
	}

	forward := func() {
		rs.Forwarder.Forward(ctx, rec)
	}
	if rs.Pool != nil {
		if err := rs.Pool.Submit(ctx, forward); err != nil {
			slog.WarnContext(ctx, "forward pool full", slog.String("reservation_id", rec.ID))
		}
	} else {
		go forward()
	}

	return nil
}
