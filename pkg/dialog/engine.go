package dialog

import (
	"context"
	"log/slog"
	"time"

	"github.com/pitabwire/frame/workerpool"
	"github.com/pitabwire/util"

	"github.com/dinechat/dinechat/pkg/events"
)

// DataUnavailableMessage is returned when reference data cannot be loaded.
// The turn leaves the session untouched so the user can simply retry.
const DataUnavailableMessage = "I'm sorry, something went wrong on my end. Please try again in a moment."

const (
	genericRetry = "I'm sorry, I didn't understand that. Could you please rephrase?"
	resetNotice  = "We seem to be having trouble understanding each other, so let's start over from the beginning."

	longConversationHint = "\n(This is getting to be a long conversation. If you would like to start from scratch, just say 'main menu'.)"
)

// DefaultLongConversationThreshold is the history length at which the
// engine nudges the user once about the main menu escape.
const DefaultLongConversationThreshold = 40

// DataSource supplies the current intents, catalog and value index.
type DataSource interface {
	Snapshot() (*ReferenceData, error)
}

// ReservationSink persists completed reservations. Saves run off the
// request path; a failing sink never fails a turn.
type ReservationSink interface {
	Save(ctx context.Context, sessionID string, r Reservation) error
}

// EngineConfig holds engine tunables.
type EngineConfig struct {
	LongConversationThreshold int
}

// Engine drives the scripted restaurant dialog over per-session state.
type Engine struct {
	data DataSource
	sink ReservationSink
	pub  *events.Publisher
	pool workerpool.WorkerPool

	longThreshold int
}

// NewEngine wires the dialog engine. Sink, publisher and pool may be nil;
// the corresponding side effects are then skipped.
func NewEngine(data DataSource, sink ReservationSink, pub *events.Publisher, pool workerpool.WorkerPool, cfg EngineConfig) *Engine {
	threshold := cfg.LongConversationThreshold
	if threshold <= 0 {
		threshold = DefaultLongConversationThreshold
	}
	return &Engine{
		data:          data,
		sink:          sink,
		pub:           pub,
		pool:          pool,
		longThreshold: threshold,
	}
}

// ProcessTurn runs one user message through the state machine and returns
// the bot's reply. Sessions are processed one turn at a time; the caller
// must not interleave turns for the same session.
func (e *Engine) ProcessTurn(ctx context.Context, s *Session, raw string) TurnResult {
	ref, err := e.data.Snapshot()
	if err != nil {
		util.Log(ctx).WithError(err).Error("reference data unavailable")
		return TurnResult{Response: DataUnavailableMessage, Stage: s.Stage}
	}

	norm := Normalize(raw)
	tc := &turnContext{
		raw:     raw,
		norm:    norm,
		tokens:  Tokenize(norm),
		intent:  ref.Intents.Resolve(raw),
		index:   ref.Index,
		catalog: ref.Catalog,
	}
	from := s.Stage

	var res stageResult
	switch {
	case tc.intent == "main_menu":
		s.resetAll()
		res = answered("Okay, let's start over. " + CuisinePrompt(ref.Index))
		e.emit(ctx, events.SessionReset, s.ID, &events.SessionResetData{Reason: "main_menu"})
	case tc.intent == "back":
		if s.Stage > StageCuisine {
			s.Stage--
		}
		s.FailCount = 0
		msg := "Okay, going back to the previous step."
		if prompt := promptFor(s.Stage, s, tc); prompt != "" {
			msg += " " + prompt
		}
		res = answered(msg)
	case norm == "" && s.Stage != StageAllergies:
		// An empty message answers nothing, except at the allergies
		// question where it means "none".
		res = notUnderstood()
	default:
		if h := stageHandlers[s.Stage]; h != nil {
			res = h(s, tc)
		}
	}

	response := res.response
	hardReset := false
	if res.understood {
		s.FailCount = 0
	} else {
		s.FailCount++
		switch {
		case s.FailCount >= 3:
			s.resetAll()
			hardReset = true
			response = resetNotice + " " + CuisinePrompt(ref.Index)
			s.ResetHistory(response)
			e.emit(ctx, events.SessionReset, s.ID, &events.SessionResetData{Reason: "retry_limit"})
		case s.FailCount == 1:
			if response == "" {
				response = genericRetry
				if prompt, ok := s.LastPrompt(); ok {
					response += "\n" + prompt
				}
			}
		default:
			// Second failure in a row: replay the open question verbatim.
			if prompt, ok := s.LastPrompt(); ok {
				response = prompt
			} else if response == "" {
				response = genericRetry
			}
		}
	}

	if !hardReset {
		if s.HistoryLen() == e.longThreshold {
			response += longConversationHint
		}
		s.Record(raw, response)
	}

	if res.reservation != nil {
		resv := *res.reservation
		e.saveReservation(ctx, s.ID, resv)
		e.emit(ctx, events.ReservationCreated, s.ID, reservationPayload(resv, tc.catalog))
	}
	if res.confirmed {
		e.emit(ctx, events.ReservationConfirmed, s.ID, reservationPayload(s.Pending, tc.catalog))
	}

	if s.Stage != from {
		e.emit(ctx, events.StateTransition, s.ID, &events.StateTransitionData{
			FromStage: from.String(),
			ToStage:   s.Stage.String(),
			Intent:    tc.intent,
		})
	}
	e.emit(ctx, events.TurnProcessed, s.ID, &events.TurnProcessedData{
		Input:      raw,
		Response:   response,
		Understood: res.understood,
		Stage:      s.Stage.String(),
		FailCount:  s.FailCount,
	})

	return TurnResult{
		Response:    response,
		Understood:  res.understood,
		Stage:       s.Stage,
		Reservation: res.reservation,
		Confirmed:   res.confirmed,
	}
}

// Welcome builds the greeting for a new session and seeds its history so
// the retry policy has a prompt to replay on the very first turn.
func (e *Engine) Welcome(ctx context.Context, s *Session) string {
	ref, err := e.data.Snapshot()
	if err != nil {
		util.Log(ctx).WithError(err).Error("reference data unavailable")
		return DataUnavailableMessage
	}
	welcome := WelcomeMessage(ref.Index)
	s.SeedWelcome(welcome)
	e.emit(ctx, events.SessionStarted, s.ID, &events.SessionStartedData{})
	return welcome
}

func (e *Engine) saveReservation(ctx context.Context, sessionID string, r Reservation) {
	if e.sink == nil {
		return
	}
	task := func() {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := e.sink.Save(saveCtx, sessionID, r); err != nil {
			slog.Error("reservation save failed",
				slog.String("session_id", sessionID),
				slog.String("restaurant", r.Restaurant),
				slog.String("error", err.Error()))
		}
	}
	if e.pool == nil {
		go task()
		return
	}
	if err := e.pool.Submit(ctx, task); err != nil {
		slog.Warn("worker pool submit failed, saving inline",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		go task()
	}
}

func (e *Engine) emit(ctx context.Context, typ events.EventType, sessionID string, data interface{}) {
	if e.pub == nil {
		return
	}
	if err := e.pub.Emit(ctx, typ, sessionID, data); err != nil {
		slog.Warn("event emit failed",
			slog.String("event_type", string(typ)),
			slog.String("error", err.Error()))
	}
}

func reservationPayload(r Reservation, catalog []Restaurant) *events.ReservationData {
	data := &events.ReservationData{
		Restaurant: r.Restaurant,
		People:     r.People,
		Time:       r.Time,
		Allergies:  r.Allergies,
		Name:       r.Name,
	}
	for _, c := range catalog {
		if c.Name == r.Restaurant {
			data.BookingURL = c.BookingURL
			break
		}
	}
	return data
}
