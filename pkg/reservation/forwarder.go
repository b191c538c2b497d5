package reservation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/pitabwire/frame/workerpool"

	"github.com/dinechat/dinechat/pkg/events"
	"github.com/dinechat/dinechat/pkg/urlvalidation"
)

const maxBreakers = 10000

// ForwarderConfig holds forwarding-related settings.
type ForwarderConfig struct {
	Secret            string
	MaxRetries        int
	TimeoutSec        int
	BackoffInitialSec int
	BackoffMaxSec     int
	CBFailThreshold   int
	CBResetTimeoutSec int
}

// bookingRequest is the JSON body POSTed to a restaurant's booking endpoint.
type bookingRequest struct {
	ReservationID string `json:"reservation_id"`
	Restaurant    string `json:"restaurant"`
	GuestName     string `json:"guest_name"`
	People        int    `json:"people"`
	Time          string `json:"time"`
	Allergies     string `json:"allergies"`
}

// Forwarder sends confirmed reservations to restaurant booking endpoints.
// Each endpoint gets its own circuit breaker; a reservation that exhausts
// its retries lands in the dead letter table and raises a forward.failed
// event.
type Forwarder struct {
	repo         *Repository
	pub          *events.Publisher
	httpClient   *http.Client
	config       ForwarderConfig
	pool         workerpool.WorkerPool
	validateOpts []urlvalidation.Option

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewForwarder creates a reservation forwarder.
func NewForwarder(repo *Repository, pub *events.Publisher, cfg ForwarderConfig, pool workerpool.WorkerPool, validateOpts ...urlvalidation.Option) *Forwarder {
	return &Forwarder{
		repo: repo,
		pub:  pub,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config:       cfg,
		pool:         pool,
		validateOpts: validateOpts,
		breakers:     make(map[string]*CircuitBreaker),
	}
}

func (f *Forwarder) getOrCreateBreaker(bookingURL string) *CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	cb, ok := f.breakers[bookingURL]
	if ok {
		return cb
	}

	// Evict an arbitrary entry at capacity.
	if len(f.breakers) >= maxBreakers {
		for k := range f.breakers {
			delete(f.breakers, k)
			break
		}
	}

	cb = NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:    f.config.CBFailThreshold,
		ResetTimeout:        time.Duration(f.config.CBResetTimeoutSec) * time.Second,
		HalfOpenMaxAttempts: 1,
	})
	f.breakers[bookingURL] = cb
	return cb
}

// Forward attempts to POST a reservation to its restaurant's booking URL.
func (f *Forwarder) Forward(ctx context.Context, rec *Record) {
	if rec.BookingURL == "" {
		f.deadLetter(ctx, rec, 0, "restaurant has no booking URL")
		return
	}
	f.forwardWithRetry(ctx, rec, 1)
}

func (f *Forwarder) forwardWithRetry(ctx context.Context, rec *Record, attempt int) {
	if err := urlvalidation.ValidateEndpointURL(rec.BookingURL, f.validateOpts...); err != nil {
		slog.ErrorContext(ctx, "booking URL failed SSRF validation",
			slog.String("reservation_id", rec.ID),
			slog.String("url", rec.BookingURL),
			slog.String("error", err.Error()))
		f.deadLetter(ctx, rec, attempt, err.Error())
		return
	}

	cb := f.getOrCreateBreaker(rec.BookingURL)
	if !cb.AllowRequest() {
		f.handleFailure(ctx, rec, attempt, "circuit open")
		return
	}

	body, err := json.Marshal(bookingRequest{
		ReservationID: rec.ID,
		Restaurant:    rec.Restaurant,
		GuestName:     rec.GuestName,
		People:        rec.People,
		Time:          rec.Time,
		Allergies:     rec.Allergies,
	})
	if err != nil {
		f.handleFailure(ctx, rec, attempt, fmt.Sprintf("marshal: %v", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rec.BookingURL, bytes.NewReader(body))
	if err != nil {
		f.handleFailure(ctx, rec, attempt, fmt.Sprintf("create request: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(f.config.Secret, body))
	req.Header.Set("X-Dinechat-Reservation", rec.ID)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	durationMs := time.Since(start).Milliseconds()

	fa := &ForwardAttempt{
		ReservationID: rec.ID,
		Restaurant:    rec.Restaurant,
		RequestBody:   string(body),
		AttemptNumber: attempt,
		DurationMs:    durationMs,
	}

	if err != nil {
		cb.RecordFailure()
		fa.Status = "failed"
		fa.Error = err.Error()
		f.recordAttempt(ctx, fa)
		f.handleFailure(ctx, rec, attempt, fa.Error)
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	// Drain remainder for connection reuse.
	io.Copy(io.Discard, resp.Body)

	fa.ResponseCode = resp.StatusCode
	fa.ResponseBody = string(respBody)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		cb.RecordSuccess()
		fa.Status = "success"
		f.recordAttempt(ctx, fa)
		f.setStatus(ctx, rec.ID, StatusSent, attempt, "")
		return
	}

	cb.RecordFailure()
	fa.Status = "failed"
	fa.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	f.recordAttempt(ctx, fa)
	f.handleFailure(ctx, rec, attempt, fa.Error)
}

func (f *Forwarder) recordAttempt(ctx context.Context, fa *ForwardAttempt) {
	if f.repo == nil {
		return
	}
	if err := f.repo.RecordForward(ctx, fa); err != nil {
		slog.ErrorContext(ctx, "record forward attempt failed", slog.String("error", err.Error()))
	}
}

func (f *Forwarder) handleFailure(ctx context.Context, rec *Record, attempt int, errMsg string) {
	if attempt >= f.config.MaxRetries {
		f.deadLetter(ctx, rec, attempt, errMsg)
		return
	}

	backoff := f.config.BackoffInitialSec * (1 << (attempt - 1))
	if backoff > f.config.BackoffMaxSec {
		backoff = f.config.BackoffMaxSec
	}

	retryFunc := func() {
		timer := time.NewTimer(time.Duration(backoff) * time.Second)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			f.forwardWithRetry(ctx, rec, attempt+1)
		}
	}

	if f.pool != nil {
		if err := f.pool.Submit(ctx, retryFunc); err != nil {
			slog.WarnContext(ctx, "retry pool full, dropping retry",
				slog.String("reservation_id", rec.ID),
				slog.Int("attempt", attempt))
		}
	} else {
		time.AfterFunc(time.Duration(backoff)*time.Second, func() {
			f.forwardWithRetry(ctx, rec, attempt+1)
		})
	}
}

func (f *Forwarder) setStatus(ctx context.Context, id, status string, attempts int, lastError string) {
	if f.repo == nil {
		return
	}
	if err := f.repo.SetStatus(ctx, id, status, attempts, lastError); err != nil {
		slog.ErrorContext(ctx, "update reservation status failed",
			slog.String("reservation_id", id),
			slog.String("status", status),
			slog.String("error", err.Error()))
	}
}

func (f *Forwarder) deadLetter(ctx context.Context, rec *Record, attempts int, errMsg string) {
	if f.repo != nil {
		payload, _ := json.Marshal(rec)
		if err := f.repo.CreateDeadLetter(ctx, &DeadLetter{
			ReservationID: rec.ID,
			Restaurant:    rec.Restaurant,
			BookingURL:    rec.BookingURL,
			Payload:       string(payload),
			LastError:     errMsg,
			Attempts:      attempts,
			Replayable:    true,
		}); err != nil {
			slog.ErrorContext(ctx, "create dead letter failed", slog.String("error", err.Error()))
		}
	}
	f.setStatus(ctx, rec.ID, StatusFailed, attempts, errMsg)
	if f.pub != nil {
		if err := f.pub.Emit(ctx, events.ForwardFailed, rec.SessionID, &events.ForwardFailedData{
			Restaurant: rec.Restaurant,
			BookingURL: rec.BookingURL,
			Attempts:   attempts,
			Error:      errMsg,
		}); err != nil {
			slog.WarnContext(ctx, "emit forward.failed failed", slog.String("error", err.Error()))
		}
	}
}
