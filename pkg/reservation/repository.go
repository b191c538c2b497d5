package reservation

import (
	"context"

	"gorm.io/gorm"

	"github.com/pitabwire/frame/datastore/pool"
)

// Repository provides CRUD operations for reservation models.
type Repository struct {
	pool pool.Pool
}

// NewRepository creates a new reservation repository.
func NewRepository(pool pool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context, readOnly bool) *gorm.DB {
	return r.pool.DB(ctx, readOnly)
}

// Create persists a new reservation record.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	return r.db(ctx, false).Create(rec).Error
}

// GetByID returns a reservation by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := r.db(ctx, true).Where("id = ?", id).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListBySession returns a session's reservations, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]Record, error) {
	var recs []Record
	err := r.db(ctx, true).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&recs).Error
	return recs, err
}

// LatestPendingBySession returns the newest pending reservation for a
// session, the one a confirmation refers to.
func (r *Repository) LatestPendingBySession(ctx context.Context, sessionID string) (*Record, error) {
	var rec Record
	err := r.db(ctx, true).
		Where("session_id = ? AND status = ?", sessionID, StatusPending).
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns reservations for admin listing, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Record, error) {
	var recs []Record
	q := r.db(ctx, true).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&recs).Error
	return recs, err
}

// Update persists changes to a reservation record.
func (r *Repository) Update(ctx context.Context, rec *Record) error {
	return r.db(ctx, false).Save(rec).Error
}

// SetStatus updates a reservation's status, attempt count and last error.
func (r *Repository) SetStatus(ctx context.Context, id, status string, attempts int, lastError string) error {
	return r.db(ctx, false).
		Model(&Record{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"attempts":   attempts,
			"last_error": lastError,
		}).Error
}

// RecordForward persists a forward attempt.
func (r *Repository) RecordForward(ctx context.Context, fa *ForwardAttempt) error {
	return r.db(ctx, false).Create(fa).Error
}

// ListForwards returns forward attempts for a reservation, newest first.
func (r *Repository) ListForwards(ctx context.Context, reservationID string, limit, offset int) ([]ForwardAttempt, error) {
	var attempts []ForwardAttempt
	q := r.db(ctx, true).
		Where("reservation_id = ?", reservationID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&attempts).Error
	return attempts, err
}

// CreateDeadLetter persists a dead-lettered reservation.
func (r *Repository) CreateDeadLetter(ctx context.Context, dl *DeadLetter) error {
	return r.db(ctx, false).Create(dl).Error
}

// GetDeadLetterByID returns a single dead letter by its ID.
func (r *Repository) GetDeadLetterByID(ctx context.Context, id string) (*DeadLetter, error) {
	var dl DeadLetter
	err := r.db(ctx, true).Where("id = ?", id).First(&dl).Error
	if err != nil {
		return nil, err
	}
	return &dl, nil
}

// ListDeadLetters returns replayable dead letters for a reservation.
func (r *Repository) ListDeadLetters(ctx context.Context, reservationID string) ([]DeadLetter, error) {
	var letters []DeadLetter
	err := r.db(ctx, true).
		Where("reservation_id = ? AND replayable = ?", reservationID, true).
		Order("created_at DESC").
		Find(&letters).Error
	return letters, err
}

// MarkDeadLetterReplayed marks a dead letter as no longer replayable.
func (r *Repository) MarkDeadLetterReplayed(ctx context.Context, id string) error {
	return r.db(ctx, false).
		Model(&DeadLetter{}).
		Where("id = ?", id).
		Update("replayable", false).Error
}
