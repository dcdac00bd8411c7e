// Package repository stores each user's payment collection as a snapshot.
// Every write replaces the user's whole collection inside one transaction.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"paytrack/internal/logger"
	"paytrack/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 200

// ErrForeignPayment is returned when a snapshot contains a payment id that
// belongs to a different user.
var ErrForeignPayment = errors.New("snapshot contains a payment owned by another user")

// Origin tags where a snapshot write came from.
type Origin string

const (
	// OriginLocal marks writes made by this instance (API calls, reminders).
	OriginLocal Origin = "LOCAL"
	// OriginRemote marks snapshots pulled from a sync transport.
	OriginRemote Origin = "REMOTE"
)

// ChangeEvent is delivered to subscribers after a snapshot has been committed.
type ChangeEvent struct {
	UserID   string
	Origin   Origin
	Snapshot []models.Payment
}

// Listener receives committed changes. Listeners run synchronously on the
// writing goroutine and must not block.
type Listener func(ChangeEvent)

// Mutation computes a new snapshot from the current one. It must not retain
// or modify its argument.
type Mutation func(current []models.Payment) ([]models.Payment, error)

// PaymentRepository persists payment snapshots through GORM.
type PaymentRepository struct {
	db *gorm.DB

	locks sync.Map // userID -> *sync.Mutex

	mu        sync.RWMutex
	listeners []Listener
}

// NewPaymentRepository creates a repository on db.
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// LoadAll returns the user's full collection ordered by date and id.
func (r *PaymentRepository) LoadAll(ctx context.Context, userID string) ([]models.Payment, error) {
	return loadAll(r.db.WithContext(ctx), userID)
}

// SaveAll replaces the user's collection with snapshot.
func (r *PaymentRepository) SaveAll(ctx context.Context, userID string, snapshot []models.Payment, origin Origin) error {
	lock := r.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	saved, err := r.replace(ctx, userID, snapshot)
	if err != nil {
		return err
	}
	r.publish(ChangeEvent{UserID: userID, Origin: origin, Snapshot: saved})
	return nil
}

// ApplyMutation loads the user's collection, applies fn and stores the result.
// Mutations for the same user are serialized. The stored snapshot is returned.
func (r *PaymentRepository) ApplyMutation(ctx context.Context, userID string, origin Origin, fn Mutation) ([]models.Payment, error) {
	lock := r.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := r.LoadAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, err := fn(clonePayments(current))
	if err != nil {
		return nil, err
	}

	saved, err := r.replace(ctx, userID, next)
	if err != nil {
		return nil, err
	}
	r.publish(ChangeEvent{UserID: userID, Origin: origin, Snapshot: saved})
	return saved, nil
}

// Subscribe registers a listener for committed changes.
func (r *PaymentRepository) Subscribe(fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// UserIDs returns every user that owns at least one payment.
func (r *PaymentRepository) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment owners: %w", err)
	}
	return ids, nil
}

func (r *PaymentRepository) replace(ctx context.Context, userID string, snapshot []models.Payment) ([]models.Payment, error) {
	rows := make([]models.Payment, len(snapshot))
	ids := make([]string, 0, len(snapshot))
	for i, p := range snapshot {
		p.UserID = userID
		rows[i] = p
	}

	var saved []models.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := ensureOwned(tx, userID, rows); err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&rows, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to upsert payments: %w", err)
			}
		}
		for _, p := range rows {
			ids = append(ids, p.ID)
		}

		del := tx.Where("user_id = ?", userID)
		if len(ids) > 0 {
			del = del.Where("id NOT IN ?", ids)
		}
		if err := del.Delete(&models.Payment{}).Error; err != nil {
			return fmt.Errorf("failed to remove stale payments: %w", err)
		}

		var err error
		saved, err = loadAll(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ensureOwned rejects snapshots that reuse the id of another user's payment.
func ensureOwned(tx *gorm.DB, userID string, rows []models.Payment) error {
	ids := make([]string, 0, len(rows))
	for _, p := range rows {
		if p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	var foreign int64
	if err := tx.Model(&models.Payment{}).Where("id IN ? AND user_id <> ?", ids, userID).Count(&foreign).Error; err != nil {
		return fmt.Errorf("failed to check payment ownership: %w", err)
	}
	if foreign > 0 {
		return ErrForeignPayment
	}
	return nil
}

func (r *PaymentRepository) publish(ev ChangeEvent) {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, fn := range listeners {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Get().Errorw("payment change listener panicked", "user_id", ev.UserID, "panic", rec)
				}
			}()
			fn(ChangeEvent{UserID: ev.UserID, Origin: ev.Origin, Snapshot: clonePayments(ev.Snapshot)})
		}()
	}
}

func (r *PaymentRepository) lockFor(userID string) *sync.Mutex {
	v, _ := r.locks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func loadAll(db *gorm.DB, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	if err := db.Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return payments, nil
}

// clonePayments deep-copies the pointer fields so callers cannot alias each
// other's snapshots.
func clonePayments(in []models.Payment) []models.Payment {
	if in == nil {
		return nil
	}
	out := make([]models.Payment, len(in))
	for i, p := range in {
		if p.MinimumPaymentAmount != nil {
			v := *p.MinimumPaymentAmount
			p.MinimumPaymentAmount = &v
		}
		if p.EndDate != nil {
			v := *p.EndDate
			p.EndDate = &v
		}
		if p.CommitmentEndDate != nil {
			v := *p.CommitmentEndDate
			p.CommitmentEndDate = &v
		}
		out[i] = p
	}
	return out
}
