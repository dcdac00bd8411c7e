package cloudsync

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/logger"
	"paytrack/internal/models"
	"paytrack/internal/repository"
)

const defaultRetryInterval = 30 * time.Second

// Store is the part of the payment repository the sync service needs.
type Store interface {
	LoadAll(ctx context.Context, userID string) ([]models.Payment, error)
	SaveAll(ctx context.Context, userID string, snapshot []models.Payment, origin repository.Origin) error
	Subscribe(fn repository.Listener)
}

// Service pulls remote snapshots into the store and pushes local changes out.
// Snapshots written with OriginRemote are never pushed back.
type Service struct {
	store         Store
	transport     Transport
	retryInterval time.Duration

	mu      sync.Mutex
	pending map[string][]models.Payment
	wake    chan struct{}
}

// NewService creates a Service and subscribes it to store changes. Local
// changes queue up until Run is started.
func NewService(store Store, transport Transport) *Service {
	s := &Service{
		store:         store,
		transport:     transport,
		retryInterval: defaultRetryInterval,
		pending:       make(map[string][]models.Payment),
		wake:          make(chan struct{}, 1),
	}
	store.Subscribe(s.onChange)
	return s
}

func (s *Service) onChange(ev repository.ChangeEvent) {
	if ev.Origin != repository.OriginLocal {
		return
	}
	s.mu.Lock()
	s.pending[ev.UserID] = ev.Snapshot
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run pushes queued snapshots until ctx is cancelled. Only the latest
// snapshot per user is pushed; failed pushes are retried on a timer.
func (s *Service) Run(ctx context.Context) error {
	log := logger.Named("cloudsync")
	log.Infow("Cloud sync worker started")

	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Infow("Cloud sync worker stopping", "pending", s.pendingCount())
			return ctx.Err()
		case <-s.wake:
			s.flush(ctx)
		case <-ticker.C:
			s.flush(ctx)
		}
	}
}

func (s *Service) flush(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string][]models.Payment)
	s.mu.Unlock()

	for userID, snapshot := range batch {
		if err := s.transport.Push(ctx, userID, snapshot); err != nil {
			logger.Named("cloudsync").Warnw("Cloud push failed, will retry", "user_id", userID, "error", err)
			s.requeue(userID, snapshot)
			continue
		}
		logger.Named("cloudsync").Debugw("Cloud push completed", "user_id", userID, "payments", len(snapshot))
	}
}

// requeue puts a failed snapshot back unless a newer one arrived meanwhile.
func (s *Service) requeue(userID string, snapshot []models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, newer := s.pending[userID]; !newer {
		s.pending[userID] = snapshot
	}
}

func (s *Service) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Push uploads the user's current collection immediately.
func (s *Service) Push(ctx context.Context, userID string) (int, error) {
	snapshot, err := s.store.LoadAll(ctx, userID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.mu.Lock()
	delete(s.pending, userID)
	s.mu.Unlock()

	if err := s.transport.Push(ctx, userID, snapshot); err != nil {
		s.requeue(userID, snapshot)
		return 0, apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}
	return len(snapshot), nil
}

// Pull replaces the user's collection with the remote snapshot.
func (s *Service) Pull(ctx context.Context, userID string) (int, error) {
	snapshot, err := s.transport.Pull(ctx, userID)
	if errors.Is(err, ErrNoRemoteSnapshot) {
		return 0, apperrors.WithMessage(apperrors.ErrNotFound, "No remote snapshot to pull")
	}
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}

	for i := range snapshot {
		snapshot[i].UserID = userID
	}
	if err := s.store.SaveAll(ctx, userID, snapshot, repository.OriginRemote); err != nil {
		if errors.Is(err, repository.ErrForeignPayment) {
			return 0, apperrors.WithMessage(apperrors.ErrSyncFailed, "Remote snapshot contains payments of another user")
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return len(snapshot), nil
}
