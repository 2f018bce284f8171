package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"platewatch/internal/domain/plate"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	ErrPlateTooShort  = fmt.Errorf("%w: plate number too short", ErrInvalidInput)
	ErrAlreadyWatched = fmt.Errorf("%w: plate already watched", ErrInvalidInput)
)

// WatchlistRepository persists the full plate collection as a unit.
type WatchlistRepository interface {
	Load(ctx context.Context) ([]plate.WatchedPlate, error)
	Save(ctx context.Context, plates []plate.WatchedPlate) error
}

// WatchlistService owns the in-memory watchlist and writes every mutation
// through to the repository. Safe for concurrent use.
type WatchlistService struct {
	repo WatchlistRepository
	log  zerolog.Logger

	mu     sync.RWMutex
	plates []plate.WatchedPlate
}

func NewWatchlistService(repo WatchlistRepository, log zerolog.Logger) *WatchlistService {
	return &WatchlistService{
		repo: repo,
		log:  log,
	}
}

// Load populates the in-memory cache from the repository. Called once at
// process start; absence of persisted data yields an empty watchlist.
func (s *WatchlistService) Load(ctx context.Context) error {
	plates, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}

	s.mu.Lock()
	s.plates = plates
	s.mu.Unlock()

	s.log.Info().Int("count", len(plates)).Msg("loaded watchlist")
	return nil
}

// Add normalizes raw and inserts a new entry at the front of the watchlist.
// Fails with ErrPlateTooShort when the token is shorter than 4 characters
// and with ErrAlreadyWatched when the token is already present; in both
// cases the watchlist is unchanged.
func (s *WatchlistService) Add(ctx context.Context, raw string) (plate.WatchedPlate, error) {
	token := plate.Normalize(raw)
	if len(token) < plate.MinTokenLength {
		return plate.WatchedPlate{}, ErrPlateTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.plates {
		if p.Number == token {
			return plate.WatchedPlate{}, ErrAlreadyWatched
		}
	}

	entry := plate.WatchedPlate{
		ID:        uuid.NewString(),
		Number:    token,
		CreatedAt: time.Now(),
	}
	updated := append([]plate.WatchedPlate{entry}, s.plates...)

	if err := s.repo.Save(ctx, updated); err != nil {
		s.log.Error().Err(err).Str("plate", token).Msg("failed to persist watchlist")
		return plate.WatchedPlate{}, fmt.Errorf("persist watchlist: %w", err)
	}
	s.plates = updated

	s.log.Info().
		Str("id", entry.ID).
		Str("plate", token).
		Str("raw_plate", raw).
		Msg("plate added to watchlist")
	return entry, nil
}

// Remove deletes the entry with the given id. Removing an unknown id is a
// no-op and does not touch the repository.
func (s *WatchlistService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.plates {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	updated := make([]plate.WatchedPlate, 0, len(s.plates)-1)
	updated = append(updated, s.plates[:idx]...)
	updated = append(updated, s.plates[idx+1:]...)

	if err := s.repo.Save(ctx, updated); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("failed to persist watchlist")
		return fmt.Errorf("persist watchlist: %w", err)
	}
	s.plates = updated

	s.log.Info().Str("id", id).Msg("plate removed from watchlist")
	return nil
}

// Contains reports whether the canonical token is on the watchlist.
func (s *WatchlistService) Contains(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plates {
		if p.Number == token {
			return true
		}
	}
	return false
}

// List returns the watchlist entries, most recently added first.
func (s *WatchlistService) List() []plate.WatchedPlate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]plate.WatchedPlate, len(s.plates))
	copy(out, s.plates)
	return out
}
