package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"barbershop/internal/model"

	"github.com/rs/zerolog"
)

const recheckInterval = time.Minute

// ErrPrimaryUnavailable is returned for a chat the fallback knows nothing about
// while primary is down: its record may exist in primary only.
var ErrPrimaryUnavailable = errors.New("primary conversation store unavailable")

// FailoverStore serves from primary and mirrors every record it reads or writes into
// fallback. While primary is down, fallback answers for the chats it mirrors and the
// chats changed during the outage are replayed into primary once it is back.
// Primary is retried once per recheckInterval.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	dirty     map[int64]struct{}
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		dirty:    make(map[int64]struct{}),
	}
}

// usePrimary reports whether the next call should go to primary. After an outage the
// chats changed in the meantime are written back first; primary stays down if that fails.
func (s *FailoverStore) usePrimary(ctx context.Context) bool {
	if !s.isDown.Load() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastCheck) < recheckInterval {
		return false
	}
	s.lastCheck = time.Now()
	if err := s.resync(ctx); err != nil {
		s.logger.Warn().Err(err).Int("pending", len(s.dirty)).Msg("primary conversation store still unavailable")
		return false
	}
	if s.isDown.Swap(false) {
		s.logger.Info().Msg("primary conversation store recovered")
	}
	return true
}

// resync copies fallback's view of every dirty chat into primary. Caller holds s.mu.
func (s *FailoverStore) resync(ctx context.Context) error {
	for chatID := range s.dirty {
		conv, err := s.fallback.Get(ctx, chatID)
		if err != nil {
			return fmt.Errorf("read fallback %d: %w", chatID, err)
		}
		if conv == nil {
			err = s.primary.Delete(ctx, chatID)
		} else {
			err = s.primary.Save(ctx, conv)
		}
		if err != nil {
			return err
		}
		delete(s.dirty, chatID)
	}
	return nil
}

func (s *FailoverStore) markDown(err error) {
	s.mu.Lock()
	s.lastCheck = time.Now()
	s.mu.Unlock()
	if !s.isDown.Swap(true) {
		s.logger.Warn().Err(err).Msg("primary conversation store failed, switching to fallback")
	}
}

func (s *FailoverStore) markDirty(chatID int64) {
	s.mu.Lock()
	s.dirty[chatID] = struct{}{}
	s.mu.Unlock()
}

func (s *FailoverStore) isDirty(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dirty[chatID]
	return ok
}

func (s *FailoverStore) Get(ctx context.Context, chatID int64) (*model.Conversation, error) {
	if s.usePrimary(ctx) {
		conv, err := s.primary.Get(ctx, chatID)
		if err == nil {
			s.mirror(ctx, chatID, conv)
			return conv, nil
		}
		s.markDown(err)
	}

	conv, err := s.fallback.Get(ctx, chatID)
	if err != nil || conv != nil {
		return conv, err
	}
	// Absent in fallback is only authoritative if this chat was deleted during the outage.
	if s.isDirty(chatID) {
		return nil, nil
	}
	return nil, fmt.Errorf("chat %d: %w", chatID, ErrPrimaryUnavailable)
}

func (s *FailoverStore) Save(ctx context.Context, conv *model.Conversation) error {
	if err := s.fallback.Save(ctx, conv); err != nil {
		return err
	}
	if s.usePrimary(ctx) {
		err := s.primary.Save(ctx, conv)
		if err == nil {
			return nil
		}
		s.markDown(err)
	}
	s.markDirty(conv.ChatID)
	return nil
}

func (s *FailoverStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.fallback.Delete(ctx, chatID); err != nil {
		return err
	}
	if s.usePrimary(ctx) {
		err := s.primary.Delete(ctx, chatID)
		if err == nil {
			return nil
		}
		s.markDown(err)
	}
	s.markDirty(chatID)
	return nil
}

// Ping succeeds while either store is reachable.
func (s *FailoverStore) Ping(ctx context.Context) error {
	if err := s.primary.Ping(ctx); err == nil {
		return nil
	}
	return s.fallback.Ping(ctx)
}

func (s *FailoverStore) mirror(ctx context.Context, chatID int64, conv *model.Conversation) {
	var err error
	if conv == nil {
		err = s.fallback.Delete(ctx, chatID)
	} else {
		err = s.fallback.Save(ctx, conv)
	}
	if err != nil {
		s.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to mirror conversation into fallback")
	}
}
