package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"barbershop/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, chatID int64) (*model.Conversation, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, conv *model.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

func (m *mockStore) Delete(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func discardLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func forceRecheck(s *FailoverStore) {
	s.mu.Lock()
	s.lastCheck = time.Now().Add(-2 * recheckInterval)
	s.mu.Unlock()
}

func TestFailoverStoreWithMocks(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownChatWhileDown", func(t *testing.T) {
		primary := new(mockStore)
		s := NewFailoverStore(primary, NewMemoryStore(), discardLogger())
		primary.On("Get", ctx, int64(2)).Return(nil, errors.New("fail")).Once()

		got, err := s.Get(ctx, 2)
		assert.ErrorIs(t, err, ErrPrimaryUnavailable)
		assert.Nil(t, got)
		assert.True(t, s.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackUntilRecheck", func(t *testing.T) {
		primary := new(mockStore)
		s := NewFailoverStore(primary, NewMemoryStore(), discardLogger())
		s.markDown(errors.New("fail"))

		conv := &model.Conversation{ChatID: 3, State: model.StateAwaitingName}
		require.NoError(t, s.Save(ctx, conv))
		got, err := s.Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, conv, got)
		primary.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		primary.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("FailedResyncKeepsPrimaryDown", func(t *testing.T) {
		primary := new(mockStore)
		s := NewFailoverStore(primary, NewMemoryStore(), discardLogger())
		s.markDown(errors.New("fail"))
		conv := &model.Conversation{ChatID: 4, State: model.StateAwaitingName}
		require.NoError(t, s.Save(ctx, conv))

		forceRecheck(s)
		primary.On("Save", ctx, conv).Return(errors.New("still down")).Once()

		got, err := s.Get(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, conv, got)
		assert.True(t, s.isDown.Load())
		assert.True(t, s.isDirty(4))
		primary.AssertExpectations(t)
	})

	t.Run("PingFallsBack", func(t *testing.T) {
		primary := new(mockStore)
		fallback := new(mockStore)
		s := NewFailoverStore(primary, fallback, discardLogger())
		primary.On("Ping", ctx).Return(errors.New("down")).Once()
		fallback.On("Ping", ctx).Return(nil).Once()

		assert.NoError(t, s.Ping(ctx))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}

func newFailoverOverRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore, *FailoverStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	primary := NewRedisStore(client, 0)
	return mr, primary, NewFailoverStore(primary, NewMemoryStore(), discardLogger())
}

func booked(chatID int64) *model.Conversation {
	return &model.Conversation{
		ChatID: chatID, State: model.StateHasAppointment, FullName: "Maria Silva", Time: "14:30", HasAppointment: true,
	}
}

func TestFailoverStoreCancelDuringOutage(t *testing.T) {
	ctx := context.Background()
	mr, primary, s := newFailoverOverRedis(t)
	require.NoError(t, s.Save(ctx, booked(1)))

	mr.SetError("down")
	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.CanCancel())
	assert.True(t, s.isDown.Load())

	require.NoError(t, s.Delete(ctx, 1))
	got, err = s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	mr.SetError("")
	forceRecheck(s)
	got, err = s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, s.isDown.Load())

	inPrimary, err := primary.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, inPrimary, "cancellation made during the outage reaches primary")
}

func TestFailoverStoreReplaysOutageWrites(t *testing.T) {
	ctx := context.Background()
	mr, primary, s := newFailoverOverRedis(t)
	require.NoError(t, s.Save(ctx, &model.Conversation{ChatID: 1, State: model.StateAwaitingTime, FullName: "Maria Silva"}))

	mr.SetError("down")
	require.NoError(t, s.Save(ctx, booked(1)))

	mr.SetError("")
	forceRecheck(s)
	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, booked(1), got)

	inPrimary, err := primary.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, booked(1), inPrimary)
	assert.False(t, s.isDirty(1))
}

func TestFailoverStoreRecordOnlyInPrimary(t *testing.T) {
	ctx := context.Background()
	mr, primary, s := newFailoverOverRedis(t)
	// Written by an earlier process, never seen by this one.
	require.NoError(t, primary.Save(ctx, booked(7)))

	mr.SetError("down")
	got, err := s.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrPrimaryUnavailable)
	assert.Nil(t, got)

	mr.SetError("")
	forceRecheck(s)
	got, err = s.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, booked(7), got)
}

func TestFailoverStoreMirrorsReads(t *testing.T) {
	ctx := context.Background()
	mr, primary, s := newFailoverOverRedis(t)
	require.NoError(t, primary.Save(ctx, booked(9)))

	got, err := s.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, booked(9), got)

	mr.SetError("down")
	got, err = s.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, booked(9), got)
}
