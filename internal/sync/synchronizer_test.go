package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/renderinc/brewblog/internal/logger"
	"github.com/renderinc/brewblog/internal/search"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Put(ctx context.Context, entityType, id string, fields map[string]string) error {
	args := m.Called(ctx, entityType, id, fields)
	return args.Error(0)
}

func (m *mockGateway) Delete(ctx context.Context, entityType, id string) error {
	args := m.Called(ctx, entityType, id)
	return args.Error(0)
}

func (m *mockGateway) Query(ctx context.Context, entityType, text string) ([]string, int, error) {
	args := m.Called(ctx, entityType, text)
	return args.Get(0).([]string), args.Int(1), args.Error(2)
}

// blockingGateway never answers before the caller's deadline.
type blockingGateway struct{}

func (blockingGateway) Put(ctx context.Context, _, _ string, _ map[string]string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingGateway) Delete(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingGateway) Query(ctx context.Context, _, _ string) ([]string, int, error) {
	<-ctx.Done()
	return nil, 0, ctx.Err()
}

func TestSync_PutsAndDeletes(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Put", mock.Anything, "doc", "1", map[string]string{"name": "a"}).Return(nil).Once()
	gw.On("Put", mock.Anything, "doc", "2", map[string]string{"name": "b"}).Return(nil).Once()
	gw.On("Delete", mock.Anything, "doc", "3").Return(nil).Once()

	s := NewSynchronizer(gw, time.Second, logger.NewNop())
	stats, err := s.Sync(context.Background(), ChangeSet{
		Created: []Entity{newDoc("1", "a")},
		Updated: []Entity{newDoc("2", "b")},
		Deleted: []Entity{newDoc("3", "c")},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 0, stats.Errors)
	gw.AssertExpectations(t)
}

func TestSync_SkipsEntitiesThatAreNotIndexed(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Put", mock.Anything, "doc", "1", mock.Anything).Return(nil).Once()

	unindexed := &testDoc{id: "2", name: "b"}

	s := NewSynchronizer(gw, 0, nil)
	stats, err := s.Sync(context.Background(), ChangeSet{
		Created: []Entity{newDoc("1", "a"), &plainRow{id: "9"}, unindexed},
		Deleted: []Entity{&plainRow{id: "8"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 3, stats.Skipped)
	gw.AssertExpectations(t)
	gw.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_ContinuesPastFailures(t *testing.T) {
	boom := errors.New("connection refused")

	gw := new(mockGateway)
	gw.On("Put", mock.Anything, "doc", "1", mock.Anything).Return(boom).Once()
	gw.On("Put", mock.Anything, "doc", "2", mock.Anything).Return(nil).Once()
	gw.On("Delete", mock.Anything, "doc", "3").Return(boom).Once()

	s := NewSynchronizer(gw, time.Second, logger.NewNop())
	stats, err := s.Sync(context.Background(), ChangeSet{
		Created: []Entity{newDoc("1", "a"), newDoc("2", "b")},
		Deleted: []Entity{newDoc("3", "c")},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrGatewayCall)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "doc/1")
	assert.Contains(t, err.Error(), "doc/3")

	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 0, stats.Removed)
	assert.Equal(t, 2, stats.Errors)
	gw.AssertExpectations(t)
}

func TestSync_DisabledGatewayIsNoOp(t *testing.T) {
	s := NewSynchronizer(search.Disabled{}, time.Second, logger.NewNop())

	stats, err := s.Sync(context.Background(), ChangeSet{
		Created: []Entity{newDoc("1", "a")},
		Deleted: []Entity{newDoc("2", "b")},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Zero(t, stats.Indexed)
}

func TestSync_NilGatewayIsDisabled(t *testing.T) {
	s := NewSynchronizer(nil, 0, nil)
	assert.False(t, search.Enabled(s.Gateway()))
}

func TestSync_TimeoutBecomesCallError(t *testing.T) {
	s := NewSynchronizer(blockingGateway{}, 20*time.Millisecond, logger.NewNop())

	stats, err := s.Sync(context.Background(), ChangeSet{Created: []Entity{newDoc("1", "a")}})

	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrGatewayCall)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, stats.Errors)
}

func TestSync_IsIdempotent(t *testing.T) {
	gw := search.NewMemoryGateway()
	s := NewSynchronizer(gw, time.Second, logger.NewNop())

	cs := ChangeSet{
		Created: []Entity{newDoc("1", "amber"), newDoc("2", "stout")},
		Deleted: []Entity{newDoc("3", "gone")},
	}

	_, err := s.Sync(context.Background(), cs)
	require.NoError(t, err)
	first, _ := gw.Entry("doc", "1")

	_, err = s.Sync(context.Background(), cs)
	require.NoError(t, err)
	second, _ := gw.Entry("doc", "1")

	assert.Equal(t, first, second)
	assert.Equal(t, 2, gw.Len("doc"))
	assert.Equal(t, map[string]string{"name": "amber"}, second, "only declared fields are indexed")
}

func TestSync_EmptyChangeSetMakesNoCalls(t *testing.T) {
	gw := search.NewMemoryGateway()
	s := NewSynchronizer(gw, time.Second, logger.NewNop())

	stats, err := s.Sync(context.Background(), ChangeSet{})
	require.NoError(t, err)
	assert.Empty(t, gw.Calls())
	assert.Zero(t, stats.Indexed+stats.Removed+stats.Skipped)
}
