package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lgulliver/cargolifter/internal/forge"
	"github.com/lgulliver/cargolifter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSaga implements Saga for testing
type MockSaga struct {
	mock.Mock
}

func (m *MockSaga) Publish(ctx context.Context, token string, req *types.PublishRequest) error {
	args := m.Called(ctx, token, req)
	return args.Error(0)
}

func (m *MockSaga) Yank(ctx context.Context, token string, req *types.YankRequest) error {
	args := m.Called(ctx, token, req)
	return args.Error(0)
}

func (m *MockSaga) IsVersionPublished(ctx context.Context, token, name, vers string) (bool, error) {
	args := m.Called(ctx, token, name, vers)
	return args.Bool(0), args.Error(1)
}

// MockRecorder implements Recorder for testing
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, kind, crate, version string, outcome error, elapsed time.Duration) error {
	args := m.Called(ctx, kind, crate, version, outcome, elapsed)
	return args.Error(0)
}

// memoryCache implements PublishedCache for testing
type memoryCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (c *memoryCache) IsPublished(_ context.Context, name, vers string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys[name+"@"+vers], nil
}

func (c *memoryCache) MarkPublished(_ context.Context, name, vers string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[name+"@"+vers] = true
	return nil
}

func startService(t *testing.T, s *Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.done
	})
}

func TestService_PublishAndYank(t *testing.T) {
	f := newMemoryForge()
	s := NewService(NewIndex(f, forge.Credentials{}))
	startService(t, s)
	ctx := context.Background()

	assert.True(t, s.Publish(ctx, "tok", publishRequest("foo", "0.1.0")))
	assert.True(t, s.IsVersionPublished(ctx, "tok", "foo", "0.1.0"))
	assert.False(t, s.IsVersionPublished(ctx, "tok", "foo", "0.2.0"))
	assert.True(t, s.Yank(ctx, "tok", &types.YankRequest{Name: "foo", Vers: "0.1.0", Yank: true}))

	records := decodeMain(t, f, "3/f/foo")
	require.Len(t, records, 1)
	assert.True(t, records[0].Yanked)
}

func TestService_FailureCollapsesToFalse(t *testing.T) {
	saga := new(MockSaga)
	saga.On("Publish", mock.Anything, "tok", mock.Anything).Return(&IncompleteError{Step: "merge", Err: forge.ErrConflict})
	saga.On("IsVersionPublished", mock.Anything, "tok", "foo", "0.1.0").Return(false, errors.New("boom"))

	s := NewService(saga)
	startService(t, s)

	assert.False(t, s.Publish(context.Background(), "tok", publishRequest("foo", "0.1.0")))
	assert.False(t, s.IsVersionPublished(context.Background(), "tok", "foo", "0.1.0"))
	saga.AssertExpectations(t)
}

func TestService_FIFOOrdering(t *testing.T) {
	f := newMemoryForge()
	s := NewService(NewIndex(f, forge.Credentials{}))
	ctx := context.Background()

	first := make(chan bool, 1)
	second := make(chan bool, 1)
	require.NoError(t, s.Enqueue(ctx, &PublishCommand{Token: "tok", Request: publishRequest("foo", "0.1.0"), Reply: first}))
	require.NoError(t, s.Enqueue(ctx, &PublishCommand{Token: "tok", Request: publishRequest("foo", "0.2.0"), Reply: second}))

	startService(t, s)

	assert.True(t, <-first)
	assert.True(t, <-second)

	records := decodeMain(t, f, "3/f/foo")
	require.Len(t, records, 2)
	assert.Equal(t, "0.1.0", records[0].Vers)
	assert.Equal(t, "0.2.0", records[1].Vers)
}

func TestService_OneCommandAtATime(t *testing.T) {
	saga := new(MockSaga)
	release := make(chan struct{})
	var mu sync.Mutex
	running, maxRunning := 0, 0

	saga.On("Yank", mock.Anything, "tok", mock.Anything).Run(func(mock.Arguments) {
		mu.Lock()
		running++
		maxRunning = max(maxRunning, running)
		mu.Unlock()
		<-release
		mu.Lock()
		running--
		mu.Unlock()
	}).Return(nil)

	s := NewService(saga)
	startService(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, s.Yank(context.Background(), "tok", &types.YankRequest{Name: "foo", Vers: "0.1.0", Yank: true}))
		}()
	}

	for i := 0; i < 4; i++ {
		release <- struct{}{}
	}
	wg.Wait()

	assert.Equal(t, 1, maxRunning)
	saga.AssertNumberOfCalls(t, "Yank", 4)
}

func TestService_CallerGoneStillCompletes(t *testing.T) {
	saga := new(MockSaga)
	started := make(chan struct{})
	release := make(chan struct{})
	var sagaCtxErr error

	saga.On("Publish", mock.Anything, "tok", mock.Anything).Run(func(args mock.Arguments) {
		close(started)
		<-release
		sagaCtxErr = args.Get(0).(context.Context).Err()
	}).Return(nil)

	s := NewService(saga)
	startService(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	reply := make(chan bool, 1)
	require.NoError(t, s.Enqueue(ctx, &PublishCommand{Token: "tok", Request: publishRequest("foo", "0.1.0"), Reply: reply}))

	<-started
	cancel()
	close(release)

	assert.True(t, <-reply, "the command runs to completion")
	assert.NoError(t, sagaCtxErr, "the saga is detached from the caller's cancellation")
}

func TestService_EnqueueBlocksWhenFull(t *testing.T) {
	s := NewService(new(MockSaga))

	for i := 0; i < QueueSize; i++ {
		require.NoError(t, s.Enqueue(context.Background(), &YankCommand{Request: &types.YankRequest{}}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Enqueue(ctx, &YankCommand{Request: &types.YankRequest{}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_EnqueueAfterStop(t *testing.T) {
	s := NewService(new(MockSaga))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	err := s.Enqueue(context.Background(), &YankCommand{Request: &types.YankRequest{}})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestService_Recorder(t *testing.T) {
	saga := new(MockSaga)
	failure := errors.New("boom")
	saga.On("Yank", mock.Anything, "tok", mock.Anything).Return(failure)

	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything, "unyank", "foo", "0.1.0", failure, mock.AnythingOfType("time.Duration")).
		Return(errors.New("database unavailable"))

	s := NewService(saga, WithRecorder(recorder))
	startService(t, s)

	assert.False(t, s.Yank(context.Background(), "tok", &types.YankRequest{Name: "foo", Vers: "0.1.0"}))
	recorder.AssertExpectations(t)
}

func TestService_PublishedCache(t *testing.T) {
	saga := new(MockSaga)
	saga.On("Publish", mock.Anything, "tok", mock.Anything).Return(nil)
	saga.On("IsVersionPublished", mock.Anything, "tok", "bar", "1.0.0").Return(false, nil)

	cache := &memoryCache{keys: map[string]bool{}}
	s := NewService(saga, WithCache(cache))
	startService(t, s)
	ctx := context.Background()

	require.True(t, s.Publish(ctx, "tok", publishRequest("foo", "0.1.0")))
	assert.True(t, s.IsVersionPublished(ctx, "tok", "foo", "0.1.0"))
	saga.AssertNotCalled(t, "IsVersionPublished", mock.Anything, "tok", "foo", "0.1.0")

	assert.False(t, s.IsVersionPublished(ctx, "tok", "bar", "1.0.0"))
	assert.False(t, cache.keys["bar@1.0.0"], "negative answers are not cached")
}
