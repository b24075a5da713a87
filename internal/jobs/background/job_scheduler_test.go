package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReaperService struct {
	mock.Mock
}

func (m *MockReaperService) ExpireStale(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestJobScheduler_RunsReaperOnStart(t *testing.T) {
	reaper := &MockReaperService{}
	called := make(chan struct{}, 10)
	reaper.On("ExpireStale", mock.Anything).Return(int64(2), nil).Run(func(mock.Arguments) {
		called <- struct{}{}
	})

	js, err := NewJobScheduler(reaper, time.Hour)
	require.NoError(t, err)
	js.Start()
	defer func() { assert.NoError(t, js.Stop()) }()

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("reaper did not run after scheduler start")
	}

	statuses := js.GetJobStatus()
	require.Len(t, statuses, 1)
	assert.Equal(t, reaperJobName, statuses[0].Name)
}

func TestJobScheduler_DisabledReaper(t *testing.T) {
	js, err := NewJobScheduler(&MockReaperService{}, 0)
	require.NoError(t, err)
	assert.Empty(t, js.GetJobStatus())
}

func TestExpireStaleTransactions_PropagatesError(t *testing.T) {
	reaper := &MockReaperService{}
	reaper.On("ExpireStale", mock.Anything).Return(int64(0), errors.New("database is down"))

	js := &JobScheduler{reaper: reaper, timeout: time.Second}
	assert.Error(t, js.expireStaleTransactions())
	reaper.AssertExpectations(t)
}
