package multi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/ensilo-events/internal/model"
)

type mockOutput struct {
	mock.Mock
}

func (m *mockOutput) Write(ctx context.Context, r model.Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockOutput) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockOutput) Close() error {
	return m.Called().Error(0)
}

func TestWriteFansOutDespiteFailure(t *testing.T) {
	rec := model.Record{"category": "events"}
	failing := new(mockOutput)
	failing.On("Write", mock.Anything, rec).Return(errors.New("boom"))
	healthy := new(mockOutput)
	healthy.On("Write", mock.Anything, rec).Return(nil)

	m := New(Sink{Name: "syslog", Output: failing}, Sink{Name: "file", Output: healthy})
	err := m.Write(context.Background(), rec)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "syslog: boom")
	failing.AssertExpectations(t)
	healthy.AssertExpectations(t)
}

func TestCloseClosesAll(t *testing.T) {
	a := new(mockOutput)
	a.On("Close").Return(nil)
	b := new(mockOutput)
	b.On("Close").Return(errors.New("flush failed"))

	m := New(Sink{Name: "a", Output: a}, Sink{Name: "b", Output: b})
	err := m.Close()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: flush failed")
	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestEmptyMulti(t *testing.T) {
	m := New()
	assert.NoError(t, m.Write(context.Background(), model.Record{}))
	assert.NoError(t, m.Close())
	assert.Empty(t, m.Names())
}

func TestNames(t *testing.T) {
	m := New(Sink{Name: "syslog"}, Sink{Name: "elasticsearch"})
	assert.Equal(t, []string{"syslog", "elasticsearch"}, m.Names())
}

func TestFlushReachesEverySink(t *testing.T) {
	failing := new(mockOutput)
	failing.On("Flush", mock.Anything).Return(errors.New("HTTP 500"))
	healthy := new(mockOutput)
	healthy.On("Flush", mock.Anything).Return(nil)

	m := New(Sink{Name: "webhook", Output: failing}, Sink{Name: "file", Output: healthy})
	err := m.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook: HTTP 500")
	failing.AssertExpectations(t)
	healthy.AssertExpectations(t)
}
