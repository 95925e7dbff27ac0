// internal/browser/session/manager_test.go
package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/notefill/internal/browser/page/pagetest"
	"github.com/xkilldash9x/notefill/internal/browser/session"
	"github.com/xkilldash9x/notefill/internal/config"
	"github.com/xkilldash9x/notefill/internal/domain"
	"github.com/xkilldash9x/notefill/internal/registry"
)

type mockAttacher struct {
	mock.Mock
}

func (m *mockAttacher) Attach(ctx context.Context, endpoint string) (*session.Attachment, error) {
	args := m.Called(ctx, endpoint)
	att, _ := args.Get(0).(*session.Attachment)
	return att, args.Error(1)
}

func setup(t *testing.T, n int) (*session.Manager, *registry.Registry, *mockAttacher) {
	t.Helper()
	ids := make([]domain.Identity, n)
	for i := range ids {
		id, err := domain.NewIdentity("用户", "", "110", "139")
		require.NoError(t, err)
		ids[i] = id
	}
	reg, err := registry.New(ids)
	require.NoError(t, err)
	att := new(mockAttacher)
	browser := config.BrowserConfig{Host: "localhost", BasePort: 9222}
	return session.NewManager(reg, att, browser, zaptest.NewLogger(t)), reg, att
}

func attachment(closed *int) *session.Attachment {
	return &session.Attachment{
		Page:     pagetest.New("https://example.test/reserve"),
		TargetID: "T1",
		Close:    func() { *closed++ },
	}
}

func TestManager_ConnectUsesBasePortPlusIndex(t *testing.T) {
	m, reg, att := setup(t, 3)
	var closed int
	att.On("Attach", mock.Anything, "http://localhost:9224").Return(attachment(&closed), nil).Once()

	s, err := m.Connect(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 9224, s.Port)
	assert.Equal(t, "https://example.test/reserve", s.URL())
	assert.Equal(t, domain.StateConnected, reg.State(2))

	got, ok := reg.Get(2)
	require.True(t, ok)
	assert.Same(t, s, got)
	att.AssertExpectations(t)
}

func TestManager_ConnectFailureMarksFailed(t *testing.T) {
	m, reg, att := setup(t, 1)
	cerr := &domain.ConnectError{Kind: domain.NoOpenContext, Endpoint: "http://localhost:9222"}
	att.On("Attach", mock.Anything, "http://localhost:9222").Return(nil, cerr).Once()

	_, err := m.Connect(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &domain.ConnectError{Kind: domain.NoOpenContext}))
	assert.Equal(t, domain.StateFailed, reg.State(0))
	_, ok := reg.Get(0)
	assert.False(t, ok)
}

func TestManager_ReconnectReleasesOldSession(t *testing.T) {
	m, reg, att := setup(t, 1)
	var closedFirst, closedSecond int
	att.On("Attach", mock.Anything, mock.Anything).Return(attachment(&closedFirst), nil).Once()
	att.On("Attach", mock.Anything, mock.Anything).Return(attachment(&closedSecond), nil).Once()

	first, err := m.Connect(context.Background(), 0)
	require.NoError(t, err)
	second, err := m.Connect(context.Background(), 0)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, closedFirst)
	assert.Equal(t, 0, closedSecond)
	got, _ := reg.Get(0)
	assert.Same(t, second, got)
}

func TestManager_Disconnect(t *testing.T) {
	m, reg, att := setup(t, 2)
	var closed int
	att.On("Attach", mock.Anything, "http://localhost:9223").Return(attachment(&closed), nil).Once()

	_, err := m.Connect(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, m.Disconnect(1))
	require.NoError(t, m.Disconnect(1), "disconnecting twice is harmless")

	assert.Equal(t, 1, closed)
	assert.Equal(t, domain.StateDisconnected, reg.State(1))

	assert.ErrorIs(t, m.Disconnect(5), domain.ErrIdentityNotFound)
}

func TestManager_UnknownIndex(t *testing.T) {
	m, _, att := setup(t, 1)
	_, err := m.Connect(context.Background(), 4)
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	att.AssertNotCalled(t, "Attach", mock.Anything, mock.Anything)
}
