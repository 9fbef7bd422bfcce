package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftbox/driftbox/internal/client/models"
	"github.com/driftbox/driftbox/internal/client/store"
	"github.com/driftbox/driftbox/internal/logging"
)

func newAuthService(t *testing.T) (*AuthService, *store.Store, *fakeGateway) {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	gw := &fakeGateway{}
	return NewAuthService(s, gw, logging.Nop()), s, gw
}

func TestLoginRemembersUsername(t *testing.T) {
	svc, _, gw := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Login(ctx, "alice", "secret"))
	assert.Equal(t, []string{"login"}, gw.calls)

	user, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestRegisterLogsIn(t *testing.T) {
	svc, _, gw := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "bob", "secret"))
	assert.Equal(t, []string{"register", "login"}, gw.calls)

	user, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
}

func TestLogoutWipesLocalState(t *testing.T) {
	svc, s, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Login(ctx, "alice", "secret"))
	_, err := s.Oplog.Append(ctx, models.DeleteFileOp{FileID: "f1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))

	user, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Empty(t, user)

	n, err := s.Oplog.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
