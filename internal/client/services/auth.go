package services

import (
	"context"

	"github.com/driftbox/driftbox/internal/client/gateway"
	"github.com/driftbox/driftbox/internal/client/store"
	"github.com/driftbox/driftbox/internal/common"
	"github.com/driftbox/driftbox/internal/logging"
)

// AuthService handles the account session: login, registration and the
// logout wipe of local state.
type AuthService struct {
	store  *store.Store
	gw     gateway.Gateway
	logger logging.Logger
}

func NewAuthService(s *store.Store, gw gateway.Gateway, logger logging.Logger) *AuthService {
	return &AuthService{store: s, gw: gw, logger: logger}
}

// Login authenticates against the server and remembers the username. The
// gateway persists the issued token pair through its refresh hook.
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	if err := s.gw.Login(ctx, username, password); err != nil {
		return err
	}
	return s.store.Meta.Set(ctx, common.MetaKeyUsername, []byte(username))
}

// Register creates an account and logs in with it.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if err := s.gw.Register(ctx, username, password); err != nil {
		return err
	}
	return s.Login(ctx, username, password)
}

// CurrentUser returns the logged-in username, or "" if none.
func (s *AuthService) CurrentUser(ctx context.Context) (string, error) {
	v, err := s.store.Meta.Get(ctx, common.MetaKeyUsername)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Logout wipes every local collection, pending operations included. Data
// queued but never pushed is lost; that is the contract of logging out.
func (s *AuthService) Logout(ctx context.Context) error {
	s.logger.Info(ctx, "logging out, clearing local state")
	return s.store.ClearAll(ctx)
}
