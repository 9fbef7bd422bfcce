package cli

import (
	"bufio"
	"context"
	"errors"
	"os"

	_ "modernc.org/sqlite"

	"github.com/driftbox/driftbox/internal/client/config"
	"github.com/driftbox/driftbox/internal/client/gateway"
	"github.com/driftbox/driftbox/internal/client/netmon"
	"github.com/driftbox/driftbox/internal/client/services"
	"github.com/driftbox/driftbox/internal/client/store"
	"github.com/driftbox/driftbox/internal/client/syncer"
	"github.com/driftbox/driftbox/internal/common"
	"github.com/driftbox/driftbox/internal/logging"
)

// App wires the local store, the server gateway, the connectivity monitor
// and the sync engine behind the interactive shell.
type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *store.Store
	gw      *gateway.HTTPGateway
	monitor *netmon.Monitor
	auth    *services.AuthService
	files   *services.FileService
	folders *services.FolderService
	engine  *syncer.Engine
	reader  *bufio.Reader

	// cwd is the folder the shell is "in"; nil means the root. path holds
	// the names walked to get there, for the prompt.
	cwd  *string
	path []breadcrumb
}

type breadcrumb struct {
	id   *string
	name string
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	s, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	gw := gateway.NewHTTPGateway(cfg.ServerURL, cfg.RequestTimeout)
	gw.OnTokensRefreshed = func(access, refresh string) {
		if err := s.Meta.Set(ctx, common.MetaKeyAccessToken, []byte(access)); err != nil {
			logger.Warn(ctx, "failed to persist access token", "error", err)
		}
		if err := s.Meta.Set(ctx, common.MetaKeyRefreshToken, []byte(refresh)); err != nil {
			logger.Warn(ctx, "failed to persist refresh token", "error", err)
		}
	}
	if err := restoreSession(ctx, s, gw); err != nil {
		_ = s.Close()
		return nil, err
	}

	monitor := netmon.New(gw, cfg.OnlineCheckInterval, logger)
	cache := services.CacheLimits{
		MaxFileSize:  cfg.Cache.MaxFileSize,
		MaxTotalSize: cfg.Cache.MaxTotalSize,
	}

	return &App{
		config:  cfg,
		logger:  logger,
		store:   s,
		gw:      gw,
		monitor: monitor,
		auth:    services.NewAuthService(s, gw, logger),
		files:   services.NewFileService(s, gw, monitor, cache, logger),
		folders: services.NewFolderService(s, gw, monitor, logger),
		engine: syncer.New(s, gw, syncer.CacheLimits{
			MaxFileSize:  cfg.Cache.MaxFileSize,
			MaxTotalSize: cfg.Cache.MaxTotalSize,
		}, logger),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// restoreSession loads a persisted token pair into the gateway so earlier
// logins survive restarts.
func restoreSession(ctx context.Context, s *store.Store, gw *gateway.HTTPGateway) error {
	access, err := s.Meta.Get(ctx, common.MetaKeyAccessToken)
	if err != nil {
		return err
	}
	refresh, err := s.Meta.Get(ctx, common.MetaKeyRefreshToken)
	if err != nil {
		return err
	}
	gw.SetTokens(string(access), string(refresh))
	return nil
}

// Run starts the connectivity watcher and the interactive shell. It
// returns when the user exits.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		_ = a.gw.Close()
		_ = a.store.Close()
	}()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Each offline-to-online transition triggers one full sync; flapping
	// during a running pass is absorbed by the engine's busy guard.
	a.monitor.Subscribe(func(online bool) {
		if online {
			go a.backgroundSync(watchCtx)
		}
	})
	a.monitor.Start(watchCtx)

	// Once per session: drain anything queued while the app was closed.
	if a.monitor.CheckNow(ctx) && a.isLoggedIn(ctx) {
		a.backgroundSync(ctx)
	}

	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) backgroundSync(ctx context.Context) {
	if !a.isLoggedIn(ctx) {
		return
	}
	err := a.engine.FullSync(ctx)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrSyncBusy):
		// Another pass is already running; it will cover this trigger.
	default:
		a.logger.Warn(ctx, "sync failed", "error", err)
	}
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	user, err := a.auth.CurrentUser(ctx)
	return err == nil && user != ""
}

func (a *App) status(ctx context.Context) string {
	mode := "offline"
	if a.monitor.Online() {
		mode = "online"
	}
	user, err := a.auth.CurrentUser(ctx)
	if err != nil || user == "" {
		return mode
	}
	return user + " | " + mode + " | " + a.pwd()
}

func (a *App) pwd() string {
	out := "/"
	for _, b := range a.path {
		out += b.name + "/"
	}
	return out
}
