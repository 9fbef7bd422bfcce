package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/driftbox/driftbox/internal/client/syncer"
	"github.com/driftbox/driftbox/internal/common"
)

// Sync runs a full sync and reports per-phase progress.
func (a *App) Sync(ctx context.Context) error {
	unsubscribe := a.engine.Subscribe(func(ev syncer.Event) {
		switch ev.Type {
		case syncer.EventSyncComplete:
			printlnFn(fmt.Sprintf("%s: %d ok, %d failed", ev.Direction, ev.Succeeded, ev.Failed))
		case syncer.EventSyncError:
			printlnFn(fmt.Sprintf("%s: %v", ev.Direction, ev.Err))
		}
	})
	defer unsubscribe()

	err := a.engine.FullSync(ctx)
	if errors.Is(err, common.ErrSyncBusy) {
		printlnFn("a sync is already running")
		return nil
	}
	return err
}

// Status prints connectivity, session and queue state.
func (a *App) Status(ctx context.Context) error {
	if a.monitor.Online() {
		printlnFn("server: reachable")
	} else {
		printlnFn("server: unreachable, working offline")
	}

	user, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == "" {
		printlnFn("not logged in")
		return nil
	}
	printlnFn("logged in as", user)

	pending, err := a.store.Oplog.Count(ctx)
	if err != nil {
		return err
	}
	printlnFn("pending operations:", pending)

	last, err := a.store.Meta.GetTime(ctx, common.MetaKeyLastSyncAt)
	if err != nil {
		return err
	}
	if last.IsZero() {
		printlnFn("last sync: never")
	} else {
		printlnFn("last sync:", last.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
