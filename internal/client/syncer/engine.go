// Package syncer reconciles local state with the server: push drains the
// pending-operation log in order, pull refreshes the local cache from
// server listings, and full sync runs push then pull so queued local
// intent is never clobbered by a stale server copy.
package syncer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/driftbox/driftbox/internal/client/gateway"
	"github.com/driftbox/driftbox/internal/client/store"
	"github.com/driftbox/driftbox/internal/common"
	"github.com/driftbox/driftbox/internal/logging"
)

// EventType tags progress notifications.
type EventType string

const (
	EventSyncStart    EventType = "sync-start"
	EventSyncComplete EventType = "sync-complete"
	EventSyncError    EventType = "sync-error"
)

// Direction tells which half of the sync an event belongs to.
type Direction string

const (
	DirectionToServer   Direction = "to-server"
	DirectionFromServer Direction = "from-server"
)

// Event is one progress notification delivered to listeners.
type Event struct {
	Type      EventType
	Direction Direction
	// Succeeded and Failed carry item counts on sync-complete events.
	Succeeded int
	Failed    int
	// Err is set on sync-error events.
	Err error
}

// Summary reports the outcome of one push or pull pass.
type Summary struct {
	Succeeded int
	Failed    int
}

// CacheLimits mirrors the content-cache ceilings the pull phase honors.
type CacheLimits struct {
	MaxFileSize  int64
	MaxTotalSize int64
}

// Engine runs sync passes. At most one sync session is in flight at a
// time; a request arriving while one runs is rejected with
// common.ErrSyncBusy rather than queued.
type Engine struct {
	store  *store.Store
	gw     gateway.Gateway
	cache  CacheLimits
	logger logging.Logger

	isSyncing atomic.Bool

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Event)
}

func New(s *store.Store, gw gateway.Gateway, cache CacheLimits, logger logging.Logger) *Engine {
	return &Engine{
		store:     s,
		gw:        gw,
		cache:     cache,
		logger:    logger,
		listeners: make(map[int]func(Event)),
	}
}

// Subscribe registers a listener and returns an unsubscribe function.
// Listeners run synchronously on the syncing goroutine.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// acquire claims the single sync slot.
func (e *Engine) acquire() error {
	if !e.isSyncing.CompareAndSwap(false, true) {
		return common.ErrSyncBusy
	}
	return nil
}

func (e *Engine) release() {
	e.isSyncing.Store(false)
}

// Syncing reports whether a sync session is currently in flight.
func (e *Engine) Syncing() bool {
	return e.isSyncing.Load()
}

// SyncToServer replays the pending-operation log against the server.
func (e *Engine) SyncToServer(ctx context.Context) (Summary, error) {
	if err := e.acquire(); err != nil {
		return Summary{}, err
	}
	defer e.release()
	return e.push(ctx)
}

// SyncFromServer refreshes the local cache from server listings.
func (e *Engine) SyncFromServer(ctx context.Context) (Summary, error) {
	if err := e.acquire(); err != nil {
		return Summary{}, err
	}
	defer e.release()
	return e.pull(ctx)
}

// FullSync runs push then pull as one session. Pushing first drains
// locally-queued intent so the pull cannot overwrite edits that were
// never sent.
func (e *Engine) FullSync(ctx context.Context) error {
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()

	if _, err := e.push(ctx); err != nil {
		return err
	}
	_, err := e.pull(ctx)
	return err
}
