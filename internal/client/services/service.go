// Package services implements the per-entity mutation wrappers. Every
// user action follows the same two-path behavior: when the server is
// reachable the mutation is sent directly and the confirmed result is
// cached locally; when it is not, the mutation is applied to the local
// store optimistically and a pending operation is queued for the next
// sync pass.
package services

// Mode tells the caller which path a mutation took.
type Mode string

const (
	// ModeOnline means the server confirmed the mutation directly.
	ModeOnline Mode = "online"
	// ModeOffline means the mutation was applied locally and queued.
	ModeOffline Mode = "offline"
)

// StatusMonitor is the connectivity view the services consult before
// attempting a direct call, and update when a direct call fails on the
// network.
type StatusMonitor interface {
	Online() bool
	SetOnline(online bool)
}

// CacheLimits bounds the content-blob cache.
type CacheLimits struct {
	// MaxFileSize is the largest blob worth caching; bigger files are
	// served from the server only.
	MaxFileSize int64
	// MaxTotalSize is the ceiling for the whole cache; least recently
	// updated blobs are evicted past it.
	MaxTotalSize int64
}

// alwaysOnline is used when no monitor is wired (tests, one-shot tools).
type alwaysOnline struct{}

func (alwaysOnline) Online() bool   { return true }
func (alwaysOnline) SetOnline(bool) {}

var _ StatusMonitor = alwaysOnline{}
