// Package common defines shared constants and sentinel errors used across
// the driftbox client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStorage marks a local-store write or read failure (e.g. the
	// underlying SQLite file is unwritable). The engine never retries
	// these internally; the calling service decides what to surface.
	ErrStorage = errors.New("storage failure")

	// ErrNetworkUnavailable marks a gateway call that failed to reach the
	// server at all. It triggers the offline fallback path in services and
	// leaves pending operations untouched during replay.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrReconciliation marks a temp-identifier rewrite that could not be
	// applied. The affected operation stays pending for the next pass.
	ErrReconciliation = errors.New("reconciliation failed")

	// ErrSyncBusy is returned to a sync request arriving while another
	// sync session is in flight. The duplicate request is a no-op.
	ErrSyncBusy = errors.New("sync already in progress")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
)
