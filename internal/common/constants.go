package common

// Keys used in the user-meta collection.
const (
	MetaKeyLastSyncAt   = "last_sync_at"
	MetaKeyAccessToken  = "access_token"
	MetaKeyRefreshToken = "refresh_token"
	MetaKeyUsername     = "username"
)
