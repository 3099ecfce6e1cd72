package config

import "time"

// Engine defaults.
const (
	DefaultSchemaVersion       = 85
	DefaultPlaceholderMode     = false
	DefaultDebugStrictDispatch = false
	DefaultLinkOriginals       = false
)

// Cache and store defaults.
const (
	DefaultCacheMaxEntries = 10
	DefaultStorePath       = ""
	DefaultStoreMaxSize    = "2 MiB"
)

// Parse defaults. Zero workers means one per CPU.
const (
	DefaultParseWorkers = 0
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Server defaults.
const (
	DefaultServerHost         = "127.0.0.1"
	DefaultServerPort         = 8080
	DefaultServerReadTimeout  = 30 * time.Second
	DefaultServerWriteTimeout = 30 * time.Second
	DefaultServerIdleTimeout  = 60 * time.Second
)
