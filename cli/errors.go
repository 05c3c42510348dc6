package cli

import "errors"

// Process configuration errors. ErrInvalidLogLevel lives in logging.go
// alongside ApplyLogLevel, the only place that returns it.
var (
	ErrDatabaseURLEmpty     = errors.New("database-url must be set")
	ErrListenAddrEmpty      = errors.New("listen-address must be set")
	ErrInvalidListenAddr    = errors.New("listen-address must be host:port")
	ErrScanDelayNonPositive = errors.New("fixed-delay-seconds must be positive")
)
