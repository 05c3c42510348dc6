package cli

import (
	"fmt"
	"net"
)

// Config is the watchdog process's configuration: DATABASE_URL is
// mandatory, everything else has a usable default.
type Config struct {
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" description:"Postgres connection string"`
	ListenAddr  string `long:"listen-address" env:"LISTEN_ADDRESS" description:"REST façade listen address" default:"0.0.0.0:8080"`
	LogLevel    string `long:"log-level" env:"LOG_LEVEL" description:"Log level (trace,debug,info,warn,error)"`

	InitialDelaySeconds int `long:"initial-delay-seconds" env:"INITIAL_DELAY_SECONDS" description:"Delay before the first scan tick" default:"2"`
	FixedDelaySeconds   int `long:"fixed-delay-seconds" env:"FIXED_DELAY_SECONDS" description:"Delay between scan ticks" default:"30"`
	GraceTimeSeconds    int `long:"grace-time-seconds" env:"GRACE_TIME_SECONDS" description:"Grace window for reusing a scheduled run" default:"5"`
}

// Validate checks the fields required for the daemon to boot.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLEmpty
	}
	if c.ListenAddr == "" {
		return ErrListenAddrEmpty
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidListenAddr, err)
	}
	if c.FixedDelaySeconds <= 0 {
		return ErrScanDelayNonPositive
	}
	return nil
}
