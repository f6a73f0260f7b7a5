package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving duration values stored as integers.
type TimeConfig interface {
	// GetSecond reads key as a number of seconds.
	GetSecond(key string) time.Duration

	// GetMinute reads key as a number of minutes.
	GetMinute(key string) time.Duration
}

// Config defines the typed lookups the service needs from its configuration.
//
// Missing keys resolve to the registered default, or to the zero value.
type Config interface {
	io.Closer
	TimeConfig

	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetUint16(key string) uint16
	GetFloat64(key string) float64
	GetString(key string) string

	// GetArray reads a comma separated value (or a YAML list) as trimmed,
	// non-empty strings.
	GetArray(key string) []string
}
