package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
// Missing or non-numeric values yield zero.
type TimeConfig interface {
	// GetMillisecond returns the integer value for key as milliseconds.
	GetMillisecond(key string) time.Duration
	// GetSecond returns the integer value for key as seconds.
	GetSecond(key string) time.Duration
	// GetMinute returns the integer value for key as minutes.
	GetMinute(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations convert the stored value and return the zero value when the
// key is missing or not convertible.
type Config interface {
	io.Closer
	TimeConfig

	// IsSet reports whether key has a value in any source.
	IsSet(key string) bool

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetBinary returns the base64-decoded value for key, or nil.
	GetBinary(key string) []byte

	// GetArray returns the value for key stored as "<element1>,<element2>,...",
	// trimmed, without empty elements.
	GetArray(key string) []string

	// GetMap returns the value for key stored as "<key1>:<value1>,<key2>:<value2>,...".
	GetMap(key string) map[string]string
}
