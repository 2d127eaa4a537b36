package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Errors returned by storage operations.
var (
	// ErrClosed is returned when a store is used after Close.
	ErrClosed = errors.New("storage is closed")

	// ErrEmptyKey is returned when an empty key is used.
	ErrEmptyKey = errors.New("storage key is empty")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// KV is a process-durable key-value store of string values.
type KV interface {
	// Get returns the value for key. The boolean is false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Close releases the underlying resources.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open opens a KV using the named driver. path is ignored by the memory driver.
func Open(driver, path string) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverFile, "":
		return OpenFile(path)
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
