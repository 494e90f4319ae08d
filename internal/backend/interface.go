package backend

import (
	"context"
	"time"

	"budgetbuddy/internal/services"
)

// Backend is the session store behind the budget service.
type Backend interface {
	services.Store
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store, the optional alert publisher and a cleanup
// function releasing both.
type BackendResult struct {
	Backend   Backend
	Publisher services.AlertPublisher // nil when the alert feed is disabled
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// memory
	SessionMax int
	SessionTTL time.Duration

	// sqlite
	SQLiteDBPath string

	// alert feed
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
