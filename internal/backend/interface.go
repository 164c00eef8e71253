package backend

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/services"
	"budget/internal/sheets"
)

// CleanupFunc releases what a factory opened.
type CleanupFunc func() error

// BackendResult holds the store and, when AMQP is configured, the event
// client. Publisher is nil when events are disabled.
type BackendResult struct {
	Store     services.Store
	Publisher services.EventPublisher
	AMQP      *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateSheetWriter returns the Google Sheets writer, or the in-memory
	// one when no spreadsheet is configured.
	CreateSheetWriter(ctx context.Context, config Config) (sheets.BudgetSheetWriter, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType names a store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
