package usecase

import "errors"

// Sentinel errors for adapters reporting no-op operations
var (
	ErrRiskNotFound       = errors.New("risk not found")
	ErrBlankDescription   = errors.New("risk description is required")
	ErrIDExhausted        = errors.New("no unused risk id could be generated")
	ErrStoreNotBound      = errors.New("risk store is not bound to context")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// Context keys for error values
const (
	RiskIDKey     = "risk_id"
	StorageKeyKey = "storage_key"
)
