// services/errors.go
package services

import "errors"

var (
	// ErrInvalidInput — missing or empty request fields; caller error.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingUnavailable — the embedding provider failed or timed out;
	// transient, the caller may retry or fall back to lexical scoring.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrEmbeddingDimensionMismatch — vectors of different lengths; indicates
	// provider misconfiguration, not retried.
	ErrEmbeddingDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrUnauthorized — caller is not the registered emission authority.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAlreadyInitialized — emission state was already created.
	ErrAlreadyInitialized = errors.New("ledger already initialized")
	// ErrLedgerNotFound — emission state was never initialized.
	ErrLedgerNotFound = errors.New("ledger not initialized")
	// ErrConcurrentModification — conflicting ledger write after retries.
	ErrConcurrentModification = errors.New("concurrent ledger modification")
)
