package domain

import "context"

// Preflight checks an input document before a subprocess is spawned for it
type Preflight interface {
	Check(ctx context.Context, path string) error
}

// Recorder persists conversion history
type Recorder interface {
	// Record stores one conversion. Implementations assign ID and CreatedAt
	// when they are zero.
	Record(ctx context.Context, c *Conversion) error

	// Recent returns up to limit conversions, newest first
	Recent(ctx context.Context, limit int) ([]Conversion, error)
}
