package model

// Writer defines a generic interface for writing task snapshots to an output location.
type Writer interface {
	// Write takes a snapshot payload and persists it under the given name.
	// The implementation is expected to know how to handle the payload type it receives.
	Write(payload interface{}, name string) error

	// Type returns the writer type as used in the configuration (e.g., "csv").
	Type() string
}
