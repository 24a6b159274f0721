// Package storage defines the journal directory file-system abstraction.
package storage

// Provider is the interface for journal file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the journal root).
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path (relative to the journal root).
	Write(path string, content []byte) error
	// Create writes a new file and fails with apperr.ErrAlreadyExists if it exists.
	Create(path string, content []byte) error
}
