// Package engine wraps the external encoding engine behind a narrow
// write-file / exec / read-file contract and owns its lifecycle. The
// pipeline never assumes anything about the engine beyond this interface.
package engine

import "context"

// Config carries the resolved settings an engine instance is loaded with.
type Config struct {
	BinaryPath string // Resolved engine binary
	Threads    int    // 1 = single-threaded; 0 = engine decides (multi)
	Verbose    bool
}

// Engine is the boundary to the external encoding engine. One instance is
// shared across requests; per-request files must use collision-free names.
type Engine interface {
	// Load prepares the instance for use. It must be called once before any
	// other operation.
	Load(ctx context.Context, cfg Config) error

	// WriteFile stores data under name in the engine's workspace.
	WriteFile(name string, data []byte) error

	// ReadFile returns the bytes of a workspace file.
	ReadFile(name string) ([]byte, error)

	// Remove deletes a workspace file. Missing files are not an error.
	Remove(name string) error

	// Exec runs one engine command. onLine, when non-nil, receives each
	// stdout line as it is produced (used for progress reporting).
	Exec(ctx context.Context, argv []string, onLine func(string)) error

	// Close tears down the instance and its workspace.
	Close() error
}
