// Package seeders provides a registry of database seed functions.
//
// Usage (define a seeder in any file in this package):
//
//	func init() {
//	    seeders.Register("users", SeedUsers)
//	}
//
//	func SeedUsers(ctx context.Context, repos repositories.Set) error {
//	    // insert documents …
//	    return nil
//	}
//
// Then run via CLI: parcelhub db:seed
package seeders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/shashiranjanraj/parcelhub/app/repositories"
)

// SeederFunc is the signature for a seed function.
type SeederFunc func(ctx context.Context, repos repositories.Set) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry.
// Call this from init() in your seeder files.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names returns the registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// RunAll executes every registered seeder in registration order, reporting
// progress to out. A seeder whose documents already exist (duplicate key) is
// reported as skipped; any other error stops the run.
func RunAll(ctx context.Context, repos repositories.Set, out io.Writer) error {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	if len(current) == 0 {
		fmt.Fprintln(out, "  (no seeders registered)")
		return nil
	}

	for _, e := range current {
		fmt.Fprintf(out, "  • Running seeder: %s … ", e.name)
		err := e.fn(ctx, repos)
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			fmt.Fprintln(out, "skipped (already seeded)")
		case err != nil:
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		default:
			fmt.Fprintln(out, "done")
		}
	}
	return nil
}
