package watch

import (
	"errors"
	"fmt"
)

// ErrRegistryDesync is returned when the channel delivers an event for a
// watch descriptor the registry cannot explain. The engine cannot safely
// continue past this.
var ErrRegistryDesync = errors.New("watch registry desync")

// Registry maps watch descriptors back to the absolute path they were
// registered for. It is populated once before the loop starts and read-only
// afterwards, so no locking is required.
type Registry struct {
	paths map[int]string
}

func NewRegistry() *Registry {
	return &Registry{paths: make(map[int]string)}
}

// Register records path under wd. Registering the same path twice is
// permitted; the newest descriptor wins for that path string.
func (r *Registry) Register(wd int, path string) {
	r.paths[wd] = path
}

// Lookup resolves wd to its registered path.
func (r *Registry) Lookup(wd int) (string, error) {
	path, ok := r.paths[wd]
	if !ok {
		return "", fmt.Errorf("%w: unknown watch descriptor %d", ErrRegistryDesync, wd)
	}

	return path, nil
}

// Len returns the number of registered watches.
func (r *Registry) Len() int {
	return len(r.paths)
}
