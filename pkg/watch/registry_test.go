package watch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/filemon/pkg/watch"
)

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := watch.NewRegistry()
	r.Register(1, "/tmp")
	r.Register(2, "/var/spool")

	// Resolution is independent of registration order.
	for _, tc := range []struct {
		path string
		wd   int
	}{
		{wd: 2, path: "/var/spool"},
		{wd: 1, path: "/tmp"},
	} {
		got, err := r.Lookup(tc.wd)
		require.NoError(t, err)
		assert.Equal(t, tc.path, got)
	}

	assert.Equal(t, 2, r.Len())
}

func TestRegistry_UnknownDescriptor(t *testing.T) {
	t.Parallel()

	r := watch.NewRegistry()
	r.Register(1, "/tmp")

	_, err := r.Lookup(99)
	require.ErrorIs(t, err, watch.ErrRegistryDesync)
}

func TestRegistry_ReRegister(t *testing.T) {
	t.Parallel()

	r := watch.NewRegistry()
	r.Register(1, "/tmp")
	r.Register(2, "/tmp")

	// Both descriptors stay resolvable; the newest one wins for the path.
	p1, err := r.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, "/tmp", p1)

	p2, err := r.Lookup(2)
	require.NoError(t, err)
	assert.Equal(t, "/tmp", p2)
}
