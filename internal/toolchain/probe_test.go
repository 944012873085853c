package toolchain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestProbeUnavailable reports unavailable for tools that do not exist.
func TestProbeUnavailable(t *testing.T) {
	t.Parallel()

	capability := Probe("definitely-not-a-real-tool-name")
	require.False(t, capability.Available)
	require.Empty(t, capability.Path)
	require.Equal(t, "definitely-not-a-real-tool-name", capability.Name)
}

// TestFirstAvailable walks the chain in order and returns the first hit.
func TestFirstAvailable(t *testing.T) {
	t.Parallel()

	probe := func(name string) Capability {
		if name == "second" || name == "third" {
			return Capability{Name: name, Path: "/usr/bin/" + name, Available: true}
		}

		return Capability{Name: name}
	}

	capability, ok := FirstAvailable(probe, "first", "second", "third")
	require.True(t, ok)
	require.Equal(t, "second", capability.Name)

	_, ok = FirstAvailable(probe, "first", "fourth")
	require.False(t, ok)
}
