package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVersionStrings verifies Short and Full agree and include build metadata.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Contains(t, Full(), Commit)
	require.Contains(t, Full(), BuildTime)
}
