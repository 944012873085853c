package builder

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/multiinstance/dist-builder/internal/domain/dist"
)

// TestAcquireReleaseReacquire claims, releases, and claims the root again.
func TestAcquireReleaseReacquire(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "out")

	release, err := acquireOutputLock(context.Background(), root)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(root, lockFilename))

	release()
	require.NoFileExists(t, filepath.Join(root, lockFilename))

	release, err = acquireOutputLock(context.Background(), root)
	require.NoError(t, err)

	release()
}

// TestAcquireRejectsLiveHolder refuses a root locked by a running process.
func TestAcquireRejectsLiveHolder(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "out")

	release, err := acquireOutputLock(context.Background(), root)
	require.NoError(t, err)

	defer release()

	_, err = acquireOutputLock(context.Background(), root)
	require.ErrorIs(t, err, dist.ErrOutputRootBusy)
}

// TestAcquireReclaimsDeadHolder reclaims a lock whose process is gone.
func TestAcquireReclaimsDeadHolder(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(root, 0o755))

	// A pid beyond any plausible pid_max cannot belong to a live process.
	stale := strconv.Itoa(1 << 30)
	require.NoError(t, os.WriteFile(filepath.Join(root, lockFilename), []byte(stale), 0o644))

	release, err := acquireOutputLock(context.Background(), root)
	require.NoError(t, err)

	release()
}

// TestAcquireReclaimsMalformedLock treats unreadable lock contents as stale.
func TestAcquireReclaimsMalformedLock(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, lockFilename), []byte("not-a-pid"), 0o644))

	release, err := acquireOutputLock(context.Background(), root)
	require.NoError(t, err)

	release()
}
