package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
)

// lockFilename marks an output root claimed by a running build. No two
// platform runs may target the same output root concurrently; the lock makes
// the orchestrator reject the collision instead of racing.
const lockFilename = ".dist-builder.lock"

// acquireOutputLock claims the output root for this process and returns a
// release function. A live lock held by a running process fails with
// dist.ErrOutputRootBusy; a lock left behind by a dead process is reclaimed.
func acquireOutputLock(ctx context.Context, root string) (func(), error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	lockPath := filepath.Join(root, lockFilename)

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(filepath.Clean(lockPath), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, writeErr := file.WriteString(strconv.Itoa(os.Getpid()))
			if closeErr := file.Close(); writeErr == nil {
				writeErr = closeErr
			}

			if writeErr != nil {
				_ = os.Remove(lockPath)

				return nil, fmt.Errorf("write lock: %w", writeErr)
			}

			release := func() {
				_ = os.Remove(lockPath)
			}

			return release, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock: %w", err)
		}

		if err := reclaimStaleLock(ctx, lockPath); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%s: %w", root, dist.ErrOutputRootBusy)
}

// reclaimStaleLock removes the lock when its holder is no longer running.
func reclaimStaleLock(ctx context.Context, lockPath string) error {
	contents, err := os.ReadFile(filepath.Clean(lockPath))
	if err != nil {
		return fmt.Errorf("read lock: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil {
		// Unreadable lock contents; treat as stale.
		logger.WarnKV(ctx, "Reclaiming malformed output lock", "path", lockPath)

		return removeLock(lockPath)
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("inspect lock holder: %w", err)
	}

	if process != nil {
		return fmt.Errorf("held by pid %d: %w", pid, dist.ErrOutputRootBusy)
	}

	logger.InfoKV(ctx, "Reclaiming stale output lock", "path", lockPath, "pid", pid)

	return removeLock(lockPath)
}

// removeLock deletes the lock file, tolerating a concurrent removal.
func removeLock(lockPath string) error {
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale lock: %w", err)
	}

	return nil
}
