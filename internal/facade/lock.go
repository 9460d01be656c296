package facade

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
	"github.com/mditgo/mditgo/internal/storage"
)

// vaultStateDirName is the reserved directory excluded from indexing and
// used to hold the advisory lock file.
const vaultStateDirName = ".mdit"

// VaultLock is a single-writer advisory lock over one vault, held as a
// lock file under the vault's own state directory.
type VaultLock struct {
	flock *flock.Flock
}

// AcquireVaultLock takes an exclusive, non-blocking advisory lock on
// root's vault. A caller that cannot acquire it should treat the vault as
// busy rather than retry indefinitely, matching VAULT_WORKSPACE_UNAVAILABLE's
// Transient category.
func AcquireVaultLock(root string) (*VaultLock, error) {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(canonicalRoot, vaultStateDirName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "creating vault state directory")
	}

	lockPath := filepath.Join(stateDir, "writer.lock")
	fl := flock.New(lockPath)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "acquiring vault lock")
	}
	if !ok {
		return nil, mditerrors.New(mditerrors.CodeVaultWorkspaceUnavailable, fmt.Sprintf("vault %s is locked by another process", canonicalRoot))
	}

	return &VaultLock{flock: fl}, nil
}

// Release unlocks the vault, allowing another process to acquire it.
func (l *VaultLock) Release() error {
	return l.flock.Unlock()
}
