package report

import (
	"os"
	"path/filepath"

	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

// WriteFile replaces path with data atomically: readers see either the
// previous report or the new one, never a partial file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "create temp file in "+dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "write "+tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "sync "+tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "close "+tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "chmod "+tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInternal, kerrors.PhaseReport, "rename to "+path, err)
	}
	return nil
}
