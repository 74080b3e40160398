package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// copyVerified copies src over dst through a temporary file in dst's
// directory. The temporary copy is re-read and compared against the source
// digest before it atomically replaces dst, so dst is either the old file or
// a complete copy.
func copyVerified(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	tmp, err := renameio.TempFile(filepath.Dir(dst), dst)
	if err != nil {
		return fmt.Errorf("create temp copy: %w", err)
	}
	defer func() { _ = tmp.Cleanup() }()

	srcHash := sha256.New()
	written, err := io.Copy(tmp, io.TeeReader(in, srcHash))
	if err != nil {
		return err
	}
	if written != info.Size() {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind temp copy: %w", err)
	}
	dstHash := sha256.New()
	if _, err := io.Copy(dstHash, tmp); err != nil {
		return fmt.Errorf("read back temp copy: %w", err)
	}
	if !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)) {
		return fmt.Errorf("copy hash mismatch: %s differs from %s", tmp.Name(), src)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp copy: %w", err)
	}
	return tmp.CloseAtomicallyReplace()
}
