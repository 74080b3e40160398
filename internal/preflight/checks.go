package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// outputHeadroom is added to the space a job is expected to need.
const outputHeadroom int64 = 64 << 20

var statfs = unix.Statfs

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding path.
func FreeSpace(path string) (int64, error) {
	var st unix.Statfs_t
	if err := statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return int64(st.Bavail) * int64(st.Bsize), nil //nolint:gosec
}

// CheckFreeSpace verifies that dir has at least need bytes available.
func CheckFreeSpace(name, dir string, need int64) Result {
	free, err := FreeSpace(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	if free < need {
		return Result{Name: name, Detail: fmt.Sprintf("%s has %s free, need %s", dir, humanize.IBytes(uint64(free)), humanize.IBytes(uint64(need)))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s free)", dir, humanize.IBytes(uint64(free)))}
}

// CheckOutputSpace verifies that the directory holding input can take
// another copy of it plus headroom. Outputs are always written beside the
// input, so a conversion or split needs roughly the input's size again.
func CheckOutputSpace(input string) Result {
	info, err := os.Stat(input)
	if err != nil {
		return Result{Name: "Output space", Detail: fmt.Sprintf("%s (error: %v)", input, err)}
	}
	return CheckFreeSpace("Output space", filepath.Dir(input), info.Size()+outputHeadroom)
}
