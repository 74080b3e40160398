package logs

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrNoLogs is returned when the log directory holds no run logs.
var ErrNoLogs = errors.New("no run logs found")

type logFile struct {
	path string
	mod  time.Time
}

// Files returns the run logs in dir matching pattern, newest first.
func Files(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob logs: %w", err)
	}
	files := make([]logFile, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, logFile{path: path, mod: info.ModTime()})
	}
	slices.SortFunc(files, func(a, b logFile) int {
		if c := b.mod.Compare(a.mod); c != 0 {
			return c
		}
		return strings.Compare(b.path, a.path)
	})
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}

// Latest returns the most recently written run log in dir.
func Latest(dir, pattern string) (string, error) {
	files, err := Files(dir, pattern)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}
	return files[0], nil
}

// FindJob returns the newest run log containing a record whose job_id
// starts with jobID.
func FindJob(dir, pattern, jobID string) (string, error) {
	files, err := Files(dir, pattern)
	if err != nil {
		return "", err
	}
	match := MatchField("job_id", jobID)
	for _, path := range files {
		found, err := containsMatch(path, match)
		if err != nil {
			return "", err
		}
		if found {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w for job %s in %s", ErrNoLogs, jobID, dir)
}

func containsMatch(path string, match func(string) bool) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	scanner := newScanner(file)
	for scanner.Scan() {
		if match(scanner.Text()) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("read log file: %w", err)
	}
	return false, nil
}

func newScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
