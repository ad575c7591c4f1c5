package supervisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrLogNotFound means the service has no log file yet.
var ErrLogNotFound = errors.New("log not found")

// DefaultLogLines is the tail length when the caller does not choose one.
const DefaultLogLines = 20

const tailChunkSize = 32 * 1024

// Logs returns the last lineCount lines of the named service's log file.
func (s *Supervisor) Logs(name string, lineCount int) ([]string, error) {
	svc, err := s.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	if lineCount <= 0 {
		lineCount = DefaultLogLines
	}
	lines, err := tailLines(svc.LogPath, lineCount)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLogNotFound, svc.LogPath)
		}
		return nil, fmt.Errorf("logs %s: %w", svc.Name, err)
	}
	return lines, nil
}

// tailLines reads the last n lines of the file at path, scanning backwards
// in chunks so large logs are not read whole.
func tailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}

	var buf []byte
	offset := size
	for offset > 0 && countLines(buf) <= n {
		chunk := int64(tailChunkSize)
		if chunk > offset {
			chunk = offset
		}
		offset -= chunk
		b := make([]byte, chunk)
		if _, err := f.ReadAt(b, offset); err != nil && err != io.EOF {
			return nil, err
		}
		buf = append(b, buf...)
	}

	text := strings.TrimSuffix(string(buf), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// countLines counts newline-terminated lines plus a trailing partial line.
func countLines(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	count := 0
	for _, c := range b {
		if c == '\n' {
			count++
		}
	}
	if b[len(b)-1] != '\n' {
		count++
	}
	return count
}
