package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

const chunkSize = 8 * 1024

// Read returns at most maxLines complete lines from the end of the file at
// path, oldest first. A missing file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	// Read backwards until the buffer holds more than maxLines newlines or
	// the start of the file is reached.
	var tail []byte
	offset := info.Size()
	for offset > 0 && bytes.Count(tail, []byte{'\n'}) <= maxLines {
		n := int64(chunkSize)
		if offset < n {
			n = offset
		}
		offset -= n
		chunk := make([]byte, n)
		if _, err := file.ReadAt(chunk, offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log: %w", err)
		}
		tail = append(chunk, tail...)
	}

	tail = bytes.TrimRight(tail, "\n")
	if len(tail) == 0 {
		return nil, nil
	}
	parts := bytes.Split(tail, []byte{'\n'})
	if offset > 0 && len(parts) > maxLines {
		// The first part may be a fragment of a longer line.
		parts = parts[1:]
	}
	if len(parts) > maxLines {
		parts = parts[len(parts)-maxLines:]
	}

	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = string(bytes.TrimRight(p, "\r"))
	}
	return lines, nil
}
