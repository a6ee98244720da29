package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogRotator wraps a log file and keeps at most maxLines of its most recent lines.
// The file is rewritten once twice the limit has been written since the last rewrite.
type LogRotator struct {
	writer   io.Writer
	buffer   *RingBuffer
	filePath string
	mutex    sync.Mutex
}

// NewLogRotator creates a new LogRotator.
func NewLogRotator(writer io.Writer, maxLines int, filePath string) *LogRotator {
	return &LogRotator{
		writer:   writer,
		buffer:   NewRingBuffer(max(maxLines, 1)),
		filePath: filePath,
	}
}

// Write implements io.Writer.
func (w *LogRotator) Write(p []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	n, err := w.writer.Write(p)
	if err != nil {
		return n, err
	}

	for line := range bytes.SplitSeq(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}

		w.buffer.add(string(line))

		if w.buffer.totalSeen >= w.buffer.capacity*2 {
			if err := w.rotate(); err != nil {
				return n, fmt.Errorf("failed to rotate log file: %w", err)
			}
			w.buffer.totalSeen = w.buffer.size
		}
	}

	return n, nil
}

// rotate replaces the file with the buffered lines and reopens it for appending.
func (w *LogRotator) rotate() error {
	lines := w.buffer.getLines()
	if len(lines) == 0 {
		return nil
	}

	temp, err := os.CreateTemp(filepath.Dir(w.filePath), "rotate-*.log")
	if err != nil {
		return err
	}

	tempPath := temp.Name()

	_, err = temp.WriteString(strings.Join(lines, "\n") + "\n")
	if err == nil {
		err = temp.Sync()
	}

	if closeErr := temp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tempPath)
		return err
	}

	if closer, ok := w.writer.(io.Closer); ok {
		closer.Close()
	}

	if err := os.Rename(tempPath, w.filePath); err != nil {
		return err
	}

	file, err := os.OpenFile(w.filePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.writer = file

	return nil
}
