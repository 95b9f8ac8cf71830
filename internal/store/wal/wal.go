// Package wal implements the write-ahead log backing the disk-resident
// Node Store: a length-prefixed, append-only binary framing of JSON
// payloads, flushed and synced on every append. Adapted from the
// teacher's internal/storage/wal, generalized from vector entries to
// node DTOs.
package wal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
)

// Operation identifies the kind of change a WAL entry records.
type Operation uint8

const (
	OpPut Operation = iota
	OpDelete
)

// Entry is a single WAL record.
type Entry struct {
	Timestamp int64
	Operation Operation
	ID        string
	Node      *node.DTO
}

// WAL is an append-only, length-prefixed binary log.
type WAL struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
	closed bool
}

// New opens (creating if absent) the WAL file at path for appending.
func New(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open wal: %w", err)
	}
	return &WAL{file: file, writer: bufio.NewWriter(file), path: path}, nil
}

// Append writes entry and forces it to stable storage before returning.
func (w *WAL) Append(entry *Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("wal is closed")
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixNano()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize wal entry: %w", err)
	}

	if err := binary.Write(w.writer, binary.LittleEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("write wal length prefix: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("write wal payload: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush wal: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync wal: %w", err)
	}
	return nil
}

// Read replays every entry in the log, in write order, for recovery.
func (w *WAL) Read() ([]*Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.Open(w.path)
	if err != nil {
		return nil, fmt.Errorf("open wal for read: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var entries []*Entry
	for {
		var length uint32
		if err := binary.Read(reader, binary.LittleEndian, &length); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read wal length prefix: %w", err)
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(reader, data); err != nil {
			return nil, fmt.Errorf("read wal payload: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("deserialize wal entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// Close flushes, syncs, and closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	var errs []error
	if err := w.writer.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := w.file.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}
	w.closed = true
	if len(errs) > 0 {
		return fmt.Errorf("errors closing wal: %v", errs)
	}
	return nil
}
