// Package eventlog carries the ledger's state-change events to observers.
package eventlog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

// Journal file format constants.
const (
	// MagicBytes opens every journal segment.
	MagicBytes = "ELEVLOG\x01"

	// headerSize is the per-record header: length (4) + crc32 (4).
	headerSize = 8

	filePrefix    = "events-"
	fileExtension = ".log"

	defaultFilePerm = 0600
	defaultDirPerm  = 0750
)

// Default configuration values.
const (
	DefaultSyncInterval       = time.Second
	DefaultMaxFileSize  int64 = 64 << 20 // 64MB
)

// Journal errors.
var (
	ErrInvalidMagic     = errors.New("eventlog: invalid magic bytes")
	ErrChecksumMismatch = errors.New("eventlog: checksum mismatch")
	ErrJournalClosed    = errors.New("eventlog: journal closed")
)

// SyncMode defines how the journal syncs to disk.
type SyncMode string

const (
	// SyncModeSync fsyncs after every append.
	SyncModeSync SyncMode = "sync"

	// SyncModeBatch fsyncs on a timer.
	SyncModeBatch SyncMode = "batch"
)

// Config configures the journal.
type Config struct {
	// Dir is the directory holding journal segments.
	Dir string

	// SyncMode selects per-append or timed fsync.
	SyncMode SyncMode

	// SyncInterval is the fsync period in batch mode.
	SyncInterval time.Duration

	// MaxFileSize rotates the active segment once exceeded.
	MaxFileSize int64
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:          dir,
		SyncMode:     SyncModeBatch,
		SyncInterval: DefaultSyncInterval,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// Journal is a durable append-only event log. Records are JSON payloads
// framed by a length/CRC32 header; segments rotate by size and replay
// in name order. Implements Sink.
type Journal struct {
	cfg Config

	mu     sync.Mutex
	file   *os.File
	size   int64
	seq    int
	dirty  bool
	closed bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens (or creates) the journal in cfg.Dir and begins appending
// to a fresh segment after any existing ones.
func Open(cfg Config) (*Journal, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("eventlog: dir is required")
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.SyncMode == "" {
		cfg.SyncMode = SyncModeBatch
	}

	if err := os.MkdirAll(cfg.Dir, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("eventlog: create dir: %w", err)
	}

	segments, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}

	j := &Journal{
		cfg:    cfg,
		seq:    len(segments),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if err := j.rotateLocked(); err != nil {
		return nil, err
	}

	if cfg.SyncMode == SyncModeBatch {
		go j.syncLoop()
	} else {
		close(j.doneCh)
	}

	return j, nil
}

// Append implements Sink: it stamps the event with an identifier if it
// has none, frames it and writes it to the active segment.
func (j *Journal) Append(event domain.Event) error {
	if event.ID == "" {
		id, err := domain.NewEventID()
		if err != nil {
			return err
		}
		event.ID = id
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventlog: marshal event: %w", err)
	}

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(header[4:8], crc32.ChecksumIEEE(payload))

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	if j.size+int64(len(header)+len(payload)) > j.cfg.MaxFileSize {
		if err := j.rotateLocked(); err != nil {
			return err
		}
	}

	if _, err := j.file.Write(header); err != nil {
		return fmt.Errorf("eventlog: write header: %w", err)
	}
	if _, err := j.file.Write(payload); err != nil {
		return fmt.Errorf("eventlog: write payload: %w", err)
	}
	j.size += int64(len(header) + len(payload))

	if j.cfg.SyncMode == SyncModeSync {
		return j.file.Sync()
	}
	j.dirty = true
	return nil
}

// Sync forces an fsync of the active segment.
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || !j.dirty {
		return nil
	}
	j.dirty = false
	return j.file.Sync()
}

// Close syncs and closes the journal. Further appends fail.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	file := j.file
	j.mu.Unlock()

	close(j.stopCh)
	if j.cfg.SyncMode == SyncModeBatch {
		<-j.doneCh
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// rotateLocked opens the next segment. Caller holds j.mu (or is the
// constructor before the journal escapes).
func (j *Journal) rotateLocked() error {
	if j.file != nil {
		if err := j.file.Sync(); err != nil {
			return err
		}
		if err := j.file.Close(); err != nil {
			return err
		}
	}

	name := fmt.Sprintf("%s%08d%s", filePrefix, j.seq, fileExtension)
	j.seq++

	file, err := os.OpenFile(filepath.Join(j.cfg.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, defaultFilePerm)
	if err != nil {
		return fmt.Errorf("eventlog: open segment: %w", err)
	}
	if _, err := file.Write([]byte(MagicBytes)); err != nil {
		file.Close()
		return fmt.Errorf("eventlog: write magic: %w", err)
	}

	j.file = file
	j.size = int64(len(MagicBytes))
	return nil
}

// syncLoop fsyncs dirty segments on the configured interval.
func (j *Journal) syncLoop() {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = j.Sync()
		case <-j.stopCh:
			return
		}
	}
}

// Replay reads every event from the journal directory, oldest first.
// A torn record at the tail of the newest segment (a crash mid-write)
// is tolerated; a checksum mismatch anywhere else is corruption.
func Replay(dir string) ([]domain.Event, error) {
	segments, err := listSegments(dir)
	if err != nil {
		return nil, err
	}

	var events []domain.Event
	for i, segment := range segments {
		last := i == len(segments)-1
		segEvents, err := replaySegment(filepath.Join(dir, segment), last)
		if err != nil {
			return nil, fmt.Errorf("eventlog: segment %s: %w", segment, err)
		}
		events = append(events, segEvents...)
	}
	return events, nil
}

func replaySegment(path string, tolerateTorn bool) ([]domain.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(file, magic); err != nil {
		return nil, ErrInvalidMagic
	}
	if string(magic) != MagicBytes {
		return nil, ErrInvalidMagic
	}

	var events []domain.Event
	header := make([]byte, headerSize)
	for {
		if _, err := io.ReadFull(file, header); err != nil {
			if err == io.EOF {
				return events, nil
			}
			// Partial header: torn tail.
			if tolerateTorn && err == io.ErrUnexpectedEOF {
				return events, nil
			}
			return nil, err
		}

		length := binary.BigEndian.Uint32(header[0:4])
		checksum := binary.BigEndian.Uint32(header[4:8])

		payload := make([]byte, length)
		if _, err := io.ReadFull(file, payload); err != nil {
			if tolerateTorn && (err == io.EOF || err == io.ErrUnexpectedEOF) {
				return events, nil
			}
			return nil, err
		}

		if crc32.ChecksumIEEE(payload) != checksum {
			return nil, ErrChecksumMismatch
		}

		var event domain.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		events = append(events, event)
	}
}

// listSegments returns journal segment file names in replay order.
func listSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("eventlog: read dir: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && filepath.Ext(name) == fileExtension &&
			len(name) > len(filePrefix) && name[:len(filePrefix)] == filePrefix {
			segments = append(segments, name)
		}
	}
	sort.Strings(segments)
	return segments, nil
}
