package checkpoint

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-contingency/pkg/logging"
	"github.com/dd0wney/cluso-contingency/pkg/metrics"
)

const (
	fileExt       = ".ckpt"
	formatVersion = 1
)

var magic = [4]byte{'C', 'K', 'P', 'T'}

// Store reads and writes snapshots under a directory.
type Store struct {
	dir     string
	logger  logging.Logger
	metrics *metrics.Registry
	mu      sync.Mutex

	// Statistics
	stats Stats
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records store operations in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Store) {
		s.metrics = reg
	}
}

// NewStore opens a store rooted at dir, creating the directory if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	s := &Store{
		dir:    dir,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.Component("checkpoint"), logging.Path(dir))
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file that holds the snapshot for key.
func (s *Store) Path(key Key) string {
	return filepath.Join(s.dir, key.filename())
}

// Save writes snapshot under its key, replacing any previous snapshot.
func (s *Store) Save(snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := encodePayload(snapshot)
	if err != nil {
		s.record("save", metrics.StatusError, 0)
		return fmt.Errorf("encode checkpoint %s: %w", snapshot.Key, err)
	}
	compressed := snappy.Encode(nil, payload)

	created := snapshot.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	path := s.Path(snapshot.Key)
	tmp := path + ".tmp"
	if err := writeFrame(tmp, compressed, created); err != nil {
		os.Remove(tmp)
		s.record("save", metrics.StatusError, 0)
		return fmt.Errorf("write checkpoint %s: %w", snapshot.Key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		s.record("save", metrics.StatusError, 0)
		return fmt.Errorf("failed to rename checkpoint: %w", err)
	}

	s.stats.Saves++
	s.stats.BytesUncompressed += uint64(len(payload))
	s.stats.BytesCompressed += uint64(len(compressed))
	s.record("save", metrics.StatusSuccess, len(compressed))

	s.logger.Debug("checkpoint saved",
		logging.String("key", snapshot.Key.String()),
		logging.Count(len(snapshot.Deltas)),
		logging.Int("bytes", len(compressed)))
	return nil
}

// Load reads the snapshot for key. It returns ErrNotFound when none exists
// and a *CorruptError when the file fails validation.
func (s *Store) Load(key Key) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(key)
	compressed, created, err := readFrame(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.record("load", "miss", 0)
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		s.record("load", metrics.StatusError, 0)
		return nil, err
	}

	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		s.record("load", metrics.StatusError, 0)
		return nil, &CorruptError{Path: path, Reason: fmt.Sprintf("failed to decompress: %v", err)}
	}

	snapshot := &Snapshot{Key: key, CreatedAt: created}
	if err := decodePayload(payload, snapshot); err != nil {
		s.record("load", metrics.StatusError, 0)
		return nil, &CorruptError{Path: path, Reason: err.Error()}
	}

	s.stats.Loads++
	s.record("load", metrics.StatusSuccess, len(compressed))
	s.logger.Debug("checkpoint loaded",
		logging.String("key", key.String()),
		logging.Count(len(snapshot.Deltas)))
	return snapshot, nil
}

// Delete removes the snapshot for key. Deleting a missing snapshot is not an
// error.
func (s *Store) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// GetStats returns compression statistics.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Store) record(operation, status string, bytes int) {
	if s.metrics != nil {
		s.metrics.RecordCheckpoint(operation, status, bytes)
	}
}

func writeFrame(path string, data []byte, created time.Time) error {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)

	if _, err := w.Write(magic[:]); err != nil {
		file.Close()
		return err
	}
	if err := w.WriteByte(formatVersion); err != nil {
		file.Close()
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		file.Close()
		return err
	}
	if _, err := w.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := binary.Write(w, binary.BigEndian, crc32.ChecksumIEEE(data)); err != nil {
		file.Close()
		return err
	}
	if err := binary.Write(w, binary.BigEndian, created.Unix()); err != nil {
		file.Close()
		return err
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func readFrame(path string) ([]byte, time.Time, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer file.Close()

	r := bufio.NewReader(file)
	corrupt := func(reason string) ([]byte, time.Time, error) {
		return nil, time.Time{}, &CorruptError{Path: path, Reason: reason}
	}

	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil || header != magic {
		return corrupt("bad magic")
	}
	version, err := r.ReadByte()
	if err != nil || version != formatVersion {
		return corrupt(fmt.Sprintf("unsupported version %d", version))
	}

	var dataLen uint32
	if err := binary.Read(r, binary.BigEndian, &dataLen); err != nil {
		return corrupt("truncated header")
	}
	if info, err := file.Stat(); err == nil && int64(dataLen) > info.Size() {
		return corrupt("payload length exceeds file size")
	}
	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return corrupt("truncated payload")
	}

	var checksum uint32
	if err := binary.Read(r, binary.BigEndian, &checksum); err != nil {
		return corrupt("missing checksum")
	}
	if crc32.ChecksumIEEE(data) != checksum {
		return corrupt("checksum mismatch")
	}

	var ts int64
	if err := binary.Read(r, binary.BigEndian, &ts); err != nil {
		return corrupt("missing timestamp")
	}
	return data, time.Unix(ts, 0), nil
}
