// Package jsonfile implements store.RecordStore on top of a single JSON array
// file per record kind.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/store"
	"go.uber.org/zap"
)

// Ensure Store implements store.RecordStore
var _ store.RecordStore[struct{}] = (*Store[struct{}])(nil)

const (
	defaultWriteRetries  = 3
	defaultRetryInterval = 50 * time.Millisecond
)

type options struct {
	fileName      string
	writeRetries  uint64
	retryInterval time.Duration
}

// Option customizes a Store.
type Option func(*options)

// WithFileName overrides the default file name of the record kind.
func WithFileName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.fileName = name
		}
	}
}

// WithWriteRetries sets how many times a failed write is retried.
func WithWriteRetries(retries uint64, interval time.Duration) Option {
	return func(o *options) {
		o.writeRetries = retries
		if interval > 0 {
			o.retryInterval = interval
		}
	}
}

// Store keeps records of one kind in <dir>/<file> as a pretty-printed JSON array.
// Every read-modify-write goes through mu, so concurrent appends within one
// process never lose updates. Nothing coordinates separate processes sharing
// the same file.
type Store[T any] struct {
	kind     store.Kind
	dir      string
	fileName string
	path     string
	opts     options

	mu  sync.Mutex
	log *zap.SugaredLogger
}

// New creates a Store for kind in directory dir. The directory is not touched
// until the first Load or Append.
func New[T any](dir string, kind store.Kind, opts ...Option) *Store[T] {
	o := options{
		fileName:      kind.FileName(),
		writeRetries:  defaultWriteRetries,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		kind:     kind,
		dir:      dir,
		fileName: o.fileName,
		path:     filepath.Join(dir, o.fileName),
		opts:     o,
		log:      logger.GetLogger().Named("jsonfile").With("kind", string(kind)),
	}
}

func (s *Store[T]) Kind() store.Kind {
	return s.kind
}

// Path returns the absolute or dir-relative location of the record file.
func (s *Store[T]) Path() string {
	return s.path
}

func (s *Store[T]) Paths() []string {
	return []string{s.fileName}
}

// Load reads the record file. A missing file is created containing [].
func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Append loads, validates, appends, truncates and rewrites the record file.
func (s *Store[T]) Append(ctx context.Context, record T, policy store.AppendPolicy[T]) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if policy.Validate != nil {
		if err := policy.Validate(existing, record); err != nil {
			return nil, err
		}
	}

	updated := store.Truncate(append(existing, record), policy.MaxRecords)
	if err := s.write(ctx, updated); err != nil {
		return nil, err
	}

	s.log.Debugw("Record appended", "count", len(updated))
	return updated, nil
}

func (s *Store[T]) load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", s.fileName, store.ErrStoreIO, err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Infow("Record file missing, creating empty one", "path", s.path)
		if err := s.write(ctx, []T{}); err != nil {
			return nil, err
		}
		return []T{}, nil
	}
	if err != nil {
		s.log.Errorw("Error reading record file", "path", s.path, "error", err)
		return nil, fmt.Errorf("read %s: %w: %w", s.fileName, store.ErrStoreIO, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Errorw("Record file is not a valid JSON array", "path", s.path, "error", err)
		return nil, fmt.Errorf("parse %s: %w: %w", s.fileName, store.ErrCorruptStore, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// write persists records via a temp file in the same directory followed by a
// rename, retrying transient failures with exponential backoff.
func (s *Store[T]) write(ctx context.Context, records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w: %w", s.fileName, store.ErrStoreIO, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, s.opts.writeRetries), ctx)

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := s.writeOnce(data); err != nil {
			s.log.Warnw("Error writing record file", "path", s.path, "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return fmt.Errorf("write %s: %w: %w", s.fileName, store.ErrStoreIO, err)
	}
	return nil
}

func (s *Store[T]) writeOnce(data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	f, err := os.CreateTemp(s.dir, "."+s.fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
