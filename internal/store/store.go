package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/neighborhood-watch/internal/domain"
	"github.com/couchcryptid/neighborhood-watch/internal/observability"
)

const (
	// DefaultMaxRecords bounds the store to the most recent 100 records.
	DefaultMaxRecords = 100

	// DefaultPublishedBy tags records written without WithPublishedBy.
	DefaultPublishedBy = "publisher"

	indent   = "    "
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is a handle on one JSON record file. Its methods are safe for
// concurrent use; mu serializes every read and write of the file.
type Store struct {
	mu          sync.Mutex
	path        string
	maxRecords  int
	publishedBy string
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithMaxRecords overrides the retention bound. Values below 1 are ignored.
func WithMaxRecords(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithPublishedBy sets the published_by tag stamped on new records.
func WithPublishedBy(tag string) Option {
	return func(s *Store) {
		if tag != "" {
			s.publishedBy = tag
		}
	}
}

// WithMetrics records append outcomes and store size.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates a Store backed by the file at path. No I/O happens until the
// first call.
func New(path string, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		path:        path,
		maxRecords:  DefaultMaxRecords,
		publishedBy: DefaultPublishedBy,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Init ensures the backing directory and file exist. A missing or empty file
// is written as an empty JSON array; an existing non-empty file is left as is.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureFile(ctx)
}

// ensureFile is Init without locking. Callers hold mu.
func (s *Store) ensureFile(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return s.fail(domain.NewError(domain.KindIO, "initialize store", err))
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return s.fail(domain.NewError(domain.KindIO, "create store directory", err))
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	switch {
	case err == nil:
		_, werr := f.WriteString("[]")
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return s.fail(domain.NewError(domain.KindIO, "create store", werr))
		}
		s.logger.Info("record store created", "path", s.path)
		return nil
	case !errors.Is(err, fs.ErrExist):
		return s.fail(domain.NewError(domain.KindIO, "create store", err))
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return s.fail(domain.NewError(domain.KindIO, "stat store", err))
	}
	if info.Size() > 0 {
		return nil
	}
	// Writes go through rename, so an empty file was truncated outside the store.
	if err := s.writeFile([]byte("[]")); err != nil {
		return s.fail(domain.NewError(domain.KindIO, "reset empty store", err))
	}
	s.logger.Warn("empty record store file reset", "path", s.path)
	return nil
}

// CheckReadiness reports whether the store file can be created and decoded.
func (s *Store) CheckReadiness(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFile(ctx); err != nil {
		return err
	}
	_, err := s.readAll()
	return err
}

// Append wraps payload in a new Record, appends it, trims the store to the
// retention bound and rewrites the file. The stored record is returned.
func (s *Store) Append(ctx context.Context, payload any) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFile(ctx); err != nil {
		s.countAppend(domain.KindOf(err))
		return domain.Record{}, err
	}

	records, err := s.readAll()
	if err != nil {
		s.countAppend(domain.KindOf(err))
		return domain.Record{}, s.fail(err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		s.countAppend(domain.KindSerialization)
		return domain.Record{}, s.fail(domain.NewError(domain.KindSerialization, "encode payload", err))
	}

	var prevID string
	if n := len(records); n > 0 {
		prevID = records[n-1].ID
	}
	now := domain.Now()
	rec := domain.Record{
		ID:             domain.NextRecordID(now, prevID),
		FetchTimestamp: domain.FormatRecordTimestamp(now),
		RawPayload:     raw,
		PublishedBy:    s.publishedBy,
	}

	records = append(records, rec)
	trimmed := 0
	if over := len(records) - s.maxRecords; over > 0 {
		records = records[over:]
		trimmed = over
	}

	if err := s.writeAll(records); err != nil {
		s.countAppend(domain.KindOf(err))
		return domain.Record{}, s.fail(err)
	}

	s.countAppend("")
	if s.metrics != nil {
		s.metrics.StoreTrimmed.Add(float64(trimmed))
		s.metrics.StoreRecords.Set(float64(len(records)))
	}
	s.logger.Info("record stored",
		"path", s.path,
		"record_id", rec.ID,
		"records", len(records),
		"trimmed", trimmed,
	)
	return rec, nil
}

// FetchRecent returns at most limit records, newest first. The returned slice
// is never nil: on any failure it is empty and the error says why.
func (s *Store) FetchRecent(ctx context.Context, limit int) ([]domain.RecentRecord, error) {
	results := []domain.RecentRecord{}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFile(ctx); err != nil {
		return results, err
	}

	records, err := s.readAll()
	if err != nil {
		return results, s.fail(err)
	}

	for i := len(records) - 1; i >= 0 && len(results) < limit; i-- {
		results = append(results, records[i].Recent())
	}
	s.logger.Debug("fetched recent records", "path", s.path, "count", len(results), "limit", limit)
	return results, nil
}

func (s *Store) readAll() ([]domain.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, domain.NewError(domain.KindIO, "read store", err)
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.NewError(domain.KindCorrupt, "decode store", err)
	}
	return records, nil
}

func (s *Store) writeAll(records []domain.Record) error {
	data, err := json.MarshalIndent(records, "", indent)
	if err != nil {
		return domain.NewError(domain.KindSerialization, "encode store", err)
	}
	if err := s.writeFile(data); err != nil {
		return domain.NewError(domain.KindIO, "write store", err)
	}
	return nil
}

// writeFile replaces the store file with data via a temp file in the same
// directory and a rename, so readers never observe a partial file.
func (s *Store) writeFile(data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), filePerm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// fail logs err against the store path and returns it unchanged.
func (s *Store) fail(err error) error {
	s.logger.Error("record store operation failed", "path", s.path, "kind", domain.KindOf(err), "error", err)
	return err
}

func (s *Store) countAppend(kind domain.Kind) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if kind != "" {
		outcome = string(kind)
	}
	s.metrics.StoreAppends.WithLabelValues(outcome).Inc()
}
