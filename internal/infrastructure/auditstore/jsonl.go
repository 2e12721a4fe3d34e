package auditstore

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosscontext/crosscontext-backend/internal/domain/audit"
	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
	"github.com/crosscontext/crosscontext-backend/internal/domain/redaction"
)

// Store is the append-only audit log target. One JSON object per line,
// each independently parseable. Appends are serialized under a mutex and
// fsynced per entry, so concurrent operations never interleave within a
// line and a returned log id means the entry is durable. No update or
// delete is exposed.
type Store struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
	f  *os.File
}

// NewStore opens (or creates) the JSONL file at path
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.NewValidationError("MISSING_AUDIT_PATH", "audit log path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewAuditWriteError("creating audit log directory").WithCause(err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.NewAuditWriteError("opening audit log").WithCause(err)
	}
	return &Store{path: path, logger: logger, f: f}, nil
}

// Append durably writes one entry and returns its log id. The write is
// atomic per entry: either the full line is on disk or the caller gets an
// error and the pipeline fails the operation closed.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) (uuid.UUID, error) {
	if entry == nil {
		return uuid.Nil, errors.NewValidationError("NIL_ENTRY", "audit entry is required")
	}
	if err := ctx.Err(); err != nil {
		return uuid.Nil, errors.NewAuditWriteError("context cancelled before audit append").WithCause(err)
	}

	s.scrub(entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return uuid.Nil, errors.NewAuditWriteError("marshaling audit entry").WithCause(err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return uuid.Nil, errors.NewAuditWriteError("audit store is closed")
	}
	if _, err := s.f.Write(data); err != nil {
		return uuid.Nil, errors.NewAuditWriteError("appending audit entry").WithCause(err)
	}
	if err := s.f.Sync(); err != nil {
		return uuid.Nil, errors.NewAuditWriteError("syncing audit log").WithCause(err)
	}
	return entry.LogID, nil
}

// scrub is the final defensive pass: any value that still carries a
// detectable identifier is replaced with a placeholder and the entry is
// flagged, rather than ever persisting a raw identifier the store can see.
func (s *Store) scrub(entry *audit.Entry) {
	for k, v := range entry.SanitizedInput {
		if cat, found := redaction.ContainsIdentifier(v); found {
			entry.SanitizedInput[k] = audit.Placeholder
			entry.Anomaly = true
			s.logger.Warn("raw identifier reached the audit store; persisted placeholder instead",
				zap.String("field", k),
				zap.String("category", cat.String()),
				zap.String("correlation_id", entry.CorrelationID),
			)
		}
	}
	if cat, found := redaction.ContainsIdentifier(entry.CallerID); found {
		entry.CallerID = audit.Placeholder
		entry.Anomaly = true
		s.logger.Warn("caller id carried an identifier; persisted placeholder instead",
			zap.String("category", cat.String()),
			zap.String("correlation_id", entry.CorrelationID),
		)
	}
	// Correlation ids are caller-supplied too and get the same treatment,
	// even though losing one breaks the entry's linkage to its operation.
	if cat, found := redaction.ContainsIdentifier(entry.CorrelationID); found {
		entry.CorrelationID = audit.Placeholder
		entry.Anomaly = true
		s.logger.Warn("correlation id carried an identifier; persisted placeholder instead",
			zap.String("category", cat.String()),
		)
	}
}

// Scan reads entries oldest-first for compliance review. limit <= 0 reads
// everything. Lines written by future versions with extra fields decode
// fine; truly unparseable lines are skipped and counted, not fatal.
func (s *Store) Scan(ctx context.Context, limit int) ([]audit.Entry, error) {
	s.mu.Lock()
	if s.f != nil {
		_ = s.f.Sync()
	}
	s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "opening audit log for scan")
	}
	defer f.Close()

	var (
		entries []audit.Entry
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry audit.Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning audit log")
	}
	if skipped > 0 {
		s.logger.Warn("skipped unparseable audit lines during scan", zap.Int("count", skipped))
	}
	return entries, nil
}

// Close closes the underlying file
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
