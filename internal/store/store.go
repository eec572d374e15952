// Package store is the single source of truth for members, posts and complaints.
// All writes go through Mutate, which serializes callers behind one lock and
// persists the new state before making it visible.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"bulletin/internal/models"
	"bulletin/internal/observability"
)

// ErrClosed is returned by Mutate after Close.
var ErrClosed = errors.New("store is closed")

// ErrComplaintLogRewritten is returned when a mutation edits or drops complaint log entries.
var ErrComplaintLogRewritten = errors.New("complaint log is append-only")

// Store guards the in-memory snapshot and its durable copy.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	log     *observability.StoreLogger
	adminID int64

	state  models.Snapshot
	doc    []byte
	status LoadResult
	closed bool
}

// Open loads durable state from backend. Missing or corrupt documents are
// replaced by the seed state and persisted; only backend I/O errors fail.
func Open(ctx context.Context, backend Backend, adminID int64) (*Store, error) {
	s := &Store{
		backend: backend,
		log:     observability.NewStoreLogger(backend.Name()),
		adminID: adminID,
	}

	raw, complaints, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	result := Decode(raw, adminID)
	s.status = result
	switch result.Status {
	case LoadOK:
		s.state = result.Snapshot
		s.doc, err = Encode(s.state)
		if err != nil {
			return nil, fmt.Errorf("encode loaded state: %w", err)
		}
		if result.Reason != "" {
			observability.GlobalLogger.WarnContext(ctx, "durable state repaired",
				slog.String("backend", backend.Name()),
				slog.String("detail", result.Reason),
			)
			if err := backend.Commit(ctx, s.doc, nil); err != nil {
				return nil, fmt.Errorf("persist repaired state: %w", err)
			}
		}
	default:
		if result.Status == LoadCorrupt {
			observability.StoreReinitTotal.WithLabelValues(string(result.Status)).Inc()
			s.log.LogReinit(ctx, string(result.Status), result.Reason)
		} else {
			observability.GlobalLogger.InfoContext(ctx, "no durable state found, seeding",
				slog.String("backend", backend.Name()),
				slog.Int64("admin_id", adminID),
			)
		}
		s.state = models.NewSeedSnapshot(adminID)
		s.doc, err = Encode(s.state)
		if err != nil {
			return nil, fmt.Errorf("encode seed state: %w", err)
		}
		if err := backend.Commit(ctx, s.doc, nil); err != nil {
			return nil, fmt.Errorf("persist seed state: %w", err)
		}
	}

	if complaints == nil {
		complaints = []models.Complaint{}
	}
	s.state.Complaints = complaints
	return s, nil
}

// LoadResult reports how the durable state was found at Open.
func (s *Store) LoadResult() LoadResult {
	return s.status
}

// AdminID is the seeded administrator identity.
func (s *Store) AdminID() int64 {
	return s.adminID
}

// Read returns a deep copy of the current state.
func (s *Store) Read() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Mutate runs fn on a private copy of the state. When fn returns an error
// nothing changes; otherwise the copy is persisted and then published.
func (s *Store) Mutate(ctx context.Context, operation string, fn func(*models.Snapshot) error) error {
	span, ctx := observability.TraceStoreMutation(ctx, operation)
	defer span.End()
	defer observability.TrackMutation(operation)()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		observability.StoreMutations.WithLabelValues(operation, "aborted").Inc()
		s.log.LogAbort(ctx, operation, err)
		return err
	}

	appended, err := complaintTail(s.state.Complaints, next.Complaints)
	if err != nil {
		observability.StoreMutations.WithLabelValues(operation, "failed").Inc()
		span.SetError(err)
		s.log.LogError(ctx, operation, err)
		return err
	}

	doc, err := Encode(next)
	if err != nil {
		observability.StoreMutations.WithLabelValues(operation, "failed").Inc()
		span.SetError(err)
		s.log.LogError(ctx, operation, err)
		return fmt.Errorf("encode state: %w", err)
	}

	docChanged := !bytes.Equal(doc, s.doc)
	if !docChanged && len(appended) == 0 {
		observability.StoreMutations.WithLabelValues(operation, "unchanged").Inc()
		return nil
	}

	var toWrite []byte
	if docChanged {
		toWrite = doc
	}
	if err := s.backend.Commit(ctx, toWrite, appended); err != nil {
		observability.StoreMutations.WithLabelValues(operation, "failed").Inc()
		span.SetError(err)
		s.log.LogError(ctx, operation, err)
		return fmt.Errorf("persist %s: %w", operation, err)
	}

	s.state = next
	s.doc = doc
	observability.StoreMutations.WithLabelValues(operation, "committed").Inc()
	s.log.LogCommit(ctx, operation,
		slog.Bool("document_written", docChanged),
		slog.Int("complaints_appended", len(appended)),
	)
	return nil
}

// Apply is Mutate for callbacks that also produce a value.
func Apply[T any](ctx context.Context, s *Store, operation string, fn func(*models.Snapshot) (T, error)) (T, error) {
	var out T
	err := s.Mutate(ctx, operation, func(snap *models.Snapshot) error {
		v, err := fn(snap)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Close writes the current document one last time and rejects further mutations.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.backend.Commit(ctx, s.doc, nil); err != nil {
		s.log.LogError(ctx, "close", err)
		return fmt.Errorf("final flush: %w", err)
	}
	return nil
}

func complaintTail(prev, next []models.Complaint) ([]models.Complaint, error) {
	if len(next) < len(prev) {
		return nil, ErrComplaintLogRewritten
	}
	for i := range prev {
		if prev[i] != next[i] {
			return nil, ErrComplaintLogRewritten
		}
	}
	return next[len(prev):], nil
}
