package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"bulletin/internal/models"
	"bulletin/internal/repository"

	"gorm.io/gorm"
)

// Backend is the durable side of the store.
type Backend interface {
	Name() string
	// Load returns the raw aggregate document (nil when never saved) and the complaint log.
	Load(ctx context.Context) ([]byte, []models.Complaint, error)
	// Commit atomically replaces the document (when doc is non-nil) and appends complaints.
	Commit(ctx context.Context, doc []byte, appended []models.Complaint) error
}

// GormBackend persists through the gorm repositories.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend creates a backend on an already migrated database.
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (b *GormBackend) Name() string { return "gorm" }

func (b *GormBackend) Load(ctx context.Context) ([]byte, []models.Complaint, error) {
	doc, err := repository.NewStateRepository(b.db).Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load board state: %w", err)
	}
	complaints, err := repository.NewComplaintRepository(b.db).List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load complaints: %w", err)
	}
	return doc, complaints, nil
}

func (b *GormBackend) Commit(ctx context.Context, doc []byte, appended []models.Complaint) error {
	return repository.InTransaction(ctx, b.db, func(states repository.StateRepository, complaints repository.ComplaintRepository) error {
		if doc != nil {
			if err := states.Save(ctx, doc); err != nil {
				return fmt.Errorf("save board state: %w", err)
			}
		}
		if err := complaints.Append(ctx, appended...); err != nil {
			return fmt.Errorf("append complaints: %w", err)
		}
		return nil
	})
}

// MemoryBackend keeps everything in process memory.
type MemoryBackend struct {
	mu         sync.Mutex
	doc        []byte
	complaints []models.Complaint
	commits    int
	failWith   error
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Load(_ context.Context) ([]byte, []models.Complaint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.doc), slices.Clone(b.complaints), nil
}

func (b *MemoryBackend) Commit(_ context.Context, doc []byte, appended []models.Complaint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	if doc != nil {
		b.doc = slices.Clone(doc)
	}
	b.complaints = append(b.complaints, appended...)
	b.commits++
	return nil
}

// SetRaw replaces the stored document verbatim.
func (b *MemoryBackend) SetRaw(doc []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.doc = slices.Clone(doc)
}

// Raw returns the stored document.
func (b *MemoryBackend) Raw() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.doc)
}

// Commits counts successful commits.
func (b *MemoryBackend) Commits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commits
}

// FailCommits makes every later commit return err; nil restores normal operation.
func (b *MemoryBackend) FailCommits(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith = err
}
