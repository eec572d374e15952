// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bulletin/internal/clock"
	"bulletin/internal/models"
	"bulletin/internal/store"

	"github.com/stretchr/testify/require"
)

// AdminID is the administrator identity used across package tests.
const AdminID int64 = 1000

// Epoch is the frozen start time of test clocks.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// NewClock returns a manual clock frozen at Epoch.
func NewClock() *clock.Manual {
	return clock.NewManual(Epoch)
}

// NewStore opens a seeded store on a fresh in-memory backend.
func NewStore(t testing.TB) (*store.Store, *store.MemoryBackend) {
	t.Helper()
	backend := store.NewMemoryBackend()
	st, err := store.Open(context.Background(), backend, AdminID)
	require.NoError(t, err)
	return st, backend
}

// Member builds an approved-ready member record.
func Member(userID int64, code, last, first string) models.Member {
	return models.Member{
		UserID:      userID,
		AccountCode: code,
		LastName:    last,
		FirstName:   first,
		ClassLabel:  "10A",
		Username:    fmt.Sprintf("user%d", userID),
		Bio:         models.DefaultBio,
	}
}

// Candidate builds a registration candidate.
func Candidate(userID int64, last, first string) models.RegistrationCandidate {
	return models.RegistrationCandidate{
		UserID:     userID,
		LastName:   last,
		FirstName:  first,
		ClassLabel: "10A",
		Username:   fmt.Sprintf("user%d", userID),
	}
}

// Approve inserts members straight into the approved set.
func Approve(t testing.TB, st *store.Store, members ...models.Member) {
	t.Helper()
	require.NoError(t, st.Mutate(context.Background(), "fixture_approve", func(snap *models.Snapshot) error {
		snap.Approved = append(snap.Approved, members...)
		return nil
	}))
}

// Codes returns a code source yielding codes in order, then repeating the last one.
func Codes(codes ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		c := codes[min(i, len(codes)-1)]
		i++
		return c
	}
}
