// Package moderation implements membership approval, bans and complaints on
// top of the entity store.
package moderation

import (
	"fmt"
	"math/rand/v2"

	"bulletin/internal/clock"
	"bulletin/internal/store"
)

// CodeSource produces six-digit account codes.
type CodeSource func() string

// RandomCode draws a uniformly random six-digit code. Collisions are possible.
func RandomCode() string {
	return fmt.Sprintf("%06d", rand.IntN(1_000_000))
}

// DefaultComplaintBanDays is the ban length applied from a complaint notification.
const DefaultComplaintBanDays = 3

// Service provides the moderation workflow.
type Service struct {
	store            *store.Store
	clock            clock.Clock
	codes            CodeSource
	complaintBanDays int
}

// Option configures a Service.
type Option func(*Service)

// WithCodeSource replaces the account code generator.
func WithCodeSource(src CodeSource) Option {
	return func(s *Service) { s.codes = src }
}

// WithComplaintBanDays sets the ban length used by BanFromComplaint.
func WithComplaintBanDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.complaintBanDays = days
		}
	}
}

// NewService returns a new moderation Service.
func NewService(st *store.Store, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		store:            st,
		clock:            clk,
		codes:            RandomCode,
		complaintBanDays: DefaultComplaintBanDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AdminID returns the identity of the single administrator.
func (s *Service) AdminID() int64 {
	return s.store.AdminID()
}

// IsAdmin reports whether userID may run admin-only operations.
func (s *Service) IsAdmin(userID int64) bool {
	return userID != 0 && userID == s.store.AdminID()
}
