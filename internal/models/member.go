package models

import (
	"errors"
	"strings"
	"time"
)

// DefaultBio is assigned to every newly registered member.
const DefaultBio = "Пока ничего не рассказал о себе"

// SeedAdminCode is the account code of the pre-seeded administrator.
const SeedAdminCode = "000000"

// Member is a registered participant. It lives either in the pending set
// (awaiting approval) or in the approved set, never both.
type Member struct {
	UserID      int64      `json:"user_id"`
	AccountCode string     `json:"account_code"`
	LastName    string     `json:"last_name"`
	FirstName   string     `json:"first_name"`
	MiddleName  string     `json:"middle_name"`
	ClassLabel  string     `json:"class"`
	Username    string     `json:"username"`
	Bio         string     `json:"bio"`
	IsAdmin     bool       `json:"is_admin"`
	BannedUntil *time.Time `json:"banned_until"`
}

// RegistrationCandidate holds the answers collected by the registration flow.
type RegistrationCandidate struct {
	UserID     int64
	LastName   string
	FirstName  string
	MiddleName string
	ClassLabel string
	Username   string
}

// NewPendingMember builds a complete pending member record.
// Only identity fields are checked; names are stored verbatim.
func NewPendingMember(c RegistrationCandidate, accountCode string) (Member, error) {
	if c.UserID == 0 {
		return Member{}, errors.New("member user id is required")
	}
	if !ValidAccountCode(accountCode) {
		return Member{}, errors.New("account code must be six digits")
	}
	return Member{
		UserID:      c.UserID,
		AccountCode: accountCode,
		LastName:    c.LastName,
		FirstName:   c.FirstName,
		MiddleName:  c.MiddleName,
		ClassLabel:  c.ClassLabel,
		Username:    c.Username,
		Bio:         DefaultBio,
		IsAdmin:     false,
		BannedUntil: nil,
	}, nil
}

// SeedAdmin returns the administrator record created on first start.
func SeedAdmin(adminID int64) Member {
	return Member{
		UserID:      adminID,
		AccountCode: SeedAdminCode,
		LastName:    "Admin",
		FirstName:   "Admin",
		MiddleName:  "",
		ClassLabel:  "Admin",
		Username:    "admin",
		Bio:         "Администратор системы",
		IsAdmin:     true,
	}
}

// ValidAccountCode reports whether code is exactly six ASCII digits.
func ValidAccountCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// DisplayName is the "Last First" form snapshotted onto posts, comments and complaints.
func (m Member) DisplayName() string {
	return m.LastName + " " + m.FirstName
}

// FullName joins all three name parts.
func (m Member) FullName() string {
	return strings.TrimSpace(m.LastName + " " + m.FirstName + " " + m.MiddleName)
}

// BannedAt reports whether the ban is still running at now.
func (m Member) BannedAt(now time.Time) bool {
	return m.BannedUntil != nil && now.Before(*m.BannedUntil)
}

// Clone returns a copy that shares no pointers with m.
func (m Member) Clone() Member {
	if m.BannedUntil != nil {
		until := *m.BannedUntil
		m.BannedUntil = &until
	}
	return m
}
