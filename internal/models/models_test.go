package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPendingMember(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		userID  int64
		code    string
		wantErr bool
	}{
		{"Valid", 42, "123456", false},
		{"Leading Zeros", 42, "000731", false},
		{"Missing User", 0, "123456", true},
		{"Short Code", 42, "12345", true},
		{"Letters In Code", 42, "12a456", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewPendingMember(RegistrationCandidate{UserID: tt.userID, LastName: "Ivanov", FirstName: "Ivan"}, tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultBio, m.Bio)
			assert.False(t, m.IsAdmin)
			assert.Nil(t, m.BannedUntil)
			assert.Equal(t, "Ivanov Ivan", m.DisplayName())
		})
	}
}

func TestSeedAdmin(t *testing.T) {
	t.Parallel()
	admin := SeedAdmin(77)
	assert.Equal(t, int64(77), admin.UserID)
	assert.Equal(t, "000000", admin.AccountCode)
	assert.True(t, admin.IsAdmin)
	assert.Nil(t, admin.BannedUntil)
}

func TestMember_BannedAt(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(time.Hour)
	m := Member{BannedUntil: &until}

	assert.True(t, m.BannedAt(now))
	assert.False(t, m.BannedAt(until))
	assert.False(t, Member{}.BannedAt(now))
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	t.Parallel()
	until := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	s := NewSeedSnapshot(1)
	s.Approved[0].BannedUntil = &until
	s.Posts = append(s.Posts, Post{ID: 1, LikedBy: []int64{5}, Likes: 1, Comments: []Comment{{Text: "hi"}}})

	c := s.Clone()
	*c.Approved[0].BannedUntil = until.Add(time.Hour)
	c.Posts[0].LikedBy[0] = 9
	c.Posts[0].Comments[0].Text = "changed"

	assert.Equal(t, until, *s.Approved[0].BannedUntil)
	assert.Equal(t, int64(5), s.Posts[0].LikedBy[0])
	assert.Equal(t, "hi", s.Posts[0].Comments[0].Text)
}

func TestSnapshot_Lookups(t *testing.T) {
	t.Parallel()
	s := NewSeedSnapshot(1)
	s.Approved = append(s.Approved, Member{UserID: 2, AccountCode: "111111", Username: "petrov"})
	s.Pending = append(s.Pending, Member{UserID: 3, AccountCode: "222222"})

	assert.Equal(t, int64(2), s.ApprovedByHandle("petrov").UserID)
	assert.Equal(t, int64(2), s.ApprovedByHandle("111111").UserID)
	assert.Nil(t, s.ApprovedByCode("222222"))
	assert.True(t, s.Known(3))
	assert.False(t, s.Known(4))

	_, ok := s.Post(0)
	assert.False(t, ok)
}

func TestPost_ReactionOfAndConsistency(t *testing.T) {
	t.Parallel()
	p := Post{Likes: 1, LikedBy: []int64{7}, Dislikes: 1, DislikedBy: []int64{8}}

	kind, ok := p.ReactionOf(7)
	assert.True(t, ok)
	assert.Equal(t, ReactionLike, kind)
	assert.True(t, p.Consistent())

	p.DislikedBy = append(p.DislikedBy, 7)
	p.Dislikes++
	assert.False(t, p.Consistent())
}

func TestErrorCode(t *testing.T) {
	t.Parallel()
	wrapped := fmt.Errorf("handler: %w", NewBannedError(time.Now()))

	assert.True(t, IsCode(wrapped, CodeBanned))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.False(t, IsCode(nil, CodeBanned))
}
