package models

import "slices"

// Snapshot is a full, internally consistent view of durable state.
type Snapshot struct {
	Pending    []Member    `json:"pending"`
	Approved   []Member    `json:"approved"`
	Posts      []Post      `json:"posts"`
	Complaints []Complaint `json:"-"`
}

// NewSeedSnapshot returns the state created when nothing durable exists.
func NewSeedSnapshot(adminID int64) Snapshot {
	return Snapshot{
		Pending:    []Member{},
		Approved:   []Member{SeedAdmin(adminID)},
		Posts:      []Post{},
		Complaints: []Complaint{},
	}
}

// Clone returns a deep copy; mutations on the copy never reach s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Pending:    cloneMembers(s.Pending),
		Approved:   cloneMembers(s.Approved),
		Complaints: slices.Clone(s.Complaints),
	}
	if s.Posts != nil {
		out.Posts = make([]Post, len(s.Posts))
		for i, p := range s.Posts {
			out.Posts[i] = p.Clone()
		}
	}
	return out
}

func cloneMembers(in []Member) []Member {
	if in == nil {
		return nil
	}
	out := make([]Member, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

// PendingIndex returns the position of userID in the pending set, or -1.
func (s *Snapshot) PendingIndex(userID int64) int {
	return slices.IndexFunc(s.Pending, func(m Member) bool { return m.UserID == userID })
}

// ApprovedMember returns a pointer into the approved set, or nil.
func (s *Snapshot) ApprovedMember(userID int64) *Member {
	for i := range s.Approved {
		if s.Approved[i].UserID == userID {
			return &s.Approved[i]
		}
	}
	return nil
}

// ApprovedByCode returns the first approved member holding code.
// Codes are not guaranteed unique; the earliest match wins.
func (s *Snapshot) ApprovedByCode(code string) *Member {
	for i := range s.Approved {
		if s.Approved[i].AccountCode == code {
			return &s.Approved[i]
		}
	}
	return nil
}

// ApprovedByHandle matches an account code or a username.
func (s *Snapshot) ApprovedByHandle(handle string) *Member {
	for i := range s.Approved {
		if s.Approved[i].AccountCode == handle || s.Approved[i].Username == handle {
			return &s.Approved[i]
		}
	}
	return nil
}

// Known reports whether userID is pending or approved.
func (s *Snapshot) Known(userID int64) bool {
	return s.PendingIndex(userID) >= 0 || s.ApprovedMember(userID) != nil
}

// Post returns a pointer to the post with the given 1-based id.
func (s *Snapshot) Post(id int) (*Post, bool) {
	if id < 1 || id > len(s.Posts) {
		return nil, false
	}
	return &s.Posts[id-1], true
}
