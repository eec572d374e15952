package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bulletin/internal/models"
)

// LegacyTimeLayout is the timestamp layout written by older deployments.
const LegacyTimeLayout = "2006-01-02 15:04:05"

// LoadStatus classifies a load attempt.
type LoadStatus string

const (
	LoadOK      LoadStatus = "ok"
	LoadMissing LoadStatus = "missing"
	LoadCorrupt LoadStatus = "corrupt"
)

// LoadResult is the outcome of decoding the persisted aggregate.
// Snapshot is only meaningful when Status is LoadOK. Reason explains a
// Corrupt result, or a repair applied to an otherwise OK document.
type LoadResult struct {
	Status   LoadStatus
	Snapshot models.Snapshot
	Reason   string
}

type document struct {
	Pending  []models.Member `json:"pending"`
	Approved []models.Member `json:"approved"`
	Posts    []models.Post   `json:"posts"`
}

// Encode serializes the member/post aggregate. Complaints are kept in their own log.
func Encode(s models.Snapshot) ([]byte, error) {
	doc := document{
		Pending:  nonNil(s.Pending),
		Approved: nonNil(s.Approved),
		Posts:    nonNil(s.Posts),
	}
	return json.Marshal(doc)
}

type storedMember struct {
	UserID      int64           `json:"user_id"`
	AccountCode string          `json:"account_code"`
	LastName    string          `json:"last_name"`
	FirstName   string          `json:"first_name"`
	MiddleName  string          `json:"middle_name"`
	ClassLabel  string          `json:"class"`
	Username    string          `json:"username"`
	Bio         string          `json:"bio"`
	IsAdmin     *bool           `json:"is_admin"`
	BannedUntil json.RawMessage `json:"banned_until"`
}

type storedComment struct {
	AuthorID          int64    `json:"author_id"`
	AuthorDisplayName string   `json:"author_name"`
	Text              string   `json:"text"`
	CreatedAt         flexTime `json:"created_at"`
}

type storedPost struct {
	ID                int             `json:"id"`
	AuthorID          int64           `json:"author_id"`
	AuthorDisplayName string          `json:"author_name"`
	Text              string          `json:"text"`
	Likes             int             `json:"likes"`
	Dislikes          int             `json:"dislikes"`
	LikedBy           []int64         `json:"liked_by"`
	DislikedBy        []int64         `json:"disliked_by"`
	Comments          []storedComment `json:"comments"`
	CreatedAt         flexTime        `json:"created_at"`
}

// Decode parses a persisted aggregate and applies the legacy field defaults.
// A nil or blank document is Missing; anything that is not a JSON object
// carrying an "approved" list is Corrupt.
func Decode(raw []byte, adminID int64) LoadResult {
	if len(bytes.TrimSpace(raw)) == 0 {
		return LoadResult{Status: LoadMissing}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return corrupt("document is not a JSON object: %v", err)
	}
	if fields == nil {
		return corrupt("document is null")
	}
	approvedRaw, ok := fields["approved"]
	if !ok {
		return corrupt("document has no approved list")
	}
	if bytes.Equal(bytes.TrimSpace(approvedRaw), []byte("null")) {
		return corrupt("approved list is null")
	}

	var pending, approved []storedMember
	var posts []storedPost
	if err := decodeField(fields, "pending", &pending); err != nil {
		return corrupt("pending: %v", err)
	}
	if err := decodeField(fields, "approved", &approved); err != nil {
		return corrupt("approved: %v", err)
	}
	if err := decodeField(fields, "posts", &posts); err != nil {
		return corrupt("posts: %v", err)
	}

	snap := models.Snapshot{
		Pending:    make([]models.Member, 0, len(pending)),
		Approved:   make([]models.Member, 0, len(approved)),
		Posts:      make([]models.Post, 0, len(posts)),
		Complaints: []models.Complaint{},
	}
	for _, m := range pending {
		snap.Pending = append(snap.Pending, m.upgrade(adminID))
	}
	for _, m := range approved {
		snap.Approved = append(snap.Approved, m.upgrade(adminID))
	}
	for _, p := range posts {
		snap.Posts = append(snap.Posts, p.toModel())
	}

	result := LoadResult{Status: LoadOK}
	if snap.ApprovedMember(adminID) == nil {
		if i := snap.PendingIndex(adminID); i >= 0 {
			snap.Pending = append(snap.Pending[:i], snap.Pending[i+1:]...)
		}
		snap.Approved = append([]models.Member{models.SeedAdmin(adminID)}, snap.Approved...)
		result.Reason = "seed admin restored"
	}
	result.Snapshot = snap
	return result
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func corrupt(format string, args ...any) LoadResult {
	return LoadResult{Status: LoadCorrupt, Reason: fmt.Sprintf(format, args...)}
}

func (m storedMember) upgrade(adminID int64) models.Member {
	isAdmin := m.UserID == adminID
	if m.IsAdmin != nil {
		isAdmin = *m.IsAdmin
	}
	return models.Member{
		UserID:      m.UserID,
		AccountCode: m.AccountCode,
		LastName:    m.LastName,
		FirstName:   m.FirstName,
		MiddleName:  m.MiddleName,
		ClassLabel:  m.ClassLabel,
		Username:    m.Username,
		Bio:         m.Bio,
		IsAdmin:     isAdmin,
		BannedUntil: parseBannedUntil(m.BannedUntil),
	}
}

func (p storedPost) toModel() models.Post {
	post := models.Post{
		ID:                p.ID,
		AuthorID:          p.AuthorID,
		AuthorDisplayName: p.AuthorDisplayName,
		Text:              p.Text,
		Likes:             p.Likes,
		Dislikes:          p.Dislikes,
		LikedBy:           nonNil(p.LikedBy),
		DislikedBy:        nonNil(p.DislikedBy),
		Comments:          make([]models.Comment, 0, len(p.Comments)),
		CreatedAt:         time.Time(p.CreatedAt),
	}
	for _, c := range p.Comments {
		post.Comments = append(post.Comments, models.Comment{
			AuthorID:          c.AuthorID,
			AuthorDisplayName: c.AuthorDisplayName,
			Text:              c.Text,
			CreatedAt:         time.Time(c.CreatedAt),
		})
	}
	return post
}

// parseBannedUntil treats null, empty and unparseable values as "not banned".
func parseBannedUntil(raw json.RawMessage) *time.Time {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	t, ok := parseTimestamp(s)
	if !ok {
		return nil
	}
	return &t
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(LegacyTimeLayout, s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// flexTime accepts RFC 3339 and the legacy layout; anything else decodes as zero.
type flexTime time.Time

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*f = flexTime{}
		return nil
	}
	t, _ := parseTimestamp(s)
	*f = flexTime(t)
	return nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
