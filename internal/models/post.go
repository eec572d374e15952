// Package models contains data structures for the application's domain models.
package models

import (
	"slices"
	"time"
)

// ReactionKind is either a like or a dislike.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether k is a known reaction.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// Opposite returns the other reaction kind.
func (k ReactionKind) Opposite() ReactionKind {
	if k == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// Post represents a post on the board. IDs are 1-based and dense.
type Post struct {
	ID                int       `json:"id"`
	AuthorID          int64     `json:"author_id"`
	AuthorDisplayName string    `json:"author_name"`
	Text              string    `json:"text"`
	Likes             int       `json:"likes"`
	Dislikes          int       `json:"dislikes"`
	LikedBy           []int64   `json:"liked_by"`
	DislikedBy        []int64   `json:"disliked_by"`
	Comments          []Comment `json:"comments"`
	CreatedAt         time.Time `json:"created_at"`
}

// Comment is owned by its parent post; appended, never edited.
type Comment struct {
	AuthorID          int64     `json:"author_id"`
	AuthorDisplayName string    `json:"author_name"`
	Text              string    `json:"text"`
	CreatedAt         time.Time `json:"created_at"`
}

// Score is likes minus dislikes.
func (p Post) Score() int {
	return p.Likes - p.Dislikes
}

// ReactionOf returns the reaction userID currently holds on the post.
func (p Post) ReactionOf(userID int64) (ReactionKind, bool) {
	switch {
	case slices.Contains(p.LikedBy, userID):
		return ReactionLike, true
	case slices.Contains(p.DislikedBy, userID):
		return ReactionDislike, true
	}
	return "", false
}

// Consistent checks the counter/set invariants of the post.
func (p Post) Consistent() bool {
	if p.Likes != len(p.LikedBy) || p.Dislikes != len(p.DislikedBy) {
		return false
	}
	for _, id := range p.LikedBy {
		if slices.Contains(p.DislikedBy, id) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	p.LikedBy = slices.Clone(p.LikedBy)
	p.DislikedBy = slices.Clone(p.DislikedBy)
	p.Comments = slices.Clone(p.Comments)
	return p
}
