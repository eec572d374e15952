// Package seed creates demo members, posts and reactions for local
// development. Everything goes through the moderation and engagement services,
// so seeded data obeys the same rules as live traffic.
package seed

import (
	"fmt"
	"strings"

	"bulletin/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var classLetters = []string{"A", "B", "C", "D"}

// Factory builds random but plausible domain input.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory returns a Factory. The same non-zero seed yields the same data;
// zero picks a random seed.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// BuildCandidate returns registration answers for userID.
func (f *Factory) BuildCandidate(userID int64, overrides ...func(*models.RegistrationCandidate)) models.RegistrationCandidate {
	c := models.RegistrationCandidate{
		UserID:     userID,
		LastName:   f.faker.LastName(),
		FirstName:  f.faker.FirstName(),
		ClassLabel: f.ClassLabel(),
		Username:   strings.ToLower(f.faker.Username()) + fmt.Sprintf("%d", f.faker.Number(10, 99)),
	}
	// roughly a third of members skip the middle name
	if f.faker.Number(0, 2) > 0 {
		c.MiddleName = f.faker.FirstName()
	}
	for _, override := range overrides {
		override(&c)
	}
	return c
}

// ClassLabel returns something like "9B".
func (f *Factory) ClassLabel() string {
	return fmt.Sprintf("%d%s", f.faker.Number(5, 11), f.faker.RandomString(classLetters))
}

// PostText returns one to three short paragraphs.
func (f *Factory) PostText() string {
	return f.faker.Paragraph(f.faker.Number(1, 3), 3, 8, "\n\n")
}

// CommentText returns a single sentence.
func (f *Factory) CommentText() string {
	return f.faker.Sentence(f.faker.Number(3, 12))
}

// Reaction picks like, dislike, or nothing (ok == false).
func (f *Factory) Reaction() (kind models.ReactionKind, ok bool) {
	switch f.faker.Number(0, 2) {
	case 0:
		return models.ReactionLike, true
	case 1:
		return models.ReactionDislike, true
	}
	return "", false
}

// Pick returns a random index in [0, n).
func (f *Factory) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}
