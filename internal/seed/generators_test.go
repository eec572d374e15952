package seed

import (
	"regexp"
	"testing"

	"bulletin/internal/models"
)

var classPattern = regexp.MustCompile(`^(5|6|7|8|9|10|11)[ABCD]$`)

func TestBuildCandidate_Deterministic(t *testing.T) {
	a := NewFactory(7).BuildCandidate(1)
	b := NewFactory(7).BuildCandidate(1)
	if a != b {
		t.Fatalf("same seed produced different candidates: %+v vs %+v", a, b)
	}
	if a.LastName == "" || a.FirstName == "" || a.Username == "" {
		t.Fatalf("candidate has empty fields: %+v", a)
	}
	if !classPattern.MatchString(a.ClassLabel) {
		t.Fatalf("unexpected class label %q", a.ClassLabel)
	}
}

func TestBuildCandidate_Overrides(t *testing.T) {
	c := NewFactory(1).BuildCandidate(5, func(c *models.RegistrationCandidate) {
		c.Username = "fixed"
	})
	if c.UserID != 5 || c.Username != "fixed" {
		t.Fatalf("override not applied: %+v", c)
	}
}

func TestPick_Bounds(t *testing.T) {
	f := NewFactory(3)
	for i := 0; i < 200; i++ {
		if got := f.Pick(4); got < 0 || got > 3 {
			t.Fatalf("Pick(4) = %d", got)
		}
	}
	if f.Pick(0) != 0 || f.Pick(1) != 0 {
		t.Fatalf("Pick on tiny ranges must return 0")
	}
}
