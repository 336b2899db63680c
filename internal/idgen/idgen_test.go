package idgen

import (
	"regexp"
	"testing"
)

var passIDPattern = regexp.MustCompile(`^pass-[a-z0-9]{10}$`)

func TestNewPassID(t *testing.T) {
	id, err := NewPassID()
	if err != nil {
		t.Fatalf("NewPassID() error: %v", err)
	}
	if !passIDPattern.MatchString(id) {
		t.Errorf("NewPassID() = %q, want match for %s", id, passIDPattern)
	}
}

func TestNewPassID_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := NewPassID()
		if err != nil {
			t.Fatalf("NewPassID() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}
