package model

import "testing"

func TestParseBeadRef(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    BeadRef
		wantErr bool
	}{
		{"bead://alpha/alpha-12", BeadRef{Rig: "alpha", ID: "alpha-12"}, false},
		{"bead://beta/b-1", BeadRef{Rig: "beta", ID: "b-1"}, false},
		{"bead://alpha/nested/id", BeadRef{Rig: "alpha", ID: "nested/id"}, false},
		{"https://example.com/issue/1", BeadRef{}, true},
		{"bead://", BeadRef{}, true},
		{"bead://alpha", BeadRef{}, true},
		{"bead://alpha/", BeadRef{}, true},
		{"bead:///id", BeadRef{}, true},
		{"", BeadRef{}, true},
	} {
		got, err := ParseBeadRef(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseBeadRef(%q) = %+v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBeadRef(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseBeadRef(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestBeadRef_String(t *testing.T) {
	ref := BeadRef{Rig: "alpha", ID: "alpha-12"}
	if got, want := ref.String(), "bead://alpha/alpha-12"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	parsed, err := ParseBeadRef(ref.String())
	if err != nil {
		t.Fatalf("ParseBeadRef(String()): %v", err)
	}
	if parsed != ref {
		t.Errorf("round trip = %+v, want %+v", parsed, ref)
	}
}

func TestIsBeadRef(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want bool
	}{
		{"bead://alpha/a-1", true},
		{"bead://", true},
		{"https://example.com/x", false},
		{"alpha/a-1", false},
		{"", false},
	} {
		if got := IsBeadRef(tc.in); got != tc.want {
			t.Errorf("IsBeadRef(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
