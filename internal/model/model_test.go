package model

import (
	"testing"
	"time"
)

func TestStatus_IsValid(t *testing.T) {
	for _, tc := range []struct {
		status Status
		want   bool
	}{
		{StatusOpen, true},
		{StatusInProgress, true},
		{StatusBlocked, true},
		{StatusDeferred, true},
		{StatusClosed, true},
		{StatusTombstone, true},
		{Status(""), false},
		{Status("deleted"), false},
	} {
		if got := tc.status.IsValid(); got != tc.want {
			t.Errorf("Status(%q).IsValid() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, tc := range []struct {
		status Status
		want   bool
	}{
		{StatusClosed, true},
		{StatusTombstone, true},
		{StatusOpen, false},
		{StatusInProgress, false},
		{StatusBlocked, false},
		{StatusDeferred, false},
	} {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("Status(%q).Terminal() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestPriority_String(t *testing.T) {
	for _, tc := range []struct {
		priority Priority
		want     string
	}{
		{P0, "P0"},
		{P2, "P2"},
		{P4, "P4"},
	} {
		if got := tc.priority.String(); got != tc.want {
			t.Errorf("Priority(%d).String() = %q, want %q", int(tc.priority), got, tc.want)
		}
	}
}

func TestParsePriority(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"0", P0, false},
		{"3", P3, false},
		{"P1", P1, false},
		{"p4", P4, false},
		{"5", 0, true},
		{"-1", 0, true},
		{"P9", 0, true},
		{"high", 0, true},
		{"", 0, true},
	} {
		got, err := ParsePriority(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePriority(%q) = %v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePriority(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIssueType_IsValid(t *testing.T) {
	for _, tc := range []struct {
		typ  IssueType
		want bool
	}{
		{TypeBug, true},
		{TypeFeature, true},
		{TypeTask, true},
		{TypeEpic, true},
		{TypeChore, true},
		{IssueType("incident"), true},
		{IssueType(""), false},
	} {
		if got := tc.typ.IsValid(); got != tc.want {
			t.Errorf("IssueType(%q).IsValid() = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestBead_Normalize(t *testing.T) {
	b := Bead{
		ID:        "alpha-1",
		Labels:    []string{"infra", "", "urgent", "infra"},
		DependsOn: []BeadID{"alpha-2", "alpha-1", "alpha-3", "alpha-2", ""},
		Blocks:    []BeadID{"alpha-1"},
	}
	b.Normalize()

	wantLabels := []string{"infra", "urgent"}
	if len(b.Labels) != len(wantLabels) {
		t.Fatalf("Labels = %v, want %v", b.Labels, wantLabels)
	}
	for i, l := range wantLabels {
		if b.Labels[i] != l {
			t.Errorf("Labels[%d] = %q, want %q", i, b.Labels[i], l)
		}
	}

	wantDeps := []BeadID{"alpha-2", "alpha-3"}
	if len(b.DependsOn) != len(wantDeps) {
		t.Fatalf("DependsOn = %v, want %v", b.DependsOn, wantDeps)
	}
	for i, id := range wantDeps {
		if b.DependsOn[i] != id {
			t.Errorf("DependsOn[%d] = %q, want %q", i, b.DependsOn[i], id)
		}
	}

	if b.Blocks != nil {
		t.Errorf("Blocks = %v, want nil after stripping self-reference", b.Blocks)
	}
	for _, id := range b.DependsOn {
		if id == b.ID {
			t.Errorf("DependsOn still contains own id %q", b.ID)
		}
	}
}

func TestBead_NormalizeEmpty(t *testing.T) {
	b := Bead{ID: "alpha-1"}
	b.Normalize()
	if b.Labels != nil || b.DependsOn != nil || b.Blocks != nil {
		t.Errorf("Normalize of empty sets = %v/%v/%v, want nil/nil/nil", b.Labels, b.DependsOn, b.Blocks)
	}
}

func TestBead_Validate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	valid := Bead{
		ID:        "alpha-1",
		Title:     "Fix flaky fetch",
		Status:    StatusOpen,
		Priority:  P2,
		IssueType: TypeBug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate(valid) = %v", err)
	}

	for name, mutate := range map[string]func(*Bead){
		"missing id":        func(b *Bead) { b.ID = "" },
		"missing title":     func(b *Bead) { b.Title = "" },
		"unknown status":    func(b *Bead) { b.Status = "deleted" },
		"priority too big":  func(b *Bead) { b.Priority = 7 },
		"negative priority": func(b *Bead) { b.Priority = -1 },
		"missing type":      func(b *Bead) { b.IssueType = "" },
		"zero created_at":   func(b *Bead) { b.CreatedAt = time.Time{} },
		"zero updated_at":   func(b *Bead) { b.UpdatedAt = time.Time{} },
	} {
		t.Run(name, func(t *testing.T) {
			b := valid
			mutate(&b)
			if err := b.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error")
			}
		})
	}
}
