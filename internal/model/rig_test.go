package model

import "testing"

func TestRig_BeadsFile(t *testing.T) {
	r := Rig{Name: "alpha", Remote: "git@example.com:org/alpha.git"}
	if got := r.BeadsFile(); got != DefaultBeadsFile {
		t.Errorf("BeadsFile() = %q, want %q", got, DefaultBeadsFile)
	}
	r.File = "tracker/beads.jsonl"
	if got := r.BeadsFile(); got != "tracker/beads.jsonl" {
		t.Errorf("BeadsFile() = %q, want override", got)
	}
}

func TestRig_AuthMode(t *testing.T) {
	r := Rig{Name: "alpha", Remote: "https://example.com/alpha.git"}
	if got := r.AuthMode(); got != AuthAgent {
		t.Errorf("AuthMode() = %q, want agent default", got)
	}
	r.Auth = AuthToken
	if got := r.AuthMode(); got != AuthToken {
		t.Errorf("AuthMode() = %q, want token", got)
	}
}

func TestRig_Validate(t *testing.T) {
	for _, tc := range []struct {
		name    string
		rig     Rig
		wantErr bool
	}{
		{"remote only", Rig{Name: "alpha", Remote: "https://example.com/a.git"}, false},
		{"path only", Rig{Name: "alpha", Path: "/srv/rigs/alpha"}, false},
		{"token auth", Rig{Name: "alpha", Remote: "https://example.com/a.git", Auth: AuthToken, TokenEnv: "ALPHA_TOKEN"}, false},
		{"missing name", Rig{Remote: "https://example.com/a.git"}, true},
		{"missing locator", Rig{Name: "alpha"}, true},
		{"bad auth", Rig{Name: "alpha", Remote: "x", Auth: "kerberos"}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rig.Validate()
			if tc.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}
