package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alfredjeanlab/convoy/internal/model"
)

const sampleRecords = `{"id":"a-1","title":"First","status":"open","priority":1,"issue_type":"task","created_at":"2025-06-01T00:00:00Z","updated_at":"2025-06-01T00:00:00Z"}
`

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

// initRig creates a git repo with the given records content committed at
// model.DefaultBeadsFile. Empty content commits no records file.
func initRig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	run(t, dir, "git", "init")
	run(t, dir, "git", "config", "user.email", "test@test.com")
	run(t, dir, "git", "config", "user.name", "Test")
	run(t, dir, "git", "branch", "-m", "main")
	if content != "" {
		writeRecords(t, dir, content)
	} else {
		if err := os.WriteFile(filepath.Join(dir, "README"), []byte("rig\n"), 0o644); err != nil {
			t.Fatalf("write README: %v", err)
		}
	}
	run(t, dir, "git", "add", ".")
	run(t, dir, "git", "commit", "-m", "init")
	return dir
}

func writeRecords(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, model.DefaultBeadsFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write records: %v", err)
	}
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("%s %v failed: %v", name, args, err)
	}
}

func TestGitSource_LocalPath(t *testing.T) {
	requireGit(t)
	rigDir := initRig(t, sampleRecords)

	src := NewGitSource(t.TempDir(), nil)
	co, err := src.Fetch(context.Background(), &model.Rig{Name: "alpha", Path: rigDir})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(co.Content) != sampleRecords {
		t.Errorf("content = %q, want %q", co.Content, sampleRecords)
	}
	if len(co.Revision) != 40 {
		t.Errorf("revision = %q, want a full sha", co.Revision)
	}
}

func TestGitSource_LocalPathReadsCommittedState(t *testing.T) {
	requireGit(t)
	rigDir := initRig(t, sampleRecords)

	// Uncommitted edits must not leak into a fetch.
	writeRecords(t, rigDir, sampleRecords+`{"id":"a-2"}`+"\n")

	src := NewGitSource(t.TempDir(), nil)
	co, err := src.Fetch(context.Background(), &model.Rig{Name: "alpha", Path: rigDir})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(co.Content) != sampleRecords {
		t.Errorf("content = %q, want committed state only", co.Content)
	}
}

func TestGitSource_CloneThenRefetch(t *testing.T) {
	requireGit(t)
	rigDir := initRig(t, sampleRecords)

	src := NewGitSource(t.TempDir(), nil)
	rig := &model.Rig{Name: "alpha", Remote: rigDir, Branch: "main"}

	first, err := src.Fetch(context.Background(), rig)
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	if string(first.Content) != sampleRecords {
		t.Errorf("first content = %q", first.Content)
	}

	// Advance the rig and fetch again.
	updated := sampleRecords + `{"id":"a-2","title":"Second","status":"open","priority":2,"issue_type":"task","created_at":"2025-06-02T00:00:00Z","updated_at":"2025-06-02T00:00:00Z"}` + "\n"
	writeRecords(t, rigDir, updated)
	run(t, rigDir, "git", "add", ".")
	run(t, rigDir, "git", "commit", "-m", "second")

	second, err := src.Fetch(context.Background(), rig)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if string(second.Content) != updated {
		t.Errorf("second content = %q, want updated records", second.Content)
	}
	if second.Revision == first.Revision {
		t.Errorf("revision did not advance across commits")
	}
}

func TestGitSource_MissingRecordsFile(t *testing.T) {
	requireGit(t)
	rigDir := initRig(t, "")

	src := NewGitSource(t.TempDir(), nil)
	_, err := src.Fetch(context.Background(), &model.Rig{Name: "alpha", Path: rigDir})
	if !IsNotInitialized(err) {
		t.Fatalf("Fetch err = %v, want not-initialized", err)
	}
	if IsUnreachable(err) {
		t.Errorf("not-initialized error also classified unreachable")
	}
}

func TestGitSource_EmptyRepository(t *testing.T) {
	requireGit(t)
	rigDir := t.TempDir()
	run(t, rigDir, "git", "init")

	src := NewGitSource(t.TempDir(), nil)
	_, err := src.Fetch(context.Background(), &model.Rig{Name: "alpha", Path: rigDir})
	if !IsNotInitialized(err) {
		t.Fatalf("Fetch err = %v, want not-initialized for a repo with no commits", err)
	}
}

func TestGitSource_BadRemote(t *testing.T) {
	requireGit(t)
	src := NewGitSource(t.TempDir(), nil)
	_, err := src.Fetch(context.Background(), &model.Rig{
		Name:   "alpha",
		Remote: filepath.Join(t.TempDir(), "no-such-repo"),
	})
	if !IsUnreachable(err) {
		t.Fatalf("Fetch err = %v, want unreachable", err)
	}
}

func TestGitSource_MissingLocalPath(t *testing.T) {
	requireGit(t)
	src := NewGitSource(t.TempDir(), nil)
	_, err := src.Fetch(context.Background(), &model.Rig{
		Name: "alpha",
		Path: filepath.Join(t.TempDir(), "gone"),
	})
	if !IsUnreachable(err) {
		t.Fatalf("Fetch err = %v, want unreachable", err)
	}
}

func TestGitSource_TokenWithoutSecret(t *testing.T) {
	requireGit(t)
	src := NewGitSource(t.TempDir(), nil)
	_, err := src.Fetch(context.Background(), &model.Rig{
		Name:     "alpha",
		Remote:   "https://example.invalid/rig.git",
		Auth:     model.AuthToken,
		TokenEnv: "CONVOY_TEST_TOKEN_UNSET",
	})
	if !IsUnreachable(err) {
		t.Fatalf("Fetch err = %v, want unreachable when no token resolves", err)
	}
}

type staticTokens struct{ token string }

func (s staticTokens) Token(*model.Rig) (string, error) {
	if s.token == "" {
		return "", errors.New("no token")
	}
	return s.token, nil
}

func TestGitSource_TokenProviderFallback(t *testing.T) {
	requireGit(t)
	rigDir := initRig(t, sampleRecords)

	// Local-protocol remotes ignore http.extraHeader, so this exercises
	// only that token resolution succeeds and the flag is accepted.
	src := NewGitSource(t.TempDir(), staticTokens{token: "sekrit"})
	co, err := src.Fetch(context.Background(), &model.Rig{
		Name:   "alpha",
		Remote: rigDir,
		Auth:   model.AuthToken,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(co.Content) != sampleRecords {
		t.Errorf("content = %q", co.Content)
	}
}

func TestGitSource_ConcurrentFetchesSameRig(t *testing.T) {
	requireGit(t)
	rigDir := initRig(t, sampleRecords)

	src := NewGitSource(t.TempDir(), nil)
	rig := &model.Rig{Name: "alpha", Remote: rigDir}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = src.Fetch(context.Background(), rig)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("fetch %d: %v", i, err)
		}
	}
}

func TestSourceError_Format(t *testing.T) {
	err := unreachable("alpha", fmt.Errorf("dial: timeout"))
	want := "rig alpha: unreachable: dial: timeout"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.As(error(err), new(*SourceError)) {
		t.Errorf("errors.As failed on SourceError")
	}
}

func TestIsHelpers_NonSourceErrors(t *testing.T) {
	plain := errors.New("boom")
	if IsUnreachable(plain) || IsNotInitialized(plain) {
		t.Errorf("plain error classified as source failure")
	}
	if IsUnreachable(nil) || IsNotInitialized(nil) {
		t.Errorf("nil classified as source failure")
	}
}
