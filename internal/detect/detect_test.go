package detect

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/BANCS-Norway/session-coordinator/internal/errors"
)

// =============================================================================
// Test Helpers
// =============================================================================

// fakeExecutor replays a canned git response instead of shelling out.
type fakeExecutor struct {
	output []byte
	err    error
	calls  int
}

func (f *fakeExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls++
	return f.output, f.err
}

// =============================================================================
// MachineID
// =============================================================================

func TestMachineID_ConfiguredValueWins(t *testing.T) {
	d := NewDetector()

	id, err := d.MachineID("workstation")
	if err != nil {
		t.Fatalf("MachineID failed: %v", err)
	}
	if id != "workstation" {
		t.Errorf("MachineID = %q, want workstation", id)
	}
}

func TestMachineID_AutoUsesHostname(t *testing.T) {
	d := NewDetector()

	for _, configured := range []string{"", "auto"} {
		id, err := d.MachineID(configured)
		if err != nil {
			t.Fatalf("MachineID(%q) failed: %v", configured, err)
		}
		if id == "" || id == "auto" {
			t.Errorf("MachineID(%q) = %q, want resolved hostname", configured, id)
		}
	}
}

// =============================================================================
// ProjectID
// =============================================================================

func TestProjectID_FromGitRemote(t *testing.T) {
	exec := &fakeExecutor{output: []byte("git@github.com:BANCS-Norway/session-coordinator.git\n")}
	d := NewDetectorWithExecutor(exec)

	project, err := d.ProjectID(context.Background(), t.TempDir(), ModeGit)
	if err != nil {
		t.Fatalf("ProjectID failed: %v", err)
	}
	if project != "BANCS-Norway/session-coordinator" {
		t.Errorf("ProjectID = %q", project)
	}
	if exec.calls != 1 {
		t.Errorf("executor called %d times, want 1", exec.calls)
	}
}

func TestProjectID_DirectoryModeSkipsGit(t *testing.T) {
	exec := &fakeExecutor{output: []byte("git@github.com:owner/repo.git\n")}
	d := NewDetectorWithExecutor(exec)

	dir := filepath.Join(t.TempDir(), "plain-dir")
	project, err := d.ProjectID(context.Background(), dir, ModeDirectory)
	if err != nil {
		t.Fatalf("ProjectID failed: %v", err)
	}
	if project != "plain-dir" {
		t.Errorf("ProjectID = %q, want plain-dir", project)
	}
	if exec.calls != 0 {
		t.Errorf("executor called %d times in directory mode, want 0", exec.calls)
	}
}

func TestProjectID_FallsBackToDirectoryName(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("not a git repository")}
	d := NewDetectorWithExecutor(exec)

	dir := filepath.Join(t.TempDir(), "my-project")
	project, err := d.ProjectID(context.Background(), dir, ModeGit)
	if err != nil {
		t.Fatalf("ProjectID failed: %v", err)
	}
	if project != "my-project" {
		t.Errorf("ProjectID = %q, want my-project", project)
	}
}

func TestProjectID_UnparseableRemoteFallsBack(t *testing.T) {
	exec := &fakeExecutor{output: []byte("not-a-url\n")}
	d := NewDetectorWithExecutor(exec)

	dir := filepath.Join(t.TempDir(), "scratch")
	project, err := d.ProjectID(context.Background(), dir, ModeGit)
	if err != nil {
		t.Fatalf("ProjectID failed: %v", err)
	}
	if project != "scratch" {
		t.Errorf("ProjectID = %q, want scratch", project)
	}
}

// =============================================================================
// ParseRemoteURL
// =============================================================================

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"ssh", "git@github.com:owner/repo.git", "owner/repo"},
		{"ssh no suffix", "git@github.com:owner/repo", "owner/repo"},
		{"https", "https://github.com/owner/repo.git", "owner/repo"},
		{"https no suffix", "https://github.com/owner/repo", "owner/repo"},
		{"http", "http://git.example.com/owner/repo.git", "owner/repo"},
		{"trailing slash", "https://github.com/owner/repo/", "owner/repo"},
		{"subgroup keeps last two", "https://gitlab.com/group/sub/repo.git", "sub/repo"},
		{"empty", "", ""},
		{"no path", "https://github.com", ""},
		{"bare host", "github.com", ""},
		{"single component", "git@github.com:repo.git", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseRemoteURL(tc.url); got != tc.want {
				t.Errorf("ParseRemoteURL(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}
