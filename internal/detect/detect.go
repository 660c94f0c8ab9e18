// Package detect resolves the machine and project identifiers that namespace
// every scope. Machine identity comes from the hostname; project identity
// comes from the git origin remote, falling back to the working directory
// name outside a repository.
package detect

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/BANCS-Norway/session-coordinator/internal/errors"
)

// gitTimeout bounds the remote lookup so a hung git (e.g. a credential
// helper waiting on input) cannot stall startup.
const gitTimeout = 5 * time.Second

// -----------------------------------------------------------------------------
// Command Executor
// -----------------------------------------------------------------------------

// CommandExecutor abstracts command execution for testability.
// This allows tests to mock git commands without executing them.
type CommandExecutor interface {
	// Run executes a command and returns combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct{}

// NewCLICommandExecutor creates a new CLI command executor.
func NewCLICommandExecutor() *CLICommandExecutor {
	return &CLICommandExecutor{}
}

// Run executes a command and returns combined output.
func (e *CLICommandExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// -----------------------------------------------------------------------------
// Detector
// -----------------------------------------------------------------------------

// Detector resolves machine and project identity.
type Detector struct {
	executor CommandExecutor
}

// NewDetector creates a Detector that shells out to git.
func NewDetector() *Detector {
	return &Detector{executor: NewCLICommandExecutor()}
}

// NewDetectorWithExecutor creates a Detector with a custom executor.
// This is primarily useful for testing.
func NewDetectorWithExecutor(executor CommandExecutor) *Detector {
	return &Detector{executor: executor}
}

// MachineID resolves the machine identifier. The configured value wins
// unless it is empty or "auto", in which case the hostname is used.
func (d *Detector) MachineID(configured string) (string, error) {
	if configured != "" && configured != "auto" {
		return configured, nil
	}
	host, err := os.Hostname()
	if err != nil {
		return "", errors.NewConfigError("cannot resolve hostname", err).WithField("session.machine_id")
	}
	return host, nil
}

// Project detection modes.
const (
	ModeGit       = "git"
	ModeDirectory = "directory"
)

// ProjectID resolves the project identifier for the given directory. In git
// mode a repository with an origin remote yields "owner/repo" parsed from
// the remote URL, falling back to the directory's base name; directory mode
// uses the base name unconditionally.
func (d *Detector) ProjectID(ctx context.Context, dir, mode string) (string, error) {
	if mode != ModeDirectory {
		ctx, cancel := context.WithTimeout(ctx, gitTimeout)
		defer cancel()

		out, err := d.executor.Run(ctx, "git", "-C", dir, "remote", "get-url", "origin")
		if err == nil {
			if project := ParseRemoteURL(strings.TrimSpace(string(out))); project != "" {
				return project, nil
			}
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.NewConfigError("cannot resolve working directory", err)
	}
	return filepath.Base(abs), nil
}

// ParseRemoteURL extracts "owner/repo" from a git remote URL. It understands
// SSH remotes (git@host:owner/repo.git) and HTTP(S) remotes
// (https://host/owner/repo.git). Returns "" for URLs it cannot parse.
func ParseRemoteURL(url string) string {
	if url == "" {
		return ""
	}

	var path string
	switch {
	case strings.Contains(url, "://"):
		// https://host/owner/repo[.git]
		rest := url[strings.Index(url, "://")+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return ""
		}
		path = rest[slash+1:]
	case strings.Contains(url, ":"):
		// git@host:owner/repo[.git]
		path = url[strings.Index(url, ":")+1:]
	default:
		return ""
	}

	path = strings.TrimSuffix(path, ".git")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	// Deeply nested paths (GitLab subgroups) keep only the last two
	// components so the scope prefix stays a single owner/repo pair.
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}
