package scope

import "testing"

func TestJoin(t *testing.T) {
	got := Join("laptop", "org/repo", "session", "claude_1")
	want := "laptop:org/repo:session:claude_1"
	if got != want {
		t.Errorf("Join = %q, want %q", got, want)
	}
}

func TestPrefixQualifyStrip(t *testing.T) {
	prefix := Prefix("laptop", "org/repo")
	if prefix != "laptop:org/repo" {
		t.Fatalf("Prefix = %q", prefix)
	}

	full := Qualify(prefix, "issue:42")
	if full != "laptop:org/repo:issue:42" {
		t.Errorf("Qualify = %q", full)
	}

	if got := Strip(prefix, full); got != "issue:42" {
		t.Errorf("Strip = %q, want issue:42", got)
	}

	// Scopes outside the prefix pass through unchanged.
	other := "desktop:org/repo:issue:1"
	if got := Strip(prefix, other); got != other {
		t.Errorf("Strip(unrelated) = %q, want %q", got, other)
	}
}
