package cmd

import (
	"testing"

	"github.com/fsnotify/fsnotify"
)

func TestRootCommand(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}
	if rootCmd.Use != "session-coordinator" {
		t.Errorf("rootCmd.Use = %q, want session-coordinator", rootCmd.Use)
	}

	// Check for expected subcommands (compare by Name(), not Use which includes args)
	expectedCmds := []string{"serve", "status", "watch", "config"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, name := range expectedCmds {
		if !cmdMap[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestConfigSubcommands(t *testing.T) {
	expected := []string{"show", "init", "path"}
	cmdMap := make(map[string]bool)
	for _, cmd := range configCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, name := range expected {
		if !cmdMap[name] {
			t.Errorf("missing config subcommand %q", name)
		}
	}
}

func TestDescribeStoreEvent(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  string
	}{
		{
			name:  "scope write",
			event: fsnotify.Event{Name: "/store/laptop__org__repo__issue__42.json", Op: fsnotify.Write},
			want:  "updated  laptop:org/repo:issue:42",
		},
		{
			name:  "scope create",
			event: fsnotify.Event{Name: "/store/laptop__org__repo__instances.json", Op: fsnotify.Create},
			want:  "created  laptop:org/repo:instances",
		},
		{
			name:  "scope remove",
			event: fsnotify.Event{Name: "/store/laptop__org__repo__issue__42.json", Op: fsnotify.Remove},
			want:  "removed  laptop:org/repo:issue:42",
		},
		{
			name:  "temp file ignored",
			event: fsnotify.Event{Name: "/store/.tmp-12345", Op: fsnotify.Write},
			want:  "",
		},
		{
			name:  "chmod ignored",
			event: fsnotify.Event{Name: "/store/laptop__org__repo__instances.json", Op: fsnotify.Chmod},
			want:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := describeStoreEvent(tc.event); got != tc.want {
				t.Errorf("describeStoreEvent = %q, want %q", got, tc.want)
			}
		})
	}
}
