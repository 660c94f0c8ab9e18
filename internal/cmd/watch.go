package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/BANCS-Norway/session-coordinator/internal/config"
	"github.com/BANCS-Norway/session-coordinator/internal/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live changes to the local session store",
	Long: `Watch the local storage directory and print which scope changed as
other sessions write state. Only meaningful with the local file adapter.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Storage.Adapter != "local" {
		return fmt.Errorf("watch requires the local adapter, configured adapter is %q", cfg.Storage.Adapter)
	}

	basePath := storage.DefaultBasePath
	if p, ok := cfg.Storage.Config["base_path"].(string); ok && p != "" {
		basePath = p
	}
	// Creating the adapter ensures the directory exists before watching it.
	adapter, err := storage.NewLocalAdapter(basePath)
	if err != nil {
		return err
	}
	defer adapter.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(adapter.Root()); err != nil {
		return fmt.Errorf("watch %s: %w", adapter.Root(), err)
	}

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", adapter.Root())

	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if line := describeStoreEvent(event); line != "" {
				fmt.Println(line)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Printf("watch error: %v\n", err)
		}
	}
}

// describeStoreEvent maps a filesystem event back to the scope it affects.
// Temp files from atomic writes are skipped; only settled scope files are
// reported.
func describeStoreEvent(event fsnotify.Event) string {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".json") {
		return ""
	}
	scope := storage.FilenameToScope(name)

	switch {
	case event.Op.Has(fsnotify.Create):
		return fmt.Sprintf("created  %s", scope)
	case event.Op.Has(fsnotify.Write):
		return fmt.Sprintf("updated  %s", scope)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		return fmt.Sprintf("removed  %s", scope)
	default:
		return ""
	}
}
