package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BANCS-Norway/session-coordinator/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or initialize the coordinator configuration",
	Long: `View or initialize the coordinator configuration.

Without arguments, displays the resolved configuration.
Use 'config init' to create a config file with defaults.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long: `Create a default config file at ~/.config/session-coordinator/config.yaml,
or at .claude/session-coordinator.yaml with --project.`,
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configInitProject bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().BoolVar(&configInitProject, "project", false, "write a project-local config file instead of the user config")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println("Current configuration:")
	fmt.Println()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Config file: (none - using defaults)\n")
	}
	fmt.Println()

	fmt.Println("storage:")
	fmt.Printf("  adapter: %s\n", cfg.Storage.Adapter)
	if len(cfg.Storage.Config) > 0 {
		fmt.Println("  config:")
		for _, key := range sortedConfigKeys(cfg.Storage.Config) {
			fmt.Printf("    %s: %v\n", key, cfg.Storage.Config[key])
		}
	}

	fmt.Println("session:")
	fmt.Printf("  machine_id: %s\n", cfg.Session.MachineID)
	fmt.Printf("  project_detection: %s\n", cfg.Session.ProjectDetection)

	fmt.Println("logging:")
	fmt.Printf("  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Printf("  level: %s\n", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		fmt.Printf("  file: %s\n", cfg.Logging.File)
	}

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()
	if configInitProject {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		configFile = config.ProjectConfigFile(cwd)
	}

	// Refuse to clobber an existing file
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configContent := `# Session Coordinator Configuration

# Storage backend for coordination state
storage:
  adapter: local
  config:
    # Directory holding one JSON file per scope
    base_path: .claude/session-state

# Machine and project identity used to namespace scopes
session:
  # "auto" resolves the hostname; set a name to override
  machine_id: auto
  # "git" parses owner/repo from the origin remote, falling back to the
  # directory name; "directory" always uses the directory name
  project_detection: git

logging:
  enabled: true
  # DEBUG, INFO, WARN, ERROR
  level: INFO
  # Uncomment to log to a file instead of stderr
  # file: .claude/session-coordinator.log
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Println("\nSearch paths:")
	fmt.Printf("  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Printf("  2. $HOME/.config/session-coordinator/config.yaml\n")
	fmt.Printf("  3. ./config.yaml (current directory)\n")
	fmt.Printf("  4. .claude/session-coordinator.yaml (project-local, wins when present)\n")
	fmt.Println("\nEnvironment variables: SESSION_COORDINATOR_* (e.g., SESSION_COORDINATOR_SESSION_MACHINE_ID)")

	return nil
}

// sortedConfigKeys returns map keys in stable display order.
func sortedConfigKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
