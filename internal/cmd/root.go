package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BANCS-Norway/session-coordinator/internal/config"
	"github.com/BANCS-Norway/session-coordinator/internal/coordinator"
	"github.com/BANCS-Norway/session-coordinator/internal/detect"
	"github.com/BANCS-Norway/session-coordinator/internal/logging"
	"github.com/BANCS-Norway/session-coordinator/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "session-coordinator",
	Short: "Multi-agent session coordination over shared scoped storage",
	Long: `Session Coordinator lets multiple AI coding sessions working on the
same project claim named session slots and exchange state through
scoped key-value storage, namespaced per machine and project.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/session-coordinator/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/session-coordinator")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SESSION_COORDINATOR")
	// Replace dots with underscores for nested keys in env vars
	// e.g., SESSION_COORDINATOR_SESSION_MACHINE_ID for session.machine_id
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()

	// A project-local file overrides the user config when present.
	cwd, err := os.Getwd()
	if err == nil {
		if _, statErr := os.Stat(config.ProjectConfigFile(cwd)); statErr == nil {
			viper.SetConfigFile(config.ProjectConfigFile(cwd))
			_ = viper.MergeInConfig()
		}
	}
}

// buildCoordinator assembles the storage adapter, identity, and coordinator
// from the resolved configuration. The returned cleanup closes the adapter
// and logger.
func buildCoordinator(ctx context.Context) (*coordinator.Coordinator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logging.NopLogger()
	if cfg.Logging.Enabled {
		log, err = logging.NewLogger(cfg.Logging.File, cfg.Logging.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize logging: %w", err)
		}
	}

	adapter, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		log.Close()
		return nil, nil, err
	}

	detector := detect.NewDetector()
	machine, err := detector.MachineID(cfg.Session.MachineID)
	if err != nil {
		adapter.Close()
		log.Close()
		return nil, nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		adapter.Close()
		log.Close()
		return nil, nil, fmt.Errorf("resolve working directory: %w", err)
	}
	project, err := detector.ProjectID(ctx, cwd, cfg.Session.ProjectDetection)
	if err != nil {
		adapter.Close()
		log.Close()
		return nil, nil, err
	}

	cleanup := func() {
		adapter.Close()
		log.Close()
	}
	return coordinator.New(adapter, machine, project, log), cleanup, nil
}
