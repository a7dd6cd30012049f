package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/mizutani/convo/internal/convo/config"
	"github.com/mizutani/convo/internal/convo/handler"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration and handler files",
	Long: `Initialize the configuration file with default settings and scaffold
the built-in handler definitions (email, tasks, general).

The config file will be created at $HOME/.config/convo/config.toml by default.
You can specify a different location using the --config option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		configFile := filepath.Join(home, ".config", "convo", "config.toml")
		if cfgFile != "" {
			configFile = cfgFile
		}

		configDir := filepath.Dir(configFile)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("config file already exists at: %s", configFile)
		}

		cfg := config.NewDefaultConfig(configDir)

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		defer f.Close()

		encoder := toml.NewEncoder(f)
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}

		// Scaffold the built-in handler definitions
		if err := os.MkdirAll(cfg.HandlersDir, 0755); err != nil {
			return fmt.Errorf("failed to create handlers directory: %w", err)
		}
		for _, def := range handler.Defaults() {
			path := filepath.Join(cfg.HandlersDir, def.Name+".toml")
			if _, err := os.Stat(path); err == nil {
				continue
			}
			hf, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create handler file %s: %w", path, err)
			}
			if err := toml.NewEncoder(hf).Encode(def); err != nil {
				hf.Close()
				return fmt.Errorf("failed to encode handler %s: %w", def.Name, err)
			}
			hf.Close()
		}

		if err := os.MkdirAll(cfg.SessionsDir, 0755); err != nil {
			return fmt.Errorf("failed to create sessions directory: %w", err)
		}

		fmt.Printf("Configuration file created at: %s\n", configFile)
		fmt.Printf("Handlers directory created at: %s\n", cfg.HandlersDir)
		fmt.Printf("Sessions directory created at: %s\n", cfg.SessionsDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
