/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mizutani/convo/internal/convo/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "convo",
	Short: "A conversational assistant with durable sessions",
	Long: `convo is a command-line conversational assistant that persists every
conversation as a durable session and routes each message to a specialized
handler (email, tasks, general) based on its content.

Sessions survive restarts: resume any conversation by ID, or list past
sessions sorted by recent activity. Handlers are defined by data in TOML
files, so new ones can be added without touching code.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/convo/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("CONVO")
	viper.AutomaticEnv()

	// Determine config directory for user config
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	userConfigDir := filepath.Join(home, ".config", "convo")

	// Set default values
	defaultConfig := config.NewDefaultConfig(userConfigDir)
	viper.SetDefault("sessions_dir", defaultConfig.SessionsDir)
	viper.SetDefault("handlers_dir", defaultConfig.HandlersDir)
	viper.SetDefault("default_handler", defaultConfig.DefaultHandler)
	viper.SetDefault("history_window", defaultConfig.HistoryWindow)
	viper.SetDefault("chunk_size", defaultConfig.ChunkSize)

	// Bind environment variables
	viper.BindEnv("sessions_dir", "CONVO_SESSIONS_DIR")
	viper.BindEnv("handlers_dir", "CONVO_HANDLERS_DIR")
	viper.BindEnv("history_window", "CONVO_HISTORY_WINDOW")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		// System-wide config first (lower priority), then user config
		viper.AddConfigPath("/etc/convo")
		viper.AddConfigPath("/usr/local/etc/convo")
		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		systemConfigLoaded := viper.ReadInConfig() == nil

		viper.AddConfigPath(userConfigDir)
		if systemConfigLoaded {
			if err := viper.MergeInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
				}
			}
		} else {
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
				}
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "  sessions_dir:", viper.GetString("sessions_dir"))
		fmt.Fprintln(os.Stderr, "  handlers_dir:", viper.GetString("handlers_dir"))
	}
}

// initLogging configures the default slog logger. Diagnostics go to stderr so
// they never interleave with streamed replies on stdout.
func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
