package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mizutani/convo/internal/convo/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values loaded from the config file
and environment variables.

If a field name is specified, only that field's value is displayed.
Available fields: configfile, sessions_dir, handlers_dir, default_handler, history_window, chunk_size

Examples:
  convo config                  # Show all configuration
  convo config sessions_dir     # Show only the sessions directory
  convo config history_window   # Show only the history window`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		if len(args) > 0 {
			switch strings.ToLower(args[0]) {
			case "configfile":
				fmt.Println(viper.ConfigFileUsed())
			case "sessions_dir", "sessionsdir":
				fmt.Println(cfg.SessionsDir)
			case "handlers_dir", "handlersdir":
				fmt.Println(cfg.HandlersDir)
			case "default_handler", "defaulthandler":
				fmt.Println(cfg.DefaultHandler)
			case "history_window", "historywindow":
				fmt.Println(cfg.HistoryWindow)
			case "chunk_size", "chunksize":
				fmt.Println(cfg.ChunkSize)
			default:
				fmt.Fprintf(os.Stderr, "Unknown field: %s\n", args[0])
				fmt.Fprintf(os.Stderr, "Available fields: configfile, sessions_dir, handlers_dir, default_handler, history_window, chunk_size\n")
				os.Exit(1)
			}
			return
		}

		fmt.Printf("ConfigFile: %s\n", viper.ConfigFileUsed())
		fmt.Printf("SessionsDir: %s\n", cfg.SessionsDir)
		fmt.Printf("HandlersDir: %s\n", cfg.HandlersDir)
		fmt.Printf("DefaultHandler: %s\n", cfg.DefaultHandler)
		fmt.Printf("HistoryWindow: %d\n", cfg.HistoryWindow)
		fmt.Printf("ChunkSize: %d\n", cfg.ChunkSize)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
