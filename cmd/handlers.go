package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mizutani/convo/internal/convo/config"
	"github.com/mizutani/convo/internal/convo/handler"
	"github.com/mizutani/convo/internal/convo/router"
)

// handlersCmd represents the handlers command
var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "Show the handler routing table",
	Long: `Show the handlers the assistant routes messages to.

Handlers are defined in TOML files under the handlers directory. Each file
declares a name, the keywords that trigger it, and its reply behavior;
declaration order (by priority) decides which handler wins when keyword
sets overlap.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defs, err := loadHandlers(cfg)
		if err != nil {
			return fmt.Errorf("loading handlers: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPRIORITY\tDEFAULT\tKEYWORDS")
		for _, def := range defs {
			isDefault := ""
			if def.Default {
				isDefault = "yes"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				def.Name, def.Priority, isDefault, strings.Join(def.Keywords, ", "))
		}
		w.Flush()
		return nil
	},
}

// handlersTestCmd represents the handlers test command
var handlersTestCmd = &cobra.Command{
	Use:   "test <utterance>",
	Short: "Show which handler an utterance routes to",
	Long: `Route an utterance through the handler table and print the selected
handler. Useful for checking keyword coverage when editing handler files.

Examples:
  convo handlers test "check my email"
  convo handlers test "add a todo to buy milk"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defs, err := loadHandlers(cfg)
		if err != nil {
			return fmt.Errorf("loading handlers: %w", err)
		}

		table := handler.Table(defs, router.Handler(cfg.DefaultHandler))
		utterance := strings.Join(args, " ")
		fmt.Println(table.Route(utterance))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(handlersCmd)
	handlersCmd.AddCommand(handlersTestCmd)
}
