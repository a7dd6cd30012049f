package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mizutani/convo/internal/convo"
	"github.com/mizutani/convo/internal/convo/config"
	"github.com/mizutani/convo/internal/convo/session"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation sessions",
	Long: `Manage conversation sessions including listing, viewing, and deleting sessions.

Sessions are stored as one JSON file each and survive restarts; any session
can be resumed with 'convo chat -s <id>' or 'convo repl <id>'.`,
}

// openStore builds a session store from the loaded configuration.
func openStore() (*session.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return session.New(cfg.SessionsDir, slog.Default()), nil
}

// sessionsListCmd represents the sessions list command
var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Long:  `List all conversation sessions sorted by most recent activity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		sessions, err := store.List()
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			fmt.Println("\nStart a conversation with:")
			fmt.Println("  convo chat \"your message\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tMESSAGES\tLAST ACTIVITY")
		fmt.Fprintln(w, "--\t-------\t--------\t-------------")
		for _, meta := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				meta.ID,
				meta.CreatedAt.Format("2006-01-02 15:04:05"),
				meta.MessageCount,
				meta.LastMessageAt.Format("2006-01-02 15:04:05"),
			)
		}
		w.Flush()

		fmt.Println("\nUse 'convo sessions show <id>' to view session details.")
		return nil
	},
}

// sessionsShowCmd represents the sessions show command
var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show session history",
	Long:  `Show all messages in a session in conversation order.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		id := args[0]
		messages, err := store.Load(id)
		if err != nil {
			return err
		}

		fmt.Printf("Session: %s\n", id)
		fmt.Printf("Messages: %d\n\n", len(messages))

		if len(messages) == 0 {
			fmt.Println("No messages in this session.")
			return nil
		}

		fmt.Println("Message History:")
		fmt.Println("----------------")
		for i, msg := range messages {
			roleLabel := "You"
			if msg.Role == convo.RoleAssistant {
				roleLabel = "Assistant"
			}
			fmt.Printf("\n[%d] %s (%s):\n%s\n",
				i+1,
				roleLabel,
				msg.Timestamp.Format("2006-01-02 15:04:05"),
				msg.Content,
			)
		}

		fmt.Printf("\nContinue this session with:\n  convo chat -s %s \"your message\"\n", id)
		return nil
	},
}

// sessionsDeleteCmd represents the sessions delete command
var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Long: `Delete a conversation session permanently.

Warning: This action cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		id := args[0]
		if !store.Exists(id) {
			return fmt.Errorf("session %q: %w", id, convo.ErrSessionNotFound)
		}

		fmt.Printf("Are you sure you want to delete session %s? [y/N]: ", id)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Deletion cancelled.")
			return nil
		}

		if err := store.Remove(id); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}

		fmt.Printf("Session %s deleted.\n", id)
		return nil
	},
}

// sessionsClearCmd represents the sessions clear command
var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete old sessions",
	Long: `Delete old conversation sessions permanently.

By default, deletes sessions with no activity in the last 30 days.
Use --before to specify a cutoff date, or --all to delete everything.

Warning: This action cannot be undone.

Examples:
  convo sessions clear                      # Delete sessions inactive for 30+ days
  convo sessions clear --before 2026-01-01  # Delete sessions last active before 2026-01-01
  convo sessions clear --all                # Delete all sessions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		beforeDateStr, _ := cmd.Flags().GetString("before")
		deleteAll, _ := cmd.Flags().GetBool("all")

		store, err := openStore()
		if err != nil {
			return err
		}

		sessions, err := store.List()
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions to delete.")
			return nil
		}

		var toDelete []session.Metadata
		var beforeDate time.Time
		if deleteAll {
			toDelete = sessions
		} else {
			if beforeDateStr != "" {
				beforeDate, err = parseDate(beforeDateStr)
				if err != nil {
					return fmt.Errorf("parsing date: %w", err)
				}
			} else {
				beforeDate = time.Now().AddDate(0, 0, -30)
			}
			for _, meta := range sessions {
				if meta.LastMessageAt.Before(beforeDate) {
					toDelete = append(toDelete, meta)
				}
			}
			if len(toDelete) == 0 {
				fmt.Printf("No sessions last active before %s.\n", beforeDate.Format("2006-01-02"))
				return nil
			}
		}

		if deleteAll {
			fmt.Printf("Are you sure you want to delete all %d sessions? [y/N]: ", len(toDelete))
		} else {
			fmt.Printf("Are you sure you want to delete %d sessions last active before %s? [y/N]: ",
				len(toDelete), beforeDate.Format("2006-01-02"))
		}
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Deletion cancelled.")
			return nil
		}

		deleted := 0
		failed := 0
		for _, meta := range toDelete {
			if err := store.Remove(meta.ID); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to delete session %s: %v\n", meta.ID, err)
				failed++
			} else {
				deleted++
			}
		}

		fmt.Printf("Successfully deleted %d sessions", deleted)
		if failed > 0 {
			fmt.Printf(" (%d failed)", failed)
		}
		fmt.Println(".")
		return nil
	},
}

// parseDate parses a date string in various formats and returns a time.Time
// Supported formats: YYYY-MM-DD, YYYY-MM, YYYY
func parseDate(dateStr string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD, YYYY-MM, or YYYY)", dateStr)
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)

	sessionsClearCmd.Flags().String("before", "", "Delete only sessions last active before this date (format: YYYY-MM-DD, YYYY-MM, or YYYY)")
	sessionsClearCmd.Flags().Bool("all", false, "Delete all sessions")
}
