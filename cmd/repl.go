package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mizutani/convo/internal/convo/turn"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl [session-id]",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with the assistant.

Every turn is saved to the session as it happens, so you can quit at any
time and resume later. Pass a session ID to continue a previous
conversation, or start without one for a fresh session.

Examples:
  convo repl                    # Start a new interactive session
  convo repl 20260831_142501    # Continue an existing session`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, _, err := newAssistant()
		if err != nil {
			return err
		}

		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		handle, err := orch.StartOrResumeSession(id)
		if err != nil {
			return fmt.Errorf("starting session: %w", err)
		}

		return runRepl(cmd, orch, handle)
	},
}

// runRepl drives the interactive loop until exit or EOF.
func runRepl(cmd *cobra.Command, orch *turn.Orchestrator, handle *turn.Handle) error {
	promptColor := color.New(color.FgBlue, color.Bold)
	replyColor := color.New(color.FgGreen)
	noticeColor := color.New(color.FgYellow)

	fmt.Fprintf(os.Stderr, "\n=== Interactive Session [%s] ===\n", handle.ID)
	fmt.Fprintf(os.Stderr, "Type '/help' for commands, '/exit' or Ctrl+D to quit\n\n")

	scanner := bufio.NewScanner(os.Stdin)

	for {
		promptColor.Fprintf(os.Stderr, "[%s] > ", handle.ID)

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			fmt.Fprintln(os.Stderr, "\nGoodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			next, cont := handleReplCommand(input, orch, handle)
			if !cont {
				break
			}
			handle = next
			continue
		}

		// Spinner while the turn runs
		done := make(chan bool)
		go showSpinner(done)

		reply, err := orch.SubmitTurn(cmd.Context(), handle, input)

		done <- true
		close(done)

		if err != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		fmt.Println()
		for chunk := range reply.Chunks() {
			replyColor.Print(chunk)
		}
		fmt.Println()
		if verbose {
			noticeColor.Fprintf(os.Stderr, "[handler: %s]\n", reply.Handler)
		}
		fmt.Println()
	}

	return nil
}

// handleReplCommand processes slash commands. It returns the (possibly new)
// session handle and whether to continue the loop.
func handleReplCommand(input string, orch *turn.Orchestrator, handle *turn.Handle) (*turn.Handle, bool) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	switch strings.ToLower(parts[0]) {
	case "/help", "/h":
		fmt.Fprintln(os.Stderr, "\nAvailable commands:")
		fmt.Fprintln(os.Stderr, "  /new            - Start a new session")
		fmt.Fprintln(os.Stderr, "  /resume <id>    - Resume an existing session")
		fmt.Fprintln(os.Stderr, "  /sessions       - List saved sessions")
		fmt.Fprintln(os.Stderr, "  /info           - Show current session information")
		fmt.Fprintln(os.Stderr, "  /help, /h       - Show this help message")
		fmt.Fprintln(os.Stderr, "  /exit, /quit    - Exit")
		fmt.Fprintln(os.Stderr, "")
		return handle, true

	case "/new":
		next, err := orch.StartOrResumeSession("")
		if err != nil {
			red.Fprintf(os.Stderr, "Error: %v\n", err)
			return handle, true
		}
		green.Fprintf(os.Stderr, "Started new session: %s\n", next.ID)
		return next, true

	case "/resume":
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			red.Fprintln(os.Stderr, "Usage: /resume <session-id>")
			return handle, true
		}
		id := strings.TrimSpace(parts[1])
		if !orch.Store().Exists(id) {
			red.Fprintf(os.Stderr, "Session %q not found. Use /sessions to see available sessions.\n", id)
			return handle, true
		}
		next, err := orch.StartOrResumeSession(id)
		if err != nil {
			red.Fprintf(os.Stderr, "Error: %v\n", err)
			return handle, true
		}
		green.Fprintf(os.Stderr, "Resumed session: %s\n", next.ID)
		return next, true

	case "/sessions":
		sessions, err := orch.ListSessions()
		if err != nil {
			red.Fprintf(os.Stderr, "Error: %v\n", err)
			return handle, true
		}
		if len(sessions) == 0 {
			fmt.Fprintln(os.Stderr, "No sessions found.")
			return handle, true
		}
		w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tMESSAGES\tLAST ACTIVITY")
		for _, meta := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				meta.ID,
				meta.CreatedAt.Format("2006-01-02 15:04:05"),
				meta.MessageCount,
				meta.LastMessageAt.Format("2006-01-02 15:04:05"),
			)
		}
		w.Flush()
		return handle, true

	case "/info":
		fmt.Fprintln(os.Stderr, "\nSession Information:")
		fmt.Fprintf(os.Stderr, "  ID: %s\n", handle.ID)
		if msgs, err := orch.Store().Load(handle.ID); err == nil {
			fmt.Fprintf(os.Stderr, "  Messages: %d\n", len(msgs))
		} else {
			fmt.Fprintln(os.Stderr, "  Messages: 0 (not yet saved)")
		}
		fmt.Fprintln(os.Stderr, "")
		return handle, true

	case "/exit", "/quit", "/q":
		fmt.Fprintln(os.Stderr, "Goodbye!")
		return handle, false

	default:
		red.Fprintf(os.Stderr, "Unknown command: %s (type '/help' for available commands)\n", parts[0])
		return handle, true
	}
}

// showSpinner displays a spinner animation while waiting for a reply.
func showSpinner(done chan bool) {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	i := 0
	for {
		select {
		case <-done:
			// Clear the spinner line
			fmt.Fprint(os.Stderr, "\r\033[K")
			return
		default:
			fmt.Fprintf(os.Stderr, "\r%s Thinking...", spinners[i])
			i = (i + 1) % len(spinners)
			time.Sleep(80 * time.Millisecond)
		}
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
}
