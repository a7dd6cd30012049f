/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sessionID string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message to the assistant",
	Long: `Send a message to the assistant and print the reply.

Without a session flag the message runs in a fresh session that is created
on first write; the new session's ID is printed so the conversation can be
resumed later. Use --session to continue a previous conversation.

If no message is provided as an argument, it reads from stdin.

For interactive multi-turn conversations, use 'convo repl' instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get message from arguments or stdin
		var message string
		if len(args) > 0 {
			message = strings.Join(args, " ")
		} else {
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			message = strings.TrimSpace(string(input))
		}

		orch, _, err := newAssistant()
		if err != nil {
			return err
		}

		handle, err := orch.StartOrResumeSession(sessionID)
		if err != nil {
			return fmt.Errorf("starting session: %w", err)
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "Session: %s\n", handle.ID)
		}

		reply, err := orch.SubmitTurn(cmd.Context(), handle, message)
		if err != nil {
			return fmt.Errorf("turn failed: %w", err)
		}

		for chunk := range reply.Chunks() {
			fmt.Print(chunk)
		}
		fmt.Println()

		if sessionID == "" {
			fmt.Fprintf(os.Stderr, "\nSession: %s\n", handle.ID)
			fmt.Fprintf(os.Stderr, "Continue with:\n  convo chat -s %s \"your message\"\n", handle.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to continue (format: YYYYMMDD_HHMMSS)")
}
