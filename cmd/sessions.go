package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cslab/cschat/internal/config"
	"github.com/cslab/cschat/internal/conversation"
	"github.com/cslab/cschat/internal/database"
	"github.com/cslab/cschat/internal/log"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved conversation sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), runSessionsList)
	},
}

func init() {
	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), runSessionsList)
		},
	})
	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *conversation.Store) error {
				return runSessionsShow(ctx, store, args[0])
			})
		},
	})
	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "rename <session-id> <name>",
		Short: "Rename a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *conversation.Store) error {
				return store.RenameSession(ctx, args[0], strings.Join(args[1:], " "))
			})
		},
	})
	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and all its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *conversation.Store) error {
				if err := store.ClearSession(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("Deleted session %s\n", args[0])
				return nil
			})
		},
	})
	rootCmd.AddCommand(sessionsCmd)
}

// withStore opens the conversation store for a maintenance command and
// guarantees release. These commands never reach the AI provider, so
// the unvalidated config is enough.
func withStore(ctx context.Context, fn func(context.Context, *conversation.Store) error) error {
	cfg, err := config.LoadRaw()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	return fn(ctx, conversation.New(db.DB, log.NewNop()))
}

func runSessionsList(ctx context.Context, store *conversation.Store) error {
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMESSAGES\tUPDATED")
	for _, sess := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			sess.ID, sess.DisplayName(), sess.MessageCount, formatTime(sess.UpdatedAt))
	}
	return w.Flush()
}

func runSessionsShow(ctx context.Context, store *conversation.Store, id string) error {
	sess, err := store.Session(ctx, id)
	if err != nil {
		return fmt.Errorf("getting session: %w", err)
	}
	msgs, err := store.Messages(ctx, id, 0)
	if err != nil {
		return fmt.Errorf("getting messages: %w", err)
	}

	fmt.Printf("Session: %s\n", sess.DisplayName())
	fmt.Printf("Created: %s\n", formatTime(sess.CreatedAt))
	fmt.Printf("Updated: %s\n", formatTime(sess.UpdatedAt))
	fmt.Printf("Messages: %d\n\n", len(msgs))

	for _, msg := range msgs {
		fmt.Printf("[%s] %s: %s\n", formatTime(msg.CreatedAt), msg.Role, msg.Content)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
