package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cslab/cschat/internal/config"
	"github.com/cslab/cschat/internal/database"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the local database (all sessions, messages, and notes)",
	Long: `Reset deletes the store file on disk. Every session, every message,
and every knowledge document is gone. The next start creates a fresh
empty database.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadRaw()
	if err != nil {
		return err
	}

	if !resetForce {
		fmt.Printf("This permanently deletes %s and everything in it.\n", cfg.DBPath)
		fmt.Print("Type 'yes' to continue: ")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := database.Reset(cfg.DBPath); err != nil {
		if errors.Is(err, database.ErrLocked) {
			fmt.Fprintln(os.Stderr, "The database is in use. Close running cschat instances first.")
		}
		return err
	}

	fmt.Println("Database deleted.")
	return nil
}
