// Package cmd implements the cschat command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cschat",
	Short: "cschat - an AI study assistant for your terminal",
	Long: `cschat is a terminal AI study assistant built on Genkit.

It remembers your conversations across restarts, can look things up
with tools (current weather, date and time, your saved notes), and
searches its knowledge base semantically.

Running cschat with no arguments starts an interactive chat.`,
	RunE: runChat,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
