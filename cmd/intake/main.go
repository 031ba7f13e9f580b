// Command intake runs the project intake assistant, either as an HTTP API
// (serve) or as a terminal conversation (chat).
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Conversational project brief intake",
	Long: `intake collects a structured project brief through conversation,
asking local questions for the fields it can validate and handing the rest
to a remote assistant. Once the brief is complete and approved it generates
a proposal.

Configuration is read from the environment (see LISTEN_ADDR, STORE_DRIVER,
REMOTE_MODE and friends).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
