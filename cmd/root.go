package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "streamdown",
	Short: "Render streaming markdown",
	Long: `streamdown renders markdown that arrives incrementally, completing
unterminated formatting so partial output still displays cleanly.

Examples:
  some-llm-cli | streamdown render        # stream to the terminal
  streamdown html README.md              # emit sanitized HTML
  streamdown agents sync                  # push agent configs to the API`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
