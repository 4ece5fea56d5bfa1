package cmd

import (
	"io"
	"os"

	"github.com/agentdeck/streamdown/internal/config"
	"github.com/agentdeck/streamdown/internal/markdown"
	"github.com/spf13/cobra"
)

var (
	htmlAllowHosts []string
	htmlIncludeWww bool
	htmlAllowHTTP  bool
	htmlTheme      string
	htmlIncomplete bool
)

var htmlCmd = &cobra.Command{
	Use:   "html [file]",
	Short: "Render markdown to sanitized HTML on stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHTML,
}

func init() {
	htmlCmd.Flags().StringSliceVar(&htmlAllowHosts, "allow-host", nil, "Host allowed for live links ('*' for all, repeatable)")
	htmlCmd.Flags().BoolVar(&htmlIncludeWww, "include-www", true, "Also allow www. variants of allowed hosts")
	htmlCmd.Flags().BoolVar(&htmlAllowHTTP, "allow-http", false, "Allow plain http:// links for allowed hosts")
	htmlCmd.Flags().StringVar(&htmlTheme, "theme", "", "Chroma highlight theme for code blocks")
	htmlCmd.Flags().BoolVar(&htmlIncomplete, "incomplete", false, "Treat input as a partial stream and complete unterminated markup")
	rootCmd.AddCommand(htmlCmd)
}

func runHTML(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	hosts := htmlAllowHosts
	if !cmd.Flags().Changed("allow-host") {
		hosts = cfg.Widget.AllowedHosts
	}
	theme := htmlTheme
	if theme == "" {
		theme = cfg.Widget.HighlightTheme
	}

	opts := markdown.Options{
		Streaming: htmlIncomplete,
		LinkPolicy: markdown.LinkPolicy{
			AllowedHosts: hosts,
			IncludeWww:   htmlIncludeWww,
			AllowHTTP:    htmlAllowHTTP,
		},
		HighlightTheme: theme,
	}

	var input io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}
	data, err := io.ReadAll(input)
	if err != nil {
		return err
	}

	pipeline := markdown.NewPipeline(opts)
	out := cmd.OutOrStdout()
	for _, block := range pipeline.Render(string(data)) {
		if _, err := io.WriteString(out, block.HTML); err != nil {
			return err
		}
	}
	return nil
}
