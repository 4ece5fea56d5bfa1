package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/agentdeck/streamdown/internal/config"
	"github.com/agentdeck/streamdown/internal/termstream"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	renderWidth int
	renderStyle string
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render markdown to the terminal, streaming from stdin or a file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "Wrap width (0 = terminal width)")
	renderCmd.Flags().StringVar(&renderStyle, "style", "", "Glamour style: auto, dark, light, notty")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	width := renderWidth
	if width == 0 {
		width = cfg.Render.Width
	}
	if width == 0 {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		} else {
			width = 80
		}
	}

	style := renderStyle
	if style == "" {
		style = cfg.Render.Style
	}

	sr, err := termstream.NewRenderer(os.Stdout, glamourOptions(style, width)...)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
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

	if _, err := io.Copy(sr, input); err != nil {
		return err
	}
	return sr.Close()
}

// glamourOptions resolves a style name to renderer options. "auto"
// picks dark or light from the terminal background, and anything
// unrecognized is passed through as a standard style name.
func glamourOptions(style string, width int) []glamour.TermRendererOption {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch style {
	case "", "auto":
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			opts = append(opts, glamour.WithStandardStyle(styles.NoTTYStyle))
		} else if termenv.HasDarkBackground() {
			opts = append(opts, glamour.WithStandardStyle(styles.DarkStyle))
		} else {
			opts = append(opts, glamour.WithStandardStyle(styles.LightStyle))
		}
	default:
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	return opts
}
