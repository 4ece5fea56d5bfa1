package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the streamdown version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("streamdown " + Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
