package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborlabs/arbor/internal/cli"
	"github.com/arborlabs/arbor/pkg/dialog"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play a dialog document interactively",
	Long:  `Loads a dialog document (.json, .yaml or .yml) and plays it in the terminal, starting from the given scene.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		start, _ := cmd.Flags().GetString("start")

		doc, err := cli.LoadDocumentFile(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		g, err := dialog.FromDocument(doc)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if err := cli.NewPlayer().Run(g, start); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringP("start", "s", "intro", "Scene ID to start from")
}
