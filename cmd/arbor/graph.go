package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborlabs/arbor/internal/cli"
	"github.com/arborlabs/arbor/internal/presentation/graph"
	"github.com/arborlabs/arbor/pkg/dialog"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the dialog graph visualization",
	Long:  `Reads a dialog document and outputs a Mermaid diagram (graph TD) of its scenes and answers.`,
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

		fmt.Print(graph.GenerateMermaid(g, start))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("start", "s", "", "Scene ID to highlight as the entry point")
}
