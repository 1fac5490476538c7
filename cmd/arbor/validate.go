package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborlabs/arbor/internal/cli"
	"github.com/arborlabs/arbor/pkg/dialog"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a dialog document for consistency",
	Long:  `Scans the document and reports dangling scene references (errors), scenes without answers and, when --start is given, scenes unreachable from the start (warnings).`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		start, _ := cmd.Flags().GetString("start")

		issues, err := runValidate(args[0], start)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		for _, issue := range issues {
			fmt.Println(issue)
		}
		if dialog.HasErrors(issues) {
			os.Exit(1)
		}
		if len(issues) == 0 {
			fmt.Println("Dialog is valid! ✅")
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("start", "s", "", "Scene ID to check reachability from")
}

func runValidate(path, start string) ([]dialog.Issue, error) {
	doc, err := cli.LoadDocumentFile(path)
	if err != nil {
		return nil, err
	}
	g, err := dialog.FromDocument(doc)
	if err != nil {
		return nil, err
	}
	if start == "" {
		return g.Validate(), nil
	}
	return g.ValidateFrom(start), nil
}
