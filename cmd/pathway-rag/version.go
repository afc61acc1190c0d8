package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/rag"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pathway-rag version %s\n", rag.Version)
	},
}
