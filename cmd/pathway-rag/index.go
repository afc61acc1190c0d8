package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/rag"
)

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Ingest a directory into the internal vector index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := rag.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer svc.Stop()

		n, err := svc.IndexDir(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks from %s\n", n, args[0])
		return nil
	},
}
