package main

import (
	"github.com/spf13/cobra"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/mcpserver"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/rag"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ask and search-context tools over MCP stdio",
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
		return mcpserver.ServeStdio(mcpserver.New("pathway-rag", rag.Version, svc))
	},
}
