package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/openfolio/postfeed/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the collection browser over MCP on stdio",
	Run:   runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	st, c, cfg, err := buildStore("", false)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := st.Init(context.Background()); err != nil {
		log.Fatalf("initializing store: %v", err)
	}

	srv := mcp.NewServer(st, c, cfg.API.PostsEndpoint)
	if err := srv.Run(); err != nil {
		log.Fatalf("mcp server failed: %v", err)
	}
}
