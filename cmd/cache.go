package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfolio/postfeed/internal/cache"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove all page snapshots from disk",
	Run:   runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	if err := cache.ClearSnapshots(); err != nil {
		slog.Error("failed to clear snapshots", "error", err)
		os.Exit(1)
	}
	fmt.Println("snapshot cache cleared")
}
