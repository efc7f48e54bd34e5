package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfolio/postfeed/internal/client"
	"github.com/openfolio/postfeed/internal/config"
	"github.com/openfolio/postfeed/internal/mapper"
	"github.com/openfolio/postfeed/internal/query"
	"github.com/openfolio/postfeed/internal/store"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "postfeed",
	Short: "Browse a filterable, paginated remote collection",
	Run:   runMCP,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose log output")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(filtersCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(clearCacheCmd)

	cobra.OnInitialize(func() {
		if debug {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	})
}

// buildStore wires a store from config. initialQuery plays the address bar's
// role for a CLI process.
func buildStore(initialQuery string, loadSnapshots bool) (*store.Store, *client.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	c := client.New(cfg.API.BaseURL, cfg.API.Language, cfg.API.DefaultLanguage)
	st := store.New(store.Options{
		Client:        c,
		Mappers:       mapper.Defaults(cfg.API.PostsEndpoint, cfg.API.TermsEndpoint),
		PostsEndpoint: cfg.API.PostsEndpoint,
		TermsEndpoint: cfg.API.TermsEndpoint,
		PerPage:       cfg.API.PerPage,
		ExtraParams:   cfg.Query.ExtraParams,
		OmitParams:    cfg.Query.OmitParams,
		Rename:        cfg.Query.Rename,
		Location:      store.NewMemoryLocation(initialQuery),
		LoadSnapshots: loadSnapshots,
	})
	return st, c, cfg, nil
}

// parseTermFlags converts repeated "taxonomy:id" flags into query list
// values.
func parseTermFlags(termFlags []string, q query.Query) error {
	for _, flag := range termFlags {
		tax, idStr, ok := strings.Cut(flag, ":")
		if !ok {
			return fmt.Errorf("invalid term %q: want taxonomy:id", flag)
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return fmt.Errorf("invalid term id in %q: %w", flag, err)
		}
		list, _ := q[tax].([]any)
		q[tax] = append(list, id)
	}
	return nil
}
