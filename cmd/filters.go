package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/openfolio/postfeed/internal/client"
	"github.com/openfolio/postfeed/internal/config"
	"github.com/openfolio/postfeed/internal/mapper"
	"github.com/openfolio/postfeed/internal/terms"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the collection's taxonomies and their terms",
	Example: `  postfeed filters
  postfeed list --term categories:12`,
	Run: runFilters,
}

func runFilters(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	c := client.New(cfg.API.BaseURL, cfg.API.Language, cfg.API.DefaultLanguage)
	raw, _, err := c.FetchPage(context.Background(), cfg.API.TermsEndpoint, "")
	if err != nil {
		log.Fatalf("fetching terms: %v", err)
	}

	for _, item := range raw {
		mapped, err := mapper.TaxonomyFunc(item)
		if err != nil {
			log.Fatalf("mapping taxonomy: %v", err)
		}
		tax := mapped.(*terms.Taxonomy)
		fmt.Printf("%s (%s)\n", tax.Name, tax.Slug)
		for _, f := range tax.Filters {
			fmt.Printf("  %4d  %s\n", f.ID, f.Name)
		}
	}
}
