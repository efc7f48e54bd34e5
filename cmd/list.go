package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/openfolio/postfeed/internal/mapper"
	"github.com/openfolio/postfeed/internal/query"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch and print a page of the collection",
	Example: `  postfeed list
  postfeed list --page 2 --per-page 20
  postfeed list --search "gopher" --term categories:12 --term tags:7`,
	Run: runList,
}

var (
	listPage    int
	listPerPage int
	listSearch  string
	listTerms   []string
	listNoCache bool
)

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	listCmd.Flags().IntVar(&listPerPage, "per-page", 0, "items per page (default from config)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "full-text search")
	listCmd.Flags().StringSliceVar(&listTerms, "term", nil, "taxonomy term as taxonomy:id (repeatable)")
	listCmd.Flags().BoolVar(&listNoCache, "no-cache", false, "ignore the page snapshot cache")
}

func runList(cmd *cobra.Command, args []string) {
	q := query.Query{}
	if listPage > 1 {
		q["page"] = listPage
	}
	if listPerPage > 0 {
		q["per_page"] = listPerPage
	}
	if listSearch != "" {
		q["search"] = listSearch
	}
	if err := parseTermFlags(listTerms, q); err != nil {
		log.Fatalf("%v", err)
	}

	st, _, _, err := buildStore(query.Encode(q, nil, nil), !listNoCache)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := st.Init(context.Background()); err != nil {
		log.Fatalf("initializing store: %v", err)
	}

	if st.None() {
		fmt.Println("no results")
		return
	}

	for _, item := range st.Items() {
		post, ok := item.(mapper.Post)
		if !ok {
			fmt.Printf("  %v\n", item)
			continue
		}
		fmt.Printf("  #%-6d %s\n", post.ID, post.Title)
		if post.Link != "" {
			fmt.Printf("          %s\n", post.Link)
		}
	}

	info := st.PageInfo()
	fmt.Printf("\npage %d of %d (%d items", st.Query().Page(), info.TotalPages, info.TotalItems)
	if n := st.CheckedFilters(); n > 0 {
		fmt.Printf(", %d filters", n)
	}
	fmt.Println(")")

	if !listNoCache {
		if err := st.SaveSnapshot(); err != nil {
			slog.Warn("saving snapshot", "error", err)
		}
	}
}
