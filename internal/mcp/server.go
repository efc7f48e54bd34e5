// Package mcp exposes the collection browser to agents over the Model
// Context Protocol.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openfolio/postfeed/internal/client"
	"github.com/openfolio/postfeed/internal/store"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	store     *store.Store
	client    *client.Client
	postsPath string
}

// NewServer wraps an already initialized store. The raw client backs the
// post resource template, which bypasses the page cache on purpose.
func NewServer(st *store.Store, c *client.Client, postsPath string) *Server {
	s := &Server{store: st, client: c, postsPath: postsPath}

	mcpServer := server.NewMCPServer(
		"postfeed",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("feed_status",
			mcp.WithDescription("Current query state: page, totals, taxonomy filters with checked state, and view flags (loading, hasNext, hasPrevious, filtering)."),
		),
		s.handleStatus,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_posts",
			mcp.WithDescription("List the currently visible posts, flattened across visible pages in page order."),
		),
		s.handleListPosts,
	)

	mcpServer.AddTool(
		mcp.NewTool("toggle_filter",
			mcp.WithDescription("Toggle one filter term on or off. Resets to page 1 and refetches."),
			mcp.WithString("taxonomy",
				mcp.Description("Taxonomy slug (see feed_status)"),
				mcp.Required(),
			),
			mcp.WithNumber("term_id",
				mcp.Description("Term id within the taxonomy"),
				mcp.Required(),
			),
		),
		s.handleToggleFilter,
	)

	mcpServer.AddTool(
		mcp.NewTool("toggle_all",
			mcp.WithDescription("Check every term of a taxonomy, or uncheck every term when all are already checked."),
			mcp.WithString("taxonomy",
				mcp.Description("Taxonomy slug"),
				mcp.Required(),
			),
		),
		s.handleToggleAll,
	)

	mcpServer.AddTool(
		mcp.NewTool("reset_filters",
			mcp.WithDescription("Uncheck every filter and refetch the unfiltered collection from page 1."),
		),
		s.handleResetFilters,
	)

	mcpServer.AddTool(
		mcp.NewTool("next_page",
			mcp.WithDescription("Advance one page and fetch/prefetch as needed."),
		),
		s.handleNextPage,
	)

	mcpServer.AddTool(
		mcp.NewTool("prev_page",
			mcp.WithDescription("Go back one page. A no-op on page 1."),
		),
		s.handlePrevPage,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"post://{id}",
			"Collection post",
			mcp.WithTemplateDescription("Read one post by id, fetched directly from the remote collection."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleReadPost,
	)
}

type statusPayload struct {
	Page        int              `json:"page"`
	TotalPages  int              `json:"total_pages"`
	TotalItems  int              `json:"total_items"`
	Visible     int              `json:"visible_items"`
	Checked     int              `json:"checked_filters"`
	Loading     bool             `json:"loading"`
	HasNext     bool             `json:"has_next"`
	HasPrevious bool             `json:"has_previous"`
	Filtering   bool             `json:"filtering"`
	None        bool             `json:"none"`
	Taxonomies  []statusTaxonomy `json:"taxonomies"`
}

type statusTaxonomy struct {
	Slug    string       `json:"slug"`
	Name    string       `json:"name"`
	Checked bool         `json:"checked"`
	Terms   []statusTerm `json:"terms"`
}

type statusTerm struct {
	ID      int    `json:"id"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

func (s *Server) status() statusPayload {
	info := s.store.PageInfo()
	payload := statusPayload{
		Page:        s.store.Query().Page(),
		TotalPages:  info.TotalPages,
		TotalItems:  info.TotalItems,
		Visible:     s.store.VisibleCount(),
		Checked:     s.store.CheckedFilters(),
		Loading:     s.store.Loading(),
		HasNext:     s.store.HasNext(),
		HasPrevious: s.store.HasPrevious(),
		Filtering:   s.store.Filtering(),
		None:        s.store.None(),
	}
	for _, tax := range s.store.Taxonomies() {
		st := statusTaxonomy{Slug: tax.Slug, Name: tax.Name, Checked: tax.Checked}
		for _, f := range tax.Filters {
			st.Terms = append(st.Terms, statusTerm{ID: f.ID, Slug: f.Slug, Name: f.Name, Checked: f.Checked})
		}
		payload.Taxonomies = append(payload.Taxonomies, st)
	}
	return payload
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resultJSON, _ := json.MarshalIndent(s.status(), "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resultJSON, _ := json.MarshalIndent(s.store.Items(), "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleToggleFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	taxonomy, _ := args["taxonomy"].(string)
	if taxonomy == "" {
		return mcp.NewToolResultError("missing required parameter: taxonomy"), nil
	}
	termID, ok := args["term_id"].(float64)
	if !ok {
		return mcp.NewToolResultError("missing required parameter: term_id"), nil
	}

	if err := s.store.ToggleFilter(ctx, taxonomy, int(termID)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("toggle failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(s.status(), "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleToggleAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	taxonomy, _ := args["taxonomy"].(string)
	if taxonomy == "" {
		return mcp.NewToolResultError("missing required parameter: taxonomy"), nil
	}

	if err := s.store.ToggleAll(ctx, taxonomy); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("toggle failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(s.status(), "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleResetFilters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.store.ResetFilters(ctx)
	resultJSON, _ := json.MarshalIndent(s.status(), "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleNextPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.store.Paginate(ctx, 1)
	resultJSON, _ := json.MarshalIndent(s.status(), "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handlePrevPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.store.Paginate(ctx, -1)
	resultJSON, _ := json.MarshalIndent(s.status(), "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadPost(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "post://")
	id, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	item, err := s.client.FetchItem(ctx, s.postsPath, id)
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}

	itemJSON, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding post: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(itemJSON),
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
