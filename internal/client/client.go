// Package client speaks the remote collection's REST contract.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// PageInfo carries the pagination metadata parsed from a successful
// response's headers. It reflects the most recently completed response, not
// necessarily the page currently displayed.
type PageInfo struct {
	TotalPages int
	TotalItems int
	Link       string
}

// PayloadError is returned when the response body is not a JSON array. It
// carries the raw payload for diagnostics.
type PayloadError struct {
	Query string
	Raw   []byte
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("response for %q is not an array", e.Query)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Body)
}

// Client fetches pages of items from the collection API. Concurrent
// identical requests are collapsed through singleflight so overlapping
// fetch runs do not hit the network twice for the same page.
type Client struct {
	baseURL    string
	langPrefix string
	httpClient *http.Client
	group      singleflight.Group
}

// PathPrefix returns the language path prefix prepended to every request:
// empty for the default language, "/{code}" otherwise.
func PathPrefix(lang, defaultLang string) string {
	if lang == "" || lang == defaultLang {
		return ""
	}
	return "/" + lang
}

func New(baseURL, lang, defaultLang string) *Client {
	return &Client{
		baseURL:    baseURL,
		langPrefix: PathPrefix(lang, defaultLang),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type fetchResult struct {
	items []map[string]any
	info  PageInfo
}

// FetchPage requests one page of items. queryString must already be encoded
// (with leading "?" or empty). On success it returns the raw items and the
// pagination headers. Failure responses never produce a PageInfo, so callers
// keep whatever totals they had.
func (c *Client) FetchPage(ctx context.Context, path, queryString string) ([]map[string]any, PageInfo, error) {
	url := c.baseURL + c.langPrefix + path + queryString

	v, err, _ := c.group.Do(url, func() (any, error) {
		return c.fetch(ctx, url, queryString)
	})
	if err != nil {
		return nil, PageInfo{}, err
	}
	res := v.(*fetchResult)
	return res.items, res.info, nil
}

func (c *Client) fetch(ctx context.Context, url, queryString string) (*fetchResult, error) {
	body, header, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &PayloadError{Query: queryString, Raw: body}
	}

	info := PageInfo{Link: header.Get("Link")}
	fmt.Sscanf(header.Get("X-WP-TotalPages"), "%d", &info.TotalPages)
	fmt.Sscanf(header.Get("X-WP-Total"), "%d", &info.TotalItems)

	return &fetchResult{items: items, info: info}, nil
}

// FetchItem requests a single object by id, e.g. one post for the MCP
// resource template.
func (c *Client) FetchItem(ctx context.Context, path string, id int) (map[string]any, error) {
	url := fmt.Sprintf("%s%s%s/%d", c.baseURL, c.langPrefix, path, id)
	body, _, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var item map[string]any
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decoding item %d: %w", id, err)
	}
	return item, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.Header, nil
}
