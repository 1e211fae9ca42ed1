package agentnodes

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dshills/reasoning-agent/graph/tool"
)

// CatalogTool is an illustrative tool.Tool that looks up a product by SKU
// or search term against an e-commerce catalog API, again delegating the
// actual request to tool.HTTPTool.
type CatalogTool struct {
	http    *tool.HTTPTool
	baseURL string
}

// NewCatalogTool builds a CatalogTool querying baseURL for product data.
func NewCatalogTool(baseURL string) *CatalogTool {
	return &CatalogTool{http: tool.NewHTTPTool(), baseURL: baseURL}
}

// Name returns the tool identifier the router's ToolSpec must match.
func (c *CatalogTool) Name() string {
	return "search_catalog"
}

// Call translates {"query": "..."} into a GET against c.baseURL.
func (c *CatalogTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	query, ok := input["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("catalog tool: query parameter required")
	}

	return c.http.Call(ctx, map[string]interface{}{
		"method": "GET",
		"url":    fmt.Sprintf("%s?q=%s", c.baseURL, url.QueryEscape(query)),
	})
}
