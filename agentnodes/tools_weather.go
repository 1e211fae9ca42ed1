package agentnodes

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dshills/reasoning-agent/graph/tool"
)

// WeatherTool is an illustrative tool.Tool that looks up current weather
// for a location. It delegates the actual HTTP round trip to
// tool.HTTPTool, overriding only Name() and the request shaping so the
// model-facing ToolSpec stays simple ({"location": "<city>"}).
type WeatherTool struct {
	http    *tool.HTTPTool
	baseURL string
}

// NewWeatherTool builds a WeatherTool that queries baseURL for weather
// data. baseURL is expected to accept a "?location=" query parameter and
// return JSON.
func NewWeatherTool(baseURL string) *WeatherTool {
	return &WeatherTool{http: tool.NewHTTPTool(), baseURL: baseURL}
}

// Name returns the tool identifier the router's ToolSpec must match.
func (w *WeatherTool) Name() string {
	return "get_weather"
}

// Call translates {"location": "..."} into a GET against w.baseURL and
// returns the raw HTTP response fields from tool.HTTPTool.
func (w *WeatherTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	location, ok := input["location"].(string)
	if !ok || location == "" {
		return nil, fmt.Errorf("weather tool: location parameter required")
	}

	return w.http.Call(ctx, map[string]interface{}{
		"method": "GET",
		"url":    fmt.Sprintf("%s?location=%s", w.baseURL, url.QueryEscape(location)),
	})
}
