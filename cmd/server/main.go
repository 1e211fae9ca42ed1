// Command server wires up the reasoning-agent HTTP surface: it loads
// configuration, selects concrete KV/LLM/audit backends, builds the node
// graph, and serves the streaming run/cancel endpoints plus Prometheus
// metrics.
package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/dshills/reasoning-agent/agentnodes"
	"github.com/dshills/reasoning-agent/config"
	"github.com/dshills/reasoning-agent/graph"
	"github.com/dshills/reasoning-agent/graph/emit"
	"github.com/dshills/reasoning-agent/graph/model"
	"github.com/dshills/reasoning-agent/graph/model/anthropic"
	"github.com/dshills/reasoning-agent/graph/model/google"
	"github.com/dshills/reasoning-agent/graph/model/openai"
	"github.com/dshills/reasoning-agent/httpapi"
	"github.com/dshills/reasoning-agent/kvstore"
	"github.com/dshills/reasoning-agent/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	kv, err := buildKVClient(cfg)
	if err != nil {
		log.Fatalf("building kv client: %v", err)
	}

	chatModel := buildChatModel(cfg)

	emitter, err := buildEmitter(cfg)
	if err != nil {
		log.Fatalf("building emitter: %v", err)
	}

	auditStore, err := buildAuditStore(cfg)
	if err != nil {
		log.Fatalf("building audit store: %v", err)
	}
	defer func() { _ = auditStore.Close() }()

	registry := prometheus.NewRegistry()
	metrics := graph.NewPrometheusMetrics(registry)

	g, err := buildGraph(chatModel, cfg.LLMModelID)
	if err != nil {
		log.Fatalf("building graph: %v", err)
	}

	exe := graph.NewExecutor(g, metrics, graph.WithMaxNodes(40))

	srv := &httpapi.Server{
		Executor:       exe,
		KV:             kv,
		Emitter:        emitter,
		Audit:          auditStore,
		RouterNodeID:   "router",
		ToolExecNodeID: "toolexec",
		CostCurrency:   "USD",
	}

	mux := http.NewServeMux()
	mux.Handle("/", srv.Routes())
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		log.Printf("reasoning-agent listening on %s", cfg.HTTPAddr)
		if err := http.ListenAndServe(cfg.HTTPAddr, mux); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Println("shutting down")
}

func buildKVClient(cfg config.Config) (kvstore.Client, error) {
	if cfg.RedisHost == "" {
		return kvstore.NewMemClient(), nil
	}
	return kvstore.NewRedisClient(cfg.RedisHost)
}

func buildChatModel(cfg config.Config) model.ChatModel {
	switch {
	case strings.HasPrefix(cfg.LLMModelID, "claude"):
		return anthropic.NewChatModel(cfg.LLMAPIKey, cfg.LLMModelID)
	case strings.HasPrefix(cfg.LLMModelID, "gemini"):
		return google.NewChatModel(cfg.LLMAPIKey, cfg.LLMModelID)
	default:
		return openai.NewChatModel(cfg.LLMAPIKey, cfg.LLMModelID)
	}
}

func buildEmitter(cfg config.Config) (emit.Emitter, error) {
	switch cfg.LLMObservabilityLibrary {
	case "log":
		return emit.NewLogEmitter(os.Stdout, true), nil
	case "otel":
		tracer := otel.Tracer("reasoning-agent")
		return emit.NewOTelEmitter(tracer), nil
	default:
		return emit.NewNullEmitter(), nil
	}
}

func buildAuditStore(cfg config.Config) (store.AuditStore, error) {
	if cfg.AuditSQLitePath != "" {
		return store.NewSQLiteStore(cfg.AuditSQLitePath)
	}
	if cfg.AuditDSN != "" {
		return store.NewMySQLStore(cfg.AuditDSN)
	}
	return store.NewMemStore(), nil
}

// buildGraph wires the concrete agentnodes implementations into the node
// graph: router <-> toolexec, with customerresponse as the terminal node
// off the router's final_text branch. nlconvert and widget are not wired.
func buildGraph(chatModel model.ChatModel, modelID string) (*graph.Graph, error) {
	g := graph.New()

	tools := []model.ToolSpec{
		{
			Name:        "get_weather",
			Description: "Get current weather for a location",
			Schema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"location": map[string]interface{}{"type": "string", "description": "City name"},
				},
			},
		},
		{
			Name:        "search_catalog",
			Description: "Search the product catalog",
			Schema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{"type": "string", "description": "Search term"},
				},
			},
		},
	}

	router := &agentnodes.RouterNode{
		Model:        chatModel,
		ModelName:    modelID,
		Tools:        tools,
		ToolNodeID:   "toolexec",
		ResponseNode: "customerresponse",
	}
	toolexec := agentnodes.NewToolExecNode("router", 6,
		agentnodes.NewWeatherTool(os.Getenv("WEATHER_API_BASE_URL")),
		agentnodes.NewCatalogTool(os.Getenv("CATALOG_API_BASE_URL")),
	)
	response := &agentnodes.CustomerResponseNode{}

	if err := g.AddNode("router", router); err != nil {
		return nil, err
	}
	if err := g.AddNode("toolexec", toolexec); err != nil {
		return nil, err
	}
	if err := g.AddNode("customerresponse", response); err != nil {
		return nil, err
	}

	g.AddEdge("router", "toolexec")
	g.AddEdge("router", "customerresponse")
	g.AddEdge("toolexec", "router")

	return g, nil
}
