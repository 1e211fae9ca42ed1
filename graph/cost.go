package graph

import (
	"fmt"
	"sync"
	"time"
)

// ModelPricing defines input and output token costs for LLM models.
// Prices are in USD per 1M tokens.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// Static pricing map for major LLM providers (as of 2025-01-01). Update
// this table as providers adjust pricing.
var defaultModelPricing = map[string]ModelPricing{
	"gpt-4o":                 {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-2024-08-06":      {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":            {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4-turbo":            {InputPer1M: 10.00, OutputPer1M: 30.00},
	"gpt-4-turbo-2024-04-09": {InputPer1M: 10.00, OutputPer1M: 30.00},
	"gpt-3.5-turbo":          {InputPer1M: 0.50, OutputPer1M: 1.50},

	"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3.5-sonnet":          {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-opus-20240229":     {InputPer1M: 15.00, OutputPer1M: 75.00},
	"claude-3-opus":              {InputPer1M: 15.00, OutputPer1M: 75.00},
	"claude-3-sonnet-20240229":   {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-sonnet":            {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},
	"claude-3-haiku":             {InputPer1M: 0.25, OutputPer1M: 1.25},

	"gemini-1.5-pro":       {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-pro-001":   {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash":     {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-1.5-flash-001": {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-1.0-pro":       {InputPer1M: 0.50, OutputPer1M: 1.50},
}

// LLMCall records a single LLM invocation made by a node during a task.
type LLMCall struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
	NodeID       string
}

// CostTracker accumulates the USD cost of LLM calls made over the course
// of one task's traversal. One tracker is created per task and threaded
// through ExecContext.Cost so any node along the path can attribute spend
// back to the task that triggered it.
type CostTracker struct {
	TaskID   string
	Currency string

	Pricing map[string]ModelPricing

	mu           sync.RWMutex
	calls        []LLMCall
	totalCost    float64
	modelCosts   map[string]float64
	inputTokens  int64
	outputTokens int64
	enabled      bool
}

// NewCostTracker creates a cost tracker for taskID using the default
// pricing table.
func NewCostTracker(taskID, currency string) *CostTracker {
	return &CostTracker{
		TaskID:     taskID,
		Currency:   currency,
		Pricing:    defaultModelPricing,
		calls:      make([]LLMCall, 0, 8),
		modelCosts: make(map[string]float64),
		enabled:    true,
	}
}

// RecordLLMCall looks up model's per-token pricing, computes the cost of
// this call, and folds it into the tracker's running totals. An unpriced
// model is recorded at zero cost rather than rejected, so an unexpected
// provider model name never breaks a running traversal.
func (ct *CostTracker) RecordLLMCall(model string, inputTokens, outputTokens int, nodeID string) {
	if ct == nil || !ct.enabled {
		return
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	pricing, ok := ct.Pricing[model]
	if !ok {
		pricing = ModelPricing{}
	}

	inputCost := (float64(inputTokens) / 1_000_000.0) * pricing.InputPer1M
	outputCost := (float64(outputTokens) / 1_000_000.0) * pricing.OutputPer1M
	total := inputCost + outputCost

	ct.calls = append(ct.calls, LLMCall{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      total,
		Timestamp:    time.Now(),
		NodeID:       nodeID,
	})

	ct.totalCost += total
	ct.modelCosts[model] += total
	ct.inputTokens += int64(inputTokens)
	ct.outputTokens += int64(outputTokens)
}

// TotalCost returns the cumulative cost recorded so far.
func (ct *CostTracker) TotalCost() float64 {
	if ct == nil {
		return 0
	}
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.totalCost
}

// CostByModel returns a copy of the per-model cost breakdown.
func (ct *CostTracker) CostByModel() map[string]float64 {
	if ct == nil {
		return map[string]float64{}
	}
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	out := make(map[string]float64, len(ct.modelCosts))
	for model, cost := range ct.modelCosts {
		out[model] = cost
	}
	return out
}

// CallHistory returns a copy of every call recorded so far, in order.
func (ct *CostTracker) CallHistory() []LLMCall {
	if ct == nil {
		return nil
	}
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	out := make([]LLMCall, len(ct.calls))
	copy(out, ct.calls)
	return out
}

// TokenUsage returns total input and output token counts across all calls.
func (ct *CostTracker) TokenUsage() (inputTokens, outputTokens int64) {
	if ct == nil {
		return 0, 0
	}
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.inputTokens, ct.outputTokens
}

// SetCustomPricing overrides the default pricing table for one model.
func (ct *CostTracker) SetCustomPricing(model string, inputPer1M, outputPer1M float64) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.Pricing == nil {
		ct.Pricing = make(map[string]ModelPricing)
	}
	ct.Pricing[model] = ModelPricing{InputPer1M: inputPer1M, OutputPer1M: outputPer1M}
}

// String returns a human-readable summary, useful in logs at task completion.
func (ct *CostTracker) String() string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	return fmt.Sprintf("CostTracker{TaskID: %s, Calls: %d, TotalCost: $%.4f %s}",
		ct.TaskID, len(ct.calls), ct.totalCost, ct.Currency)
}
