package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/forensic-cli/internal/config"
	"github.com/sells-group/forensic-cli/internal/model"
	"github.com/sells-group/forensic-cli/internal/resilience"
	"github.com/sells-group/forensic-cli/pkg/anthropic"
)

// Fact is a single numeric answer from the semantic tier.
type Fact struct {
	Value      float64
	Confidence float64
}

// Backend is the optional semantic extraction capability. A nil Backend
// means the extractor runs pattern-only; a failing Backend degrades to the
// same thing. Implementations must honor ctx cancellation.
type Backend interface {
	// Answer extracts the figure the question asks for from the document
	// text. Returns nil (no error) when the document does not state it.
	Answer(ctx context.Context, question, document string) (*Fact, error)
}

// questions holds the extraction question per attribute.
var questions = map[model.Attribute]string{
	model.AttrPromoterPledgingPct: "What percentage of promoter shares are pledged or encumbered?",
	model.AttrRevenue:             "What is the revenue from operations (total revenue) for the period?",
	model.AttrReceivables:         "What is the trade receivables (debtors) balance?",
	model.AttrInventory:           "What is the inventories balance?",
	model.AttrCFO:                 "What is the net cash generated from operating activities?",
	model.AttrEBITDA:              "What is the EBITDA (operating profit)?",
	model.AttrTotalAssets:         "What is the total assets figure on the balance sheet?",
	model.AttrNonCurrentAssets:    "What is the non-current assets figure?",
	model.AttrRPTVolume:           "What is the aggregate volume of related-party transactions?",
}

const backendSystemPrompt = `You extract numeric financial facts from annual report text.
Answer with a single JSON object: {"value": <number>, "confidence": <0..1>}.
The value must be the plain figure as stated, without units, currency symbols, or thousands separators.
If the document does not state the figure, answer {"value": null, "confidence": 0}.`

// AnthropicBackend implements Backend over the Anthropic messages API with
// a per-call timeout, retry on transient failures, and client-side rate
// limiting.
type AnthropicBackend struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	limiter   *rate.Limiter
	breaker   *resilience.CircuitBreaker
}

// NewAnthropicBackend builds the semantic tier from config. Returns nil
// when no API key is configured, which callers treat as "tier absent".
func NewAnthropicBackend(cfg config.AnthropicConfig, timeoutSecs int) *AnthropicBackend {
	if cfg.Key == "" {
		return nil
	}
	perSecond := cfg.RatePerS
	if perSecond <= 0 {
		perSecond = 2
	}
	timeout := time.Duration(timeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicBackend{
		client:    anthropic.NewClient(cfg.Key),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
		breaker:   resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	}
}

// backendAnswer is the JSON shape the model is instructed to return.
type backendAnswer struct {
	Value      *float64 `json:"value"`
	Confidence float64  `json:"confidence"`
}

// Answer implements Backend.
func (b *AnthropicBackend) Answer(ctx context.Context, question, document string) (*Fact, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "extract: rate limit wait")
	}

	// The document rides in a cached system block: a deep dive asks many
	// questions over the same text, and follow-ups hit the warm cache.
	req := anthropic.MessageRequest{
		Model:     b.model,
		MaxTokens: b.maxTokens,
		System: anthropic.BuildCachedSystemBlocks(
			backendSystemPrompt,
			fmt.Sprintf("<document>\n%s\n</document>", document),
		),
		Messages: []anthropic.Message{{Role: "user", Content: question}},
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "create_message")

	resp, err := resilience.ExecuteVal(ctx, b.breaker,
		func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return resilience.DoVal(ctx, retryCfg,
				func(ctx context.Context) (*anthropic.MessageResponse, error) {
					return b.client.CreateMessage(ctx, req)
				})
		})
	if err != nil {
		return nil, eris.Wrap(err, "extract: semantic backend")
	}
	resp.Usage.LogCost(b.model, "extract")

	return parseBackendAnswer(resp)
}

// parseBackendAnswer pulls the JSON object out of the first text block.
func parseBackendAnswer(resp *anthropic.MessageResponse) (*Fact, error) {
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, eris.New("extract: empty backend response")
	}

	// Tolerate prose around the object.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.Errorf("extract: no JSON object in backend response %q", text)
	}

	var ans backendAnswer
	if err := json.Unmarshal([]byte(text[start:end+1]), &ans); err != nil {
		return nil, eris.Wrap(err, "extract: parse backend answer")
	}
	if ans.Value == nil {
		return nil, nil // figure not stated; not an error
	}

	confidence := ans.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.9 // heuristic default for a stated answer
	}
	return &Fact{Value: *ans.Value, Confidence: confidence}, nil
}
