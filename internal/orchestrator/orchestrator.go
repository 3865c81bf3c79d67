// Package orchestrator runs user queries about a video through the
// model catalog: validate, check the response cache, prepare the
// transcript context, dispatch to the provider, and post-process.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vidsage/vidsage/internal/classify"
	"github.com/vidsage/vidsage/internal/llm"
	"github.com/vidsage/vidsage/internal/promptctx"
	"github.com/vidsage/vidsage/internal/respcache"
	"github.com/vidsage/vidsage/internal/syncmark"
	"github.com/vidsage/vidsage/internal/transcript"
)

// ErrModelUnavailable is returned for model IDs the catalog does not
// offer with the configured credentials.
var ErrModelUnavailable = errors.New("orchestrator: model not available")

// Request is one user query about a video.
type Request struct {
	SessionID  string
	ModelID    string
	Query      string
	Transcript *transcript.Transcript
	EnableSync bool
}

// Metadata describes how a result was produced.
type Metadata struct {
	ModelID        string             `json:"model_id"`
	ModelName      string             `json:"model_name"`
	Provider       llm.Provider       `json:"provider"`
	QueryType      classify.QueryType `json:"query_type"`
	ProcessingTime float64            `json:"processing_time"`
	SyncEnabled    bool               `json:"sync_enabled"`
	Cached         bool               `json:"cached"`
	InputTokens    int                `json:"input_tokens,omitempty"`
	OutputTokens   int                `json:"output_tokens,omitempty"`
}

// Result is a completed query response.
type Result struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Orchestrator coordinates the catalog, the response cache, and prompt
// construction.
type Orchestrator struct {
	catalog *llm.Catalog
	cache   *respcache.Cache[Result]
	logger  *slog.Logger
}

// New creates an orchestrator over a catalog and response cache.
func New(catalog *llm.Catalog, cache *respcache.Cache[Result], logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		catalog: catalog,
		cache:   cache,
		logger:  logger,
	}
}

// modelUnavailable builds the rejection for an unknown or unconfigured
// model, naming the IDs the caller could have used.
func (o *Orchestrator) modelUnavailable(modelID string) error {
	ids := make([]string, 0, len(o.catalog.Models()))
	for _, m := range o.catalog.Models() {
		ids = append(ids, m.ID)
	}
	return fmt.Errorf("%w: %s (available: %s)", ErrModelUnavailable, modelID, strings.Join(ids, ", "))
}

// Query runs one request end to end. A cache hit skips the provider
// dispatch entirely and is marked as cached in the result metadata.
func (o *Orchestrator) Query(ctx context.Context, req Request) (*Result, error) {
	// Validate.
	if req.Query == "" {
		return nil, fmt.Errorf("orchestrator: query is required")
	}
	model, ok := o.catalog.Lookup(req.ModelID)
	if !ok {
		return nil, o.modelUnavailable(req.ModelID)
	}
	client, ok := o.catalog.ClientFor(req.ModelID)
	if !ok {
		return nil, o.modelUnavailable(req.ModelID)
	}

	// Cache check.
	key := respcache.Key(req.SessionID, req.ModelID, req.Query, fingerprintOf(req.Transcript))
	if cached, ok := o.cache.Get(key); ok {
		o.logger.Info("cache hit",
			"model", req.ModelID,
			"query_type", cached.Metadata.QueryType,
		)
		cached.Metadata.Cached = true
		return &cached, nil
	}

	// Context preparation.
	queryType := classify.Classify(req.Query)
	contextBlock := promptctx.Build(req.Transcript, req.Query, model.ContextTokens)
	syncOn := req.EnableSync && model.SupportsTimestamps

	// Dispatch.
	start := time.Now()
	resp, err := client.Generate(ctx, llm.Request{
		Model:     req.ModelID,
		System:    systemPrompt,
		Prompt:    buildPrompt(contextBlock, req.Query, queryType, syncOn),
		MaxTokens: model.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	// Post-process.
	text := resp.Text
	if syncOn {
		text = syncmark.Annotate(text)
	}

	result := Result{
		Text: text,
		Metadata: Metadata{
			ModelID:        req.ModelID,
			ModelName:      model.Name,
			Provider:       model.Provider,
			QueryType:      queryType,
			ProcessingTime: elapsed.Seconds(),
			SyncEnabled:    syncOn,
			InputTokens:    resp.InputTokens,
			OutputTokens:   resp.OutputTokens,
		},
	}

	o.cache.Put(key, result)

	o.logger.Info("query complete",
		"model", req.ModelID,
		"query_type", queryType,
		"duration", elapsed,
		"output_tokens", resp.OutputTokens,
	)

	return &result, nil
}

// Comparison is the outcome of one model in a CompareModels run.
type Comparison struct {
	ModelID string  `json:"model_id"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// CompareModels runs the same query through several models and
// collects per-model outcomes. A failing model does not abort the
// others.
func (o *Orchestrator) CompareModels(ctx context.Context, req Request, modelIDs []string) []Comparison {
	out := make([]Comparison, 0, len(modelIDs))
	for _, id := range modelIDs {
		r := req
		r.ModelID = id

		res, err := o.Query(ctx, r)
		c := Comparison{ModelID: id, Result: res}
		if err != nil {
			c.Error = err.Error()
		}
		out = append(out, c)
	}
	return out
}

// Recommend proxies the catalog's per-query-type model recommendations.
func (o *Orchestrator) Recommend(query string) (classify.QueryType, []string) {
	qt := classify.Classify(query)
	return qt, o.catalog.Recommend(string(qt))
}

func fingerprintOf(tr *transcript.Transcript) string {
	if tr == nil {
		return ""
	}
	return tr.Fingerprint()
}
