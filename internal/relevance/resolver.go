package relevance

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cheapcart/internal/llm"
	"cheapcart/internal/models"
)

const systemPrompt = "You are an assistant that filters grocery product names for recipes."

var ErrMalformedResponse = errors.New("malformed relevance response")

var (
	//go:embed shared_prompt.md
	sharedPrompt string
	//go:embed per_query_prompt.md
	perQueryPrompt string

	sharedTmpl   = template.Must(template.New("shared").Parse(sharedPrompt))
	perQueryTmpl = template.Must(template.New("perQuery").Parse(perQueryPrompt))
)

// Resolver narrows raw product candidates down to the ones an oracle judges
// relevant to each ingredient. Every call issues at most one oracle request.
// Any oracle failure yields no matches for the whole batch.
type Resolver struct {
	gen    llm.TextGenerator
	logger zerolog.Logger
}

func NewResolver(gen llm.TextGenerator) *Resolver {
	return &Resolver{
		gen:    gen,
		logger: log.With().Str("component", "relevance").Logger(),
	}
}

type group struct {
	Query   string
	Options []string
}

// FilterShared resolves many queries against one candidate pool, such as a
// cached store catalog. Every query is present in the result.
func (r *Resolver) FilterShared(ctx context.Context, pool []models.CatalogProduct, queries []string) map[string][]models.CatalogProduct {
	out := emptyResult(queries)
	if len(pool) == 0 || len(queries) == 0 {
		return out
	}

	var buf bytes.Buffer
	data := struct {
		Queries []string
		Options []string
	}{queries, uniqueNames(pool)}
	if err := sharedTmpl.Execute(&buf, data); err != nil {
		r.logger.Error().Err(err).Msg("failed to render prompt")
		return out
	}

	relevant, err := r.ask(ctx, buf.String())
	if err != nil {
		r.logger.Warn().Err(err).Int("queries", len(queries)).Msg("relevance lookup failed")
		return out
	}
	for _, q := range queries {
		out[q] = keepNamed(pool, relevant[q])
	}
	return out
}

// FilterRelevant resolves each query against its own candidate list, such as
// fresh store search results. Every query is present in the result.
func (r *Resolver) FilterRelevant(ctx context.Context, candidatesByQuery map[string][]models.CatalogProduct) map[string][]models.CatalogProduct {
	out := make(map[string][]models.CatalogProduct, len(candidatesByQuery))
	var groups []group
	for q, candidates := range candidatesByQuery {
		out[q] = []models.CatalogProduct{}
		if len(candidates) > 0 {
			groups = append(groups, group{Query: q, Options: uniqueNames(candidates)})
		}
	}
	if len(groups) == 0 {
		return out
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Query < groups[j].Query })

	var buf bytes.Buffer
	if err := perQueryTmpl.Execute(&buf, struct{ Groups []group }{groups}); err != nil {
		r.logger.Error().Err(err).Msg("failed to render prompt")
		return out
	}

	relevant, err := r.ask(ctx, buf.String())
	if err != nil {
		r.logger.Warn().Err(err).Int("queries", len(groups)).Msg("relevance lookup failed")
		return out
	}
	for q, candidates := range candidatesByQuery {
		out[q] = keepNamed(candidates, relevant[q])
	}
	return out
}

type verdict struct {
	ProductName      string   `json:"productName"`
	RelevantProducts []string `json:"relevantProducts"`
}

func (r *Resolver) ask(ctx context.Context, prompt string) (map[string]map[string]struct{}, error) {
	raw, err := r.gen.GenerateContent(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("oracle call: %w", err)
	}
	verdicts, err := parseVerdicts(raw)
	if err != nil {
		return nil, err
	}

	relevant := make(map[string]map[string]struct{}, len(verdicts))
	for _, v := range verdicts {
		names := relevant[v.ProductName]
		if names == nil {
			names = make(map[string]struct{}, len(v.RelevantProducts))
			relevant[v.ProductName] = names
		}
		for _, n := range v.RelevantProducts {
			names[n] = struct{}{}
		}
	}
	return relevant, nil
}

// parseVerdicts accepts either a bare array of verdicts or an object wrapping
// it under "results", optionally inside a markdown code fence.
func parseVerdicts(raw string) ([]verdict, error) {
	s := stripFence(raw)

	var verdicts []verdict
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &verdicts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return verdicts, nil
	}

	var wrapped struct {
		Results *[]verdict `json:"results"`
	}
	if err := json.Unmarshal([]byte(s), &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if wrapped.Results == nil {
		return nil, fmt.Errorf("%w: missing results", ErrMalformedResponse)
	}
	return *wrapped.Results, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func keepNamed(candidates []models.CatalogProduct, names map[string]struct{}) []models.CatalogProduct {
	kept := []models.CatalogProduct{}
	for _, c := range candidates {
		if _, ok := names[c.Name]; ok {
			kept = append(kept, c)
		}
	}
	return kept
}

func uniqueNames(products []models.CatalogProduct) []string {
	seen := make(map[string]struct{}, len(products))
	names := make([]string, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	return names
}

func emptyResult(queries []string) map[string][]models.CatalogProduct {
	out := make(map[string][]models.CatalogProduct, len(queries))
	for _, q := range queries {
		out[q] = []models.CatalogProduct{}
	}
	return out
}
