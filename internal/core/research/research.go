// Package research implements Deep Research (spec.md §4.10): a two-phase
// pipeline invoked as a tool — web acquisition via the Browser driver's
// stealth tabs, then LLM synthesis into a cited markdown report. Grounded
// on the teacher's web-fetch tool pattern (nevindra-oasis's readability
// extraction) and the core's own browser/ai packages for the rest.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/yuin/goldmark"

	"github.com/agentcore/core/internal/core/ai"
	"github.com/agentcore/core/internal/core/browser"
	"github.com/agentcore/core/internal/core/types"
)

const (
	maxBodyCharsPerPage      = 8000
	maxBodyCharsForSynthesis = 2500
	minPacingDelay           = 2000 * time.Millisecond
	maxPacingJitter          = 1000 * time.Millisecond
	defaultFollowDepth       = 5
)

// Source is one page the pipeline visited.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Body    string `json:"body"`
	Read    bool   `json:"read"`
}

// Report is the structured result of Run, before markdown formatting.
type Report struct {
	Synthesis         string   `json:"synthesis"`
	KeyFindings       []string `json:"key_findings"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Sources           []Source `json:"sources"`
}

// Pipeline runs deep research against an optional Browser driver and an
// LLM Provider. If driver is nil, Run falls back to the provider's
// built-in web-search capability as a second-class path.
type Pipeline struct {
	driver   *browser.Driver
	provider ai.Provider
	model    string
}

// NewPipeline constructs a Pipeline. driver may be nil.
func NewPipeline(driver *browser.Driver, provider ai.Provider, model string) *Pipeline {
	return &Pipeline{driver: driver, provider: provider, model: model}
}

// Run executes the two-phase pipeline for query at the given depth
// (1 = shallow fewer sources, higher = broader) and returns the formatted
// markdown report.
func (p *Pipeline) Run(ctx context.Context, query string, depth int) (string, error) {
	if depth <= 0 {
		depth = defaultFollowDepth
	}

	var sources []Source
	var err error
	if p.driver != nil {
		sources, err = p.acquireViaBrowser(ctx, query, depth)
	}
	if p.driver == nil || err != nil || len(sources) == 0 {
		sources, err = p.acquireViaWebSearch(ctx, query, depth)
		if err != nil {
			return "", fmt.Errorf("research: acquisition failed: %w", err)
		}
	}

	report, err := p.synthesize(ctx, query, sources)
	if err != nil {
		return "", fmt.Errorf("research: synthesis failed: %w", err)
	}
	report.Sources = sources

	return formatMarkdown(query, report)
}

// acquireViaBrowser fans out 3-8 diverse queries, opens a stealth tab per
// query on a major search engine, extracts result listings, dedups by URL,
// then visits the top depth results (at least 3 when that many exist, at
// most 8) and extracts readable text.
func (p *Pipeline) acquireViaBrowser(ctx context.Context, query string, depth int) ([]Source, error) {
	queries := p.expandQueries(ctx, query)

	seen := make(map[string]bool)
	var candidates []Source

	for _, q := range queries {
		tab, err := p.driver.StealthOpen("https://www.google.com/search?q=" + url.QueryEscape(q))
		if err != nil {
			continue
		}
		pace(ctx)

		listing, err := tab.Snapshot()
		if err == nil {
			for _, link := range extractResultLinks(listing) {
				if seen[link] {
					continue
				}
				seen[link] = true
				candidates = append(candidates, Source{URL: link})
			}
		}
		_ = p.driver.CloseTab(tab.ID)
	}

	visitCount := depth
	if visitCount > len(candidates) {
		visitCount = len(candidates)
	}
	if visitCount > 8 {
		visitCount = 8
	}
	if visitCount < 3 && len(candidates) >= 3 {
		visitCount = 3
	}

	var sources []Source
	for i := 0; i < visitCount; i++ {
		c := candidates[i]
		tab, err := p.driver.StealthOpen(c.URL)
		if err != nil {
			continue
		}
		pace(ctx)

		title, body := extractReadableText(tab, c.URL)
		_ = p.driver.CloseTab(tab.ID)

		sources = append(sources, Source{
			URL: c.URL, Title: title,
			Snippet: truncate(body, 280),
			Body:    truncate(body, maxBodyCharsPerPage),
			Read:    body != "",
		})
	}
	return sources, nil
}

// expandQueries asks the LLM for 3-8 diverse search angles on query,
// falling back to a fixed derivation if the call fails or returns nothing
// usable.
func (p *Pipeline) expandQueries(ctx context.Context, query string) []string {
	req := &ai.ChatRequest{
		Model:  p.model,
		System: "Return a JSON array of 3 to 8 diverse web search queries that together would thoroughly research the user's question. Respond with only the JSON array.",
		Messages: []types.Message{{
			Role:    types.RoleUser,
			Content: []types.ContentBlock{{Kind: types.BlockText, Text: query}},
		}},
	}

	text, err := ai.CollectText(ctx, p.provider, req)
	if err == nil {
		var qs []string
		if jsonErr := json.Unmarshal([]byte(extractJSONArray(text)), &qs); jsonErr == nil && len(qs) > 0 {
			return qs
		}
	}

	return fallbackQueryDerivation(query)
}

func fallbackQueryDerivation(query string) []string {
	return []string{
		query,
		query + " overview",
		query + " latest",
		query + " explained",
	}
}

// acquireViaWebSearch falls back to the LLM's built-in web-search
// capability when Chrome/the Browser driver is unavailable.
func (p *Pipeline) acquireViaWebSearch(ctx context.Context, query string, depth int) ([]Source, error) {
	req := &ai.ChatRequest{
		Model:  p.model,
		System: "Use web search to gather information relevant to the user's question. Summarize each source you find with its URL, title, and a short extract.",
		Messages: []types.Message{{
			Role:    types.RoleUser,
			Content: []types.ContentBlock{{Kind: types.BlockText, Text: query}},
		}},
	}
	text, err := ai.CollectText(ctx, p.provider, req)
	if err != nil {
		return nil, err
	}
	return []Source{{URL: "", Title: "model web search", Body: text, Snippet: truncate(text, 280), Read: true}}, nil
}

func (p *Pipeline) synthesize(ctx context.Context, query string, sources []Source) (Report, error) {
	var sb strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&sb, "[Source %d] %s (%s)\n%s\n\n", i+1, s.Title, s.URL, truncate(s.Body, maxBodyCharsForSynthesis))
	}

	req := &ai.ChatRequest{
		Model: p.model,
		System: "Synthesize the provided sources into a research answer. Respond with JSON " +
			`{"synthesis": "...", "key_findings": ["..."], "follow_up_questions": ["..."]}. ` +
			"Cite sources inline as [Source N].",
		Messages: []types.Message{{
			Role: types.RoleUser,
			Content: []types.ContentBlock{{
				Kind: types.BlockText,
				Text: fmt.Sprintf("Question: %s\n\nSources:\n%s", query, sb.String()),
			}},
		}},
	}

	text, err := ai.CollectText(ctx, p.provider, req)
	if err != nil {
		return Report{}, err
	}

	var report Report
	if jsonErr := json.Unmarshal([]byte(extractJSONArray(text)), &report); jsonErr != nil {
		report.Synthesis = text
	}
	return report, nil
}

func extractJSONArray(text string) string {
	start := strings.IndexAny(text, "[{")
	end := strings.LastIndexAny(text, "]}")
	if start < 0 || end < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// pace inserts a human-like delay between browser navigations: a 2.0s
// base plus up to 1.0s of jitter, the way a scripted crawler avoids tripping rate limits
// tuned for human browsing cadence.
func pace(ctx context.Context) {
	delay := minPacingDelay + time.Duration(rand.Int63n(int64(maxPacingJitter)))
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// extractResultLinks pulls href-bearing link lines out of a rendered
// snapshot listing — a crude but dependency-free stand-in for parsing the
// search engine's actual result markup, since the snapshot already reduced
// the DOM to role-tagged lines.
func extractResultLinks(snapshot string) []string {
	var out []string
	for _, line := range strings.Split(snapshot, "\n") {
		if !strings.Contains(line, "link") {
			continue
		}
		if idx := strings.Index(line, "http"); idx >= 0 {
			end := strings.IndexAny(line[idx:], " \"]")
			if end < 0 {
				end = len(line) - idx
			}
			out = append(out, line[idx:idx+end])
		}
	}
	return out
}

// extractReadableText runs go-readability over the tab's accessibility
// snapshot text (not the page HTML), falling back to that snapshot text
// itself if extraction fails or yields nothing.
func extractReadableText(tab *browser.Tab, pageURL string) (title, body string) {
	html, err := tab.Snapshot()
	if err != nil {
		return "", ""
	}
	parsed, _ := url.Parse(pageURL)
	article, rErr := readability.FromReader(strings.NewReader(html), parsed)
	if rErr == nil && article.TextContent != "" {
		return article.Title, article.TextContent
	}
	return "", html
}

// formatMarkdown lays out the final report per spec.md §4.10: synthesis,
// key findings, sources with read-status markers, follow-up questions. The
// assembled text is rendered once through goldmark and any rendering error
// is returned; goldmark accepts any input, so malformed markdown (unbalanced
// fences, broken link syntax) is not rejected here.
func formatMarkdown(query string, r Report) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Research: %s\n\n", query)
	fmt.Fprintf(&sb, "## Synthesis\n\n%s\n\n", r.Synthesis)

	if len(r.KeyFindings) > 0 {
		sb.WriteString("## Key Findings\n\n")
		for _, f := range r.KeyFindings {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
		sb.WriteString("\n")
	}

	if len(r.Sources) > 0 {
		sb.WriteString("## Sources\n\n")
		for i, s := range r.Sources {
			status := "unread"
			if s.Read {
				status = "read"
			}
			fmt.Fprintf(&sb, "%d. [%s](%s) — %s\n", i+1, orDefault(s.Title, s.URL), s.URL, status)
		}
		sb.WriteString("\n")
	}

	if len(r.FollowUpQuestions) > 0 {
		sb.WriteString("## Follow-up Questions\n\n")
		for _, q := range r.FollowUpQuestions {
			fmt.Fprintf(&sb, "- %s\n", q)
		}
	}

	md := sb.String()
	if err := goldmark.Convert([]byte(md), &strings.Builder{}); err != nil {
		return "", fmt.Errorf("research: assembled report failed markdown validation: %w", err)
	}
	return md, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
