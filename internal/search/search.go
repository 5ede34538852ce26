// Package search runs full-text queries against the index and merges them
// with title matches into per-entry excerpts.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fmfm/internal/contextutil"
	"fmfm/internal/service"
	"fmfm/internal/storage"
	"fmfm/internal/tokenizer"
)

const (
	// DefaultLimit caps the number of index rows read per query.
	DefaultLimit = 1000
	// DefaultPerPage is the number of entries per result page.
	DefaultPerPage = 5

	// TitlePosition is the position of the synthetic title-match excerpt.
	// It sorts before every real page.
	TitlePosition = -1
	// TitleMatchText is the excerpt shown for a title match.
	TitleMatchText = "[Document Title matches]"
)

// Excerpt is the context shown for one matching page or chunk.
type Excerpt struct {
	Position float64 `json:"position"`
	Text     string  `json:"text"`
}

// Result is one matching entry with its excerpts ordered by position.
type Result struct {
	Number   int64     `json:"number"`
	Title    string    `json:"title"`
	Excerpts []Excerpt `json:"excerpts"`
}

// Page is one page of results and the total number of matching entries.
type Page struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
}

// Request describes one search.
type Request struct {
	Query   string
	Tag     string
	Page    int
	PerPage int
}

// Searcher answers queries from the book and index stores.
type Searcher struct {
	books storage.BookStore
	index storage.IndexStore
	limit int
}

// New creates a Searcher reading at most limit index rows per query.
func New(books storage.BookStore, index storage.IndexStore, limit int) *Searcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Searcher{books: books, index: index, limit: limit}
}

// Search returns the requested page of entries matching req.Query. Entries
// are ordered by their best text hit, followed by entries matching only by
// title. The tag filter applies to both kinds of match.
func (s *Searcher) Search(ctx context.Context, req Request) (*Page, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := tokenizer.NormalizeQuery(req.Query)
	expr := tokenizer.MatchExpression(query)
	if expr == "" {
		return nil, service.ErrEmptyQuery
	}

	candidates, _, err := s.books.List(ctx, storage.ListQuery{Tag: req.Tag})
	if err != nil {
		return nil, service.StoreFailure("list entries", err)
	}

	hits, err := s.index.Match(ctx, expr, s.limit)
	if err != nil {
		return nil, service.StoreFailure("match index", err)
	}

	results := Merge(query, hits, candidates)
	logger.DebugContext(ctx, "search", "query", query, "tag", req.Tag, "hits", len(hits), "entries", len(results))

	return paginate(results, req.Page, req.PerPage), nil
}

// Merge groups hits by entry and adds title matches. Hits on entries outside
// candidates, or whose text does not contain any query term, are dropped.
func Merge(query string, hits []storage.Hit, candidates []storage.Entry) []Result {
	titles := make(map[int64]string, len(candidates))
	for _, e := range candidates {
		titles[e.Number] = e.Title
	}

	var results []Result
	byNumber := make(map[int64]int)
	seen := make(map[int64]map[float64]bool)

	for _, h := range hits {
		title, ok := titles[h.Number]
		if !ok {
			continue
		}
		text := h.PlainText
		if text == "" {
			text = tokenizer.UnBigram(h.NgramText)
		}
		excerpt := tokenizer.HitExcerpt(text, query)
		if excerpt == "..." {
			continue
		}

		i, ok := byNumber[h.Number]
		if !ok {
			i = len(results)
			byNumber[h.Number] = i
			results = append(results, Result{Number: h.Number, Title: title})
			seen[h.Number] = make(map[float64]bool)
		}
		if seen[h.Number][h.Position] {
			continue
		}
		seen[h.Number][h.Position] = true
		results[i].Excerpts = append(results[i].Excerpts, Excerpt{Position: h.Position, Text: excerpt})
	}

	lowered := strings.ToLower(query)
	for _, e := range candidates {
		if !strings.Contains(strings.ToLower(e.Title), lowered) {
			continue
		}
		i, ok := byNumber[e.Number]
		if !ok {
			i = len(results)
			byNumber[e.Number] = i
			results = append(results, Result{Number: e.Number, Title: e.Title})
		}
		results[i].Excerpts = append(results[i].Excerpts, Excerpt{Position: TitlePosition, Text: TitleMatchText})
	}

	for i := range results {
		sort.SliceStable(results[i].Excerpts, func(a, b int) bool {
			return results[i].Excerpts[a].Position < results[i].Excerpts[b].Position
		})
	}
	return results
}

func paginate(results []Result, page, perPage int) *Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	out := &Page{Total: len(results), Page: page, PerPage: perPage, Results: []Result{}}

	start := (page - 1) * perPage
	if start >= len(results) {
		return out
	}
	end := start + perPage
	if end > len(results) {
		end = len(results)
	}
	out.Results = results[start:end]
	return out
}

// String renders a result the way the CLI prints it.
func (r Result) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d: %s", r.Number, r.Title)
	for _, e := range r.Excerpts {
		if e.Position == TitlePosition {
			fmt.Fprintf(&sb, "\n  %s", e.Text)
			continue
		}
		fmt.Fprintf(&sb, "\n  [%g] %s", e.Position, e.Text)
	}
	return sb.String()
}
