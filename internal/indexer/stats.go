package indexer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"fmfm/internal/storage"
)

// CoverageStats summarizes how much of the library is searchable.
type CoverageStats struct {
	// Entries is the number of registered entries.
	Entries int `json:"entries"`
	// Unrefreshed is the number of entries never refreshed (no page count yet).
	Unrefreshed int `json:"unrefreshed"`
	// EntriesWithoutRows is the number of entries with no index rows, such as image archives.
	EntriesWithoutRows int `json:"entries_without_rows"`
	// Rows is the total number of index rows.
	Rows int `json:"rows"`
	// RowsByFiletype breaks Rows down by entry filetype.
	RowsByFiletype map[string]int `json:"rows_by_filetype"`
	// TextLength holds character-count statistics over row texts.
	TextLength LengthStats `json:"text_length"`
}

// LengthStats contains statistics about row text lengths.
type LengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// Stats computes coverage statistics from the current store.
func (p *Pipeline) Stats(ctx context.Context) (*CoverageStats, error) {
	entries, _, err := p.books.List(ctx, storage.ListQuery{Sort: storage.SortNumberAsc})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	counts, err := p.index.RowCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	lengths, err := p.index.TextLengths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read row lengths: %w", err)
	}

	stats := &CoverageStats{
		Entries:        len(entries),
		RowsByFiletype: make(map[string]int),
		TextLength:     computeLengthStats(lengths),
	}
	for _, e := range entries {
		if e.PageCount == nil {
			stats.Unrefreshed++
		}
		n := counts[e.Number]
		if n == 0 {
			stats.EntriesWithoutRows++
		}
		stats.Rows += n
		stats.RowsByFiletype[e.Filetype] += n
	}
	return stats, nil
}

// computeLengthStats computes min, max, mean and p95 of lengths.
func computeLengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}

	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, n := range sorted {
		sum += n
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return LengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
