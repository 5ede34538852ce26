package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index_store.go -package=mocks fmfm/internal/storage IndexStore

import (
	"context"
	"database/sql"
	"fmt"
)

// IndexStore defines the full-text index operations.
type IndexStore interface {
	// Replace deletes every row of number and inserts rows in their place.
	// Run it inside a transaction so the swap is atomic.
	Replace(ctx context.Context, number int64, rows []IndexRow) error
	// DeleteByNumber removes every row of number.
	DeleteByNumber(ctx context.Context, number int64) error
	// Match runs an FTS5 match expression and returns up to limit rows, best first.
	Match(ctx context.Context, expr string, limit int) ([]Hit, error)
	// Rows returns the rows of number ordered by position.
	Rows(ctx context.Context, number int64) ([]IndexRow, error)
	// RowCounts returns the number of rows per entry number.
	RowCounts(ctx context.Context) (map[int64]int, error)
	// TextLengths returns the plain text length in characters of every row.
	TextLengths(ctx context.Context) ([]int, error)
}

// IndexRepo implements IndexStore on the fts_index virtual table.
type IndexRepo struct {
	db DBTX
}

// NewIndexRepo creates an IndexRepo on a database or transaction handle.
func NewIndexRepo(db DBTX) *IndexRepo {
	return &IndexRepo{db: db}
}

func (r *IndexRepo) Replace(ctx context.Context, number int64, rows []IndexRow) error {
	if err := r.DeleteByNumber(ctx, number); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO fts_index (number, position, ngram_text, plain_text) VALUES (?, ?, ?, ?)",
			number, row.Position, row.NgramText, row.PlainText,
		); err != nil {
			return fmt.Errorf("failed to insert index row: %w", err)
		}
	}
	return nil
}

func (r *IndexRepo) DeleteByNumber(ctx context.Context, number int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM fts_index WHERE number = ?", number); err != nil {
		return fmt.Errorf("failed to delete index rows: %w", err)
	}
	return nil
}

func (r *IndexRepo) Match(ctx context.Context, expr string, limit int) ([]Hit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT number, position, ngram_text, plain_text, bm25(fts_index) AS score
		FROM fts_index WHERE fts_index MATCH ?
		ORDER BY score, rowid LIMIT ?`,
		expr, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to match index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var plain sql.NullString
		if err := rows.Scan(&h.Number, &h.Position, &h.NgramText, &plain, &h.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		h.PlainText = plain.String
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hits: %w", err)
	}
	return hits, nil
}

func (r *IndexRepo) Rows(ctx context.Context, number int64) ([]IndexRow, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT number, position, ngram_text, plain_text FROM fts_index WHERE number = ? ORDER BY position, rowid",
		number,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query index rows: %w", err)
	}
	defer rows.Close()

	var out []IndexRow
	for rows.Next() {
		var row IndexRow
		var plain sql.NullString
		if err := rows.Scan(&row.Number, &row.Position, &row.NgramText, &plain); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		row.PlainText = plain.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate index rows: %w", err)
	}
	return out, nil
}

func (r *IndexRepo) RowCounts(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT number, COUNT(*) FROM fts_index GROUP BY number")
	if err != nil {
		return nil, fmt.Errorf("failed to count index rows: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var number int64
		var n int
		if err := rows.Scan(&number, &n); err != nil {
			return nil, fmt.Errorf("failed to scan row count: %w", err)
		}
		counts[number] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate row counts: %w", err)
	}
	return counts, nil
}

func (r *IndexRepo) TextLengths(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT length(COALESCE(plain_text, '')) FROM fts_index")
	if err != nil {
		return nil, fmt.Errorf("failed to query text lengths: %w", err)
	}
	defer rows.Close()

	var lengths []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan text length: %w", err)
		}
		lengths = append(lengths, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate text lengths: %w", err)
	}
	return lengths, nil
}
