package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_book_store.go -package=mocks fmfm/internal/storage BookStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateHash is returned when a content hash is already registered.
	ErrDuplicateHash = errors.New("content hash already registered")
)

// BookStore defines the entry storage operations.
type BookStore interface {
	// Get returns the entry or ErrNotFound.
	Get(ctx context.Context, number int64) (*Entry, error)
	// FindByHash returns the live entries with the given content hash.
	FindByHash(ctx context.Context, hash string) ([]Entry, error)
	// Insert creates an entry and returns its newly allocated number.
	// Returns ErrDuplicateHash if the hash is taken.
	Insert(ctx context.Context, title, filetype, hash string) (int64, error)
	// SetName sets the title and filetype derived after number allocation.
	SetName(ctx context.Context, number int64, title, filetype string) error
	// Apply writes all set fields of changes in one statement.
	Apply(ctx context.Context, number int64, changes EntryChanges) error
	// Delete removes the entry and returns its filetype, or ErrNotFound.
	Delete(ctx context.Context, number int64) (string, error)
	// List returns a page of entries and the total number of matches.
	List(ctx context.Context, q ListQuery) ([]Entry, int, error)
	// Numbers returns every entry number in ascending order.
	Numbers(ctx context.Context) ([]int64, error)
	// Tags returns the sorted distinct tags of all entries.
	Tags(ctx context.Context) ([]string, error)
}

// BookRepo implements BookStore on the books table.
type BookRepo struct {
	db DBTX
}

// NewBookRepo creates a BookRepo on a database or transaction handle.
func NewBookRepo(db DBTX) *BookRepo {
	return &BookRepo{db: db}
}

const entryColumns = `number, title, filetype, content_hash, tags, page_count, spread, right_to_left, hidden, CAST(created_at AS TEXT)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e                           Entry
		pageCount                   sql.NullInt64
		spread, rightToLeft, hidden sql.NullBool
		createdAt                   sql.NullString
	)
	if err := row.Scan(&e.Number, &e.Title, &e.Filetype, &e.ContentHash, &e.Tags,
		&pageCount, &spread, &rightToLeft, &hidden, &createdAt); err != nil {
		return nil, err
	}

	if pageCount.Valid {
		n := int(pageCount.Int64)
		e.PageCount = &n
	}
	e.Spread = nullBoolPtr(spread)
	e.RightToLeft = nullBoolPtr(rightToLeft)
	e.Hidden = nullBoolPtr(hidden)
	if createdAt.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt.String); err == nil {
			e.CreatedAt = t
		}
	}
	return &e, nil
}

func nullBoolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}

func (r *BookRepo) Get(ctx context.Context, number int64) (*Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM books WHERE number = ?", number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}
	return e, nil
}

func (r *BookRepo) FindByHash(ctx context.Context, hash string) ([]Entry, error) {
	return r.query(ctx, "SELECT "+entryColumns+" FROM books WHERE content_hash = ? ORDER BY number", hash)
}

func (r *BookRepo) Insert(ctx context.Context, title, filetype, hash string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO books (title, filetype, content_hash) VALUES (?, ?, ?)",
		title, filetype, hash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateHash
		}
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	number, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get entry number: %w", err)
	}
	return number, nil
}

func (r *BookRepo) SetName(ctx context.Context, number int64, title, filetype string) error {
	return r.exec(ctx, "UPDATE books SET title = ?, filetype = ? WHERE number = ?", title, filetype, number)
}

func (r *BookRepo) Apply(ctx context.Context, number int64, changes EntryChanges) error {
	if changes.Empty() {
		return nil
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if changes.Title != nil {
		add("title", *changes.Title)
	}
	if changes.Tags != nil {
		add("tags", *changes.Tags)
	}
	if changes.ContentHash != nil {
		add("content_hash", *changes.ContentHash)
	}
	if changes.PageCount != nil {
		add("page_count", *changes.PageCount)
	}
	if changes.Spread != nil {
		add("spread", *changes.Spread)
	}
	if changes.RightToLeft != nil {
		add("right_to_left", *changes.RightToLeft)
	}
	if changes.Hidden != nil {
		add("hidden", *changes.Hidden)
	}
	args = append(args, number)

	err := r.exec(ctx, "UPDATE books SET "+strings.Join(sets, ", ")+" WHERE number = ?", args...)
	if isUniqueViolation(err) {
		return ErrDuplicateHash
	}
	return err
}

func (r *BookRepo) Delete(ctx context.Context, number int64) (string, error) {
	var filetype string
	err := r.db.QueryRowContext(ctx, "SELECT filetype FROM books WHERE number = ?", number).Scan(&filetype)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query entry: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM books WHERE number = ?", number); err != nil {
		return "", fmt.Errorf("failed to delete entry: %w", err)
	}
	return filetype, nil
}

var sortClauses = map[Sort]string{
	SortTitleAsc:   "title ASC, number ASC",
	SortTitleDesc:  "title DESC, number DESC",
	SortNumberAsc:  "number ASC",
	SortNumberDesc: "number DESC",
}

// ParseSort returns the named sort, falling back to SortTitleAsc.
func ParseSort(s string) Sort {
	if _, ok := sortClauses[Sort(s)]; ok {
		return Sort(s)
	}
	return SortTitleAsc
}

func (r *BookRepo) List(ctx context.Context, q ListQuery) ([]Entry, int, error) {
	where := ""
	var args []any
	if q.Tag != "" {
		where = " WHERE tags LIKE ?"
		args = append(args, "%"+q.Tag+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count entries: %w", err)
	}

	query := "SELECT " + entryColumns + " FROM books" + where + " ORDER BY " + sortClauses[ParseSort(string(q.Sort))]
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}
	entries, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *BookRepo) Numbers(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT number FROM books ORDER BY number")
	if err != nil {
		return nil, fmt.Errorf("failed to query entry numbers: %w", err)
	}
	defer rows.Close()

	var numbers []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan entry number: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (r *BookRepo) Tags(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT tags FROM books")
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, fmt.Errorf("failed to scan tags: %w", err)
		}
		for _, tag := range strings.Fields(tags) {
			seen[tag] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}

func (r *BookRepo) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

func (r *BookRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
