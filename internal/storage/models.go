package storage

import "time"

// Entry is one registered document.
type Entry struct {
	Number      int64
	Title       string
	Filetype    string // lower-case file suffix: pdf, zip, epub, md
	ContentHash string // hex SHA-256 of the stored file
	Tags        string // space-delimited
	PageCount   *int   // nil until the first refresh
	Spread      *bool  // nil until the first refresh
	RightToLeft *bool
	Hidden      *bool
	CreatedAt   time.Time
}

// EntryChanges is the set of field writes applied to an entry in one
// statement. Nil fields are left untouched.
type EntryChanges struct {
	Title       *string
	Tags        *string
	ContentHash *string
	PageCount   *int
	Spread      *bool
	RightToLeft *bool
	Hidden      *bool
}

// Empty reports whether no field is set.
func (c EntryChanges) Empty() bool {
	return c.Title == nil && c.Tags == nil && c.ContentHash == nil && c.PageCount == nil &&
		c.Spread == nil && c.RightToLeft == nil && c.Hidden == nil
}

// IndexRow is one searchable unit of an entry.
type IndexRow struct {
	Number    int64
	Position  float64
	NgramText string // tokenized text, matched by the full-text index
	PlainText string // cleaned text, used for excerpts
}

// Hit is an index row matched by a full-text query, in relevance order.
type Hit struct {
	IndexRow
	Rank float64
}

// Sort orders entry listings.
type Sort string

const (
	SortTitleAsc   Sort = "title_asc"
	SortTitleDesc  Sort = "title_desc"
	SortNumberAsc  Sort = "number_asc"
	SortNumberDesc Sort = "number_desc"
)

// ListQuery selects a page of entries. A zero Limit returns every match.
type ListQuery struct {
	Tag    string
	Sort   Sort
	Offset int
	Limit  int
}
