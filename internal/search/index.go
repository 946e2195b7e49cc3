package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const createPostIndexTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS post_index USING fts5(
	title,
	body,
	post_id UNINDEXED,
	pub_date UNINDEXED
);
`

// Match is one ranked hit from the post index.
type Match struct {
	PostID  int64
	PubDate time.Time
}

// Index is a denormalized full-text view over posts, backed by an FTS5
// virtual table in the same database file. It is rebuilt out-of-band and
// is eventually consistent with the posts table: a post created after
// the last rebuild is not searchable yet.
type Index struct {
	db *sql.DB
}

func NewIndex(db *sql.DB) *Index {
	return &Index{db: db}
}

func (i *Index) Init(ctx context.Context) error {
	if _, err := i.db.ExecContext(ctx, createPostIndexTable); err != nil {
		return fmt.Errorf("create post index: %w", err)
	}
	return nil
}

// Rebuild replaces the whole index with documents for every post whose
// publish date is not in the future. Returns the number of indexed posts.
func (i *Index) Rebuild(ctx context.Context) (int64, error) {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin index rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_index`); err != nil {
		return 0, fmt.Errorf("clear post index: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO post_index (title, body, post_id, pub_date)
SELECT title, body, id, pub_date
FROM posts
WHERE pub_date <= ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("fill post index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit index rebuild: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("index rows affected: %w", err)
	}
	return count, nil
}

// Search answers a free-text query with a ranked page of matches plus
// the total match count. Only the index is consulted; callers
// materialize post rows themselves.
func (i *Index) Search(ctx context.Context, query string, limit, offset int) ([]Match, int64, error) {
	fts := ftsQuery(query)
	if fts == "" {
		return nil, 0, nil
	}

	var total int64
	if err := i.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM post_index WHERE post_index MATCH ?`, fts).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	q := `
SELECT post_id, pub_date
FROM post_index
WHERE post_index MATCH ?
ORDER BY rank`
	args := []any{fts}
	if limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := i.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search post index: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.PostID, &m.PubDate); err != nil {
			return nil, 0, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, total, nil
}

// ftsQuery converts raw user input into a safe FTS5 match expression:
// each token is quoted and suffixed with * so substrings of words still
// match as prefixes. FTS5 operators in the input are neutralized.
func ftsQuery(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}
