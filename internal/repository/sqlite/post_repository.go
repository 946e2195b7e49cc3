package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-board/internal/domain"
	"campus-board/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	school_id INTEGER NOT NULL REFERENCES schools(id),
	poster_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	pub_date DATETIME NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_school ON posts(school_id);
CREATE INDEX IF NOT EXISTS idx_posts_pub_date ON posts(pub_date);
`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	post.CreatedAt = time.Now().UTC()
	if post.PubDate.IsZero() {
		post.PubDate = post.CreatedAt
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO posts (school_id, poster_id, title, body, pub_date, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		post.SchoolID,
		post.PosterID,
		post.Title,
		post.Body,
		post.PubDate,
		post.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, school_id, poster_id, title, body, pub_date, created_at
FROM posts
WHERE id = ?`,
		id,
	)
	var p domain.Post
	if err := scanPost(row.Scan, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post not found")
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &p, nil
}

func (r *PostRepository) List(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions) ([]domain.Post, int64, error) {
	where, joins, args := buildPostWhere(filter)

	from := "FROM posts"
	if joins {
		from += " JOIN schools ON schools.id = posts.school_id"
	}

	countQuery := "SELECT COUNT(*) " + from + where
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := `
SELECT posts.id, posts.school_id, posts.poster_id, posts.title, posts.body, posts.pub_date, posts.created_at ` +
		from + where + orderClause("posts", opts)

	pageArgs := args
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		pageArgs = append(append([]any{}, args...), opts.Limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := scanPost(rows.Scan, &p); err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, total, nil
}

func (r *PostRepository) ListIDsBySchool(ctx context.Context, schoolID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id FROM posts WHERE school_id = ? ORDER BY id`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list post ids: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("post not found")
	}
	return nil
}

// buildPostWhere turns a filter specification into an explicit WHERE
// clause. The second return reports whether the schools join is needed.
func buildPostWhere(filter repository.PostFilter) (string, bool, []any) {
	var conds []string
	var args []any
	joins := false

	if filter.SchoolID != nil {
		conds = append(conds, "posts.school_id = ?")
		args = append(args, *filter.SchoolID)
	}
	if filter.SchoolEmailDomain != nil {
		joins = true
		conds = append(conds, "schools.email_domain = ?")
		args = append(args, strings.ToLower(*filter.SchoolEmailDomain))
	}
	if filter.DateOn != nil {
		day := filter.DateOn.Truncate(24 * time.Hour)
		conds = append(conds, "posts.pub_date >= ? AND posts.pub_date < ?")
		args = append(args, day, day.Add(24*time.Hour))
	}
	if filter.DateGTE != nil {
		conds = append(conds, "posts.pub_date >= ?")
		args = append(args, *filter.DateGTE)
	}
	if filter.DateLTE != nil {
		conds = append(conds, "posts.pub_date <= ?")
		args = append(args, *filter.DateLTE)
	}
	if len(filter.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.IDs)), ",")
		conds = append(conds, "posts.id IN ("+placeholders+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}

	if len(conds) == 0 {
		return "", joins, args
	}
	return " WHERE " + strings.Join(conds, " AND "), joins, args
}

func orderClause(table string, opts repository.ListOptions) string {
	col := opts.OrderBy
	if col == "" {
		col = "id"
	}
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s.%s %s, %s.id %s", table, col, dir, table, dir)
}

func scanPost(scan func(dest ...any) error, p *domain.Post) error {
	return scan(
		&p.ID,
		&p.SchoolID,
		&p.PosterID,
		&p.Title,
		&p.Body,
		&p.PubDate,
		&p.CreatedAt,
	)
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}
