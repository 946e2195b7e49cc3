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

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	commenter_id INTEGER NOT NULL REFERENCES users(id),
	body TEXT NOT NULL,
	pub_date DATETIME NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);
CREATE INDEX IF NOT EXISTS idx_comments_pub_date ON comments(pub_date);
`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (int64, error) {
	comment.CreatedAt = time.Now().UTC()
	if comment.PubDate.IsZero() {
		comment.PubDate = comment.CreatedAt
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO comments (post_id, commenter_id, body, pub_date, created_at)
VALUES (?, ?, ?, ?, ?)`,
		comment.PostID,
		comment.CommenterID,
		comment.Body,
		comment.PubDate,
		comment.CreatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return 0, fmt.Errorf("post not found: %w", err)
		}
		return 0, fmt.Errorf("insert comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("comment last insert id: %w", err)
	}
	comment.ID = id
	return id, nil
}

func (r *CommentRepository) Get(ctx context.Context, id int64) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, post_id, commenter_id, body, pub_date, created_at
FROM comments
WHERE id = ?`,
		id,
	)
	var c domain.Comment
	if err := scanComment(row.Scan, &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment not found")
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return &c, nil
}

func (r *CommentRepository) List(ctx context.Context, filter repository.CommentFilter, opts repository.ListOptions) ([]domain.Comment, int64, error) {
	where, args := buildCommentWhere(filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	query := `
SELECT comments.id, comments.post_id, comments.commenter_id, comments.body, comments.pub_date, comments.created_at
FROM comments` + where + orderClause("comments", opts)

	pageArgs := args
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		pageArgs = append(append([]any{}, args...), opts.Limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := scanComment(rows.Scan, &c); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, total, nil
}

func (r *CommentRepository) ListIDsByPost(ctx context.Context, postID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id FROM comments WHERE post_id = ? ORDER BY id`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comment ids: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("comment not found")
	}
	return nil
}

func buildCommentWhere(filter repository.CommentFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.PostID != nil {
		conds = append(conds, "comments.post_id = ?")
		args = append(args, *filter.PostID)
	}
	if filter.DateOn != nil {
		day := filter.DateOn.Truncate(24 * time.Hour)
		conds = append(conds, "comments.pub_date >= ? AND comments.pub_date < ?")
		args = append(args, day, day.Add(24*time.Hour))
	}
	if filter.DateGTE != nil {
		conds = append(conds, "comments.pub_date >= ?")
		args = append(args, *filter.DateGTE)
	}
	if filter.DateLTE != nil {
		conds = append(conds, "comments.pub_date <= ?")
		args = append(args, *filter.DateLTE)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanComment(scan func(dest ...any) error, c *domain.Comment) error {
	return scan(
		&c.ID,
		&c.PostID,
		&c.CommenterID,
		&c.Body,
		&c.PubDate,
		&c.CreatedAt,
	)
}
