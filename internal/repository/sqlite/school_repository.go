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

const createSchoolsTable = `
CREATE TABLE IF NOT EXISTS schools (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email_domain TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schools_email_domain ON schools(email_domain);
`

type SchoolRepository struct {
	db *sql.DB
}

func NewSchoolRepository(db *sql.DB) repository.SchoolRepository {
	return &SchoolRepository{db: db}
}

func (r *SchoolRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSchoolsTable); err != nil {
		return fmt.Errorf("create schools table: %w", err)
	}
	return nil
}

func (r *SchoolRepository) Create(ctx context.Context, school *domain.School) (int64, error) {
	school.EmailDomain = strings.ToLower(strings.TrimSpace(school.EmailDomain))
	school.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO schools (name, email_domain, created_at)
VALUES (?, ?, ?)`,
		school.Name,
		school.EmailDomain,
		school.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert school: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("school last insert id: %w", err)
	}
	school.ID = id
	return id, nil
}

func (r *SchoolRepository) Get(ctx context.Context, id int64) (*domain.School, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email_domain, created_at
FROM schools
WHERE id = ?`,
		id,
	)
	return scanSchool(row)
}

func (r *SchoolRepository) List(ctx context.Context) ([]domain.School, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, email_domain, created_at
FROM schools
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	defer rows.Close()
	return collectSchools(rows)
}

func (r *SchoolRepository) ListByEmailDomain(ctx context.Context, emailDomain string) ([]domain.School, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, email_domain, created_at
FROM schools
WHERE email_domain = ?
ORDER BY id`,
		strings.ToLower(strings.TrimSpace(emailDomain)),
	)
	if err != nil {
		return nil, fmt.Errorf("list schools by domain: %w", err)
	}
	defer rows.Close()
	return collectSchools(rows)
}

func collectSchools(rows *sql.Rows) ([]domain.School, error) {
	var schools []domain.School
	for rows.Next() {
		var s domain.School
		if err := rows.Scan(&s.ID, &s.Name, &s.EmailDomain, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan school: %w", err)
		}
		schools = append(schools, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schools: %w", err)
	}
	return schools, nil
}

func scanSchool(row *sql.Row) (*domain.School, error) {
	var s domain.School
	if err := row.Scan(&s.ID, &s.Name, &s.EmailDomain, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("school not found")
		}
		return nil, fmt.Errorf("scan school: %w", err)
	}
	return &s, nil
}
