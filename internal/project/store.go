package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const DefaultPageSize = 16

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL,
	tags        TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_category ON projects(category, created_at);

CREATE TABLE IF NOT EXISTS project_images (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	image_url  TEXT NOT NULL,
	sort_order INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_project_images_project ON project_images(project_id, sort_order);

CREATE TABLE IF NOT EXISTS photography_projects (
	id              TEXT PRIMARY KEY REFERENCES projects(id),
	thoughts        TEXT NOT NULL DEFAULT '',
	additional_info TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS development_projects (
	id         TEXT PRIMARY KEY REFERENCES projects(id),
	github_url TEXT NOT NULL DEFAULT '',
	readme     TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS other_projects (
	id            TEXT PRIMARY KEY REFERENCES projects(id),
	external_link TEXT NOT NULL DEFAULT '',
	introduction  TEXT NOT NULL DEFAULT ''
);
`

// Store keeps projects in SQLite. Every write runs in one transaction.
type Store struct {
	db       *sql.DB
	log      *zap.Logger
	pageSize int
	now      func() time.Time
}

type StoreOption func(*Store)

func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithPageSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, opts ...StoreOption) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("project: open database: %w", err)
	}
	// one connection: SQLite serialises writers anyway and :memory: is per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("project: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("project: apply schema: %w", err)
	}

	s := &Store{db: db, log: zap.NewNop(), pageSize: DefaultPageSize, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("project: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("project: commit: %w", err)
	}
	return nil
}

// Create stores a new project and returns it as Get would.
func (s *Store) Create(ctx context.Context, in Input) (*Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := s.now().UnixNano()

	err := s.tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, title, description, category, tags, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, in.Title, in.Description, string(in.Category), joinList(in.Tags), now, now)
		if err != nil {
			return fmt.Errorf("project: insert: %w", err)
		}
		if err := insertImages(ctx, tx, id, in.ImageList()); err != nil {
			return err
		}
		return insertDetail(ctx, tx, id, in)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("project created", zap.String("id", id), zap.String("category", string(in.Category)))
	return s.Get(ctx, id)
}

func insertImages(ctx context.Context, tx *sql.Tx, id string, urls []string) error {
	for i, u := range urls {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO project_images (id, project_id, image_url, sort_order) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), id, u, i)
		if err != nil {
			return fmt.Errorf("project: insert image: %w", err)
		}
	}
	return nil
}

func insertDetail(ctx context.Context, tx *sql.Tx, id string, in Input) error {
	var err error
	switch in.Category {
	case Photography:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO photography_projects (id, thoughts, additional_info) VALUES (?, ?, ?)`,
			id, in.Thoughts, in.AdditionalInfo)
	case Development:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO development_projects (id, github_url, readme) VALUES (?, ?, ?)`,
			id, in.GithubURL, in.Readme)
	case Other:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO other_projects (id, external_link, introduction) VALUES (?, ?, ?)`,
			id, in.ExternalLink, in.Introduction)
	}
	if err != nil {
		return fmt.Errorf("project: insert %s detail: %w", in.Category, err)
	}
	return nil
}

func deleteDetail(ctx context.Context, tx *sql.Tx, id string) error {
	for _, table := range []string{"photography_projects", "development_projects", "other_projects"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
			return fmt.Errorf("project: delete from %s: %w", table, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (Project, error) {
	var (
		p                Project
		category, tags   string
		created, updated int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &category, &tags, &created, &updated); err != nil {
		return Project{}, err
	}
	p.Category = Category(category)
	p.Tags = splitList(tags)
	p.BilingualTitle = BilingualTitle{Zh: p.Title, En: p.Title}
	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return p, nil
}

func images(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT image_url FROM project_images WHERE project_id = ? ORDER BY sort_order ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("project: images: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("project: images: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Get returns one project with its images and category fields.
func (s *Store) Get(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, category, tags, created_at, updated_at FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project: get %s: %w", id, err)
	}

	if p.Images, err = images(ctx, s.db, id); err != nil {
		return nil, err
	}

	switch p.Category {
	case Photography:
		err = s.db.QueryRowContext(ctx,
			`SELECT thoughts, additional_info FROM photography_projects WHERE id = ?`, id).
			Scan(&p.Thoughts, &p.AdditionalInfo)
	case Development:
		err = s.db.QueryRowContext(ctx,
			`SELECT github_url, readme FROM development_projects WHERE id = ?`, id).
			Scan(&p.GithubURL, &p.Readme)
	case Other:
		err = s.db.QueryRowContext(ctx,
			`SELECT external_link, introduction FROM other_projects WHERE id = ?`, id).
			Scan(&p.ExternalLink, &p.Introduction)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project: get %s detail: %w", id, err)
	}
	return &p, nil
}

// List returns one page of projects, newest first.
func (s *Store) List(ctx context.Context, q ListQuery) (*PageResult, error) {
	q = q.normalize(s.pageSize)

	where, args := "", []any{}
	if q.Category != All {
		where, args = " WHERE category = ?", append(args, string(q.Category))
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("project: count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, category, tags, created_at, updated_at FROM projects`+where+
			` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		append(args, q.Size, (q.Page-1)*q.Size)...)
	if err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	items := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("project: list: %w", err)
		}
		items = append(items, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}

	// images are fetched after the page rows are closed; the pool holds one connection
	for i := range items {
		if items[i].Images, err = images(ctx, s.db, items[i].ID); err != nil {
			return nil, err
		}
	}
	return &PageResult{Total: total, Items: items}, nil
}

// Update overwrites a project. The image list is replaced wholesale.
func (s *Store) Update(ctx context.Context, id string, in Input) (*Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	err := s.tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE projects SET title = ?, description = ?, category = ?, tags = ?, updated_at = ? WHERE id = ?`,
			in.Title, in.Description, string(in.Category), joinList(in.Tags), s.now().UnixNano(), id)
		if err != nil {
			return fmt.Errorf("project: update: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_images WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("project: clear images: %w", err)
		}
		if err := insertImages(ctx, tx, id, in.ImageList()); err != nil {
			return err
		}
		if err := deleteDetail(ctx, tx, id); err != nil {
			return err
		}
		return insertDetail(ctx, tx, id, in)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("project updated", zap.String("id", id))
	return s.Get(ctx, id)
}

// Delete removes every listed project. Nothing is removed if any id is
// unknown.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.tx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := deleteDetail(ctx, tx, id); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM project_images WHERE project_id = ?`, id); err != nil {
				return fmt.Errorf("project: delete images: %w", err)
			}
			res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
			if err != nil {
				return fmt.Errorf("project: delete: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("projects deleted", zap.String("ids", strings.Join(ids, ",")))
	return nil
}
