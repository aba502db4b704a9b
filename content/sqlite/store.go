// Package sqlite é o backend local do content.Store (modernc.org/sqlite, sem cgo).
// Usado em desenvolvimento e nos testes; produção usa content/supabase.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"content-gateway/clock"
	"content-gateway/content"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	content       TEXT NOT NULL,
	excerpt       TEXT NOT NULL DEFAULT '',
	author_id     TEXT NOT NULL DEFAULT '',
	author_name   TEXT NOT NULL DEFAULT '',
	published     INTEGER NOT NULL DEFAULT 0,
	category_slug TEXT NOT NULL DEFAULT '',
	view_count    INTEGER NOT NULL DEFAULT 0,
	like_count    INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
	id          TEXT PRIMARY KEY,
	post_id     TEXT NOT NULL REFERENCES posts(id),
	parent_id   TEXT NOT NULL DEFAULT '',
	author_id   TEXT NOT NULL DEFAULT '',
	author_name TEXT NOT NULL,
	content     TEXT NOT NULL,
	is_approved INTEGER NOT NULL DEFAULT 1,
	like_count  INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, parent_id, created_at);
CREATE INDEX IF NOT EXISTS idx_comments_author ON comments(author_id, created_at);
`

const postColumns = `p.id, p.title, p.content, p.excerpt, p.author_id, p.author_name, p.published,
	p.category_slug, p.view_count, p.like_count,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id AND c.is_approved = 1),
	p.created_at, p.updated_at`

type Store struct {
	db    *sql.DB
	clock clock.Clock
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New abre (ou cria) o banco em path e aplica o schema.
func New(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open content db: %w", err)
	}
	// um único writer evita SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate content db: %w", err)
	}

	s := &Store{db: db, clock: clock.Real()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreatePost grava um post novo; ID vazio recebe um UUID.
func (s *Store) CreatePost(ctx context.Context, p content.Post) (content.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.clock.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, excerpt, author_id, author_name, published, category_slug,
			view_count, like_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Content, p.Excerpt, p.AuthorID, p.AuthorName, p.Published, p.CategorySlug,
		p.ViewCount, p.LikeCount, p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return content.Post{}, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

func (s *Store) ListPosts(ctx context.Context, p content.ListParams) (content.PostPage, error) {
	p = p.Normalize()

	var (
		where []string
		args  []any
	)
	if p.Published != nil {
		where = append(where, "p.published = ?")
		args = append(args, *p.Published)
	}
	if p.Category != "" {
		where = append(where, "p.category_slug = ?")
		args = append(args, p.Category)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts p"+cond, args...).Scan(&total); err != nil {
		return content.PostPage{}, fmt.Errorf("count posts: %w", err)
	}

	// Sort e Order já vêm de uma lista fechada (Normalize)
	from, _ := content.Range(p.Page, p.PageSize)
	query := fmt.Sprintf("SELECT %s FROM posts p%s ORDER BY p.%s %s, p.id LIMIT ? OFFSET ?",
		postColumns, cond, p.Sort, strings.ToUpper(p.Order))

	rows, err := s.db.QueryContext(ctx, query, append(args, p.PageSize, from)...)
	if err != nil {
		return content.PostPage{}, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []content.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return content.PostPage{}, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return content.PostPage{}, fmt.Errorf("list posts: %w", err)
	}

	return content.PostPage{Data: posts, Pagination: content.NewPagination(p.Page, p.PageSize, total)}, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (content.Post, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts p WHERE p.id = ?", id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Post{}, content.ErrNotFound
	}
	return post, err
}

func (s *Store) ListComments(ctx context.Context, p content.CommentParams) (content.CommentPage, error) {
	p = p.Normalize()

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = ? AND parent_id = '' AND is_approved = 1`, p.PostID,
	).Scan(&total)
	if err != nil {
		return content.CommentPage{}, fmt.Errorf("count comments: %w", err)
	}

	from, _ := content.Range(p.Page, p.PageSize)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, post_id, parent_id, author_id, author_name, content, is_approved, like_count, created_at
		 FROM comments
		 WHERE post_id = ? AND parent_id = '' AND is_approved = 1
		 ORDER BY created_at `+strings.ToUpper(p.Order)+`, id
		 LIMIT ? OFFSET ?`,
		p.PostID, p.PageSize, from,
	)
	if err != nil {
		return content.CommentPage{}, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []content.Comment{}
	for rows.Next() {
		var (
			c       content.Comment
			created int64
		)
		if err := rows.Scan(&c.ID, &c.PostID, &c.ParentID, &c.AuthorID, &c.AuthorName, &c.Content,
			&c.IsApproved, &c.LikeCount, &created); err != nil {
			return content.CommentPage{}, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = time.UnixMilli(created).UTC()
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return content.CommentPage{}, fmt.Errorf("list comments: %w", err)
	}

	return content.CommentPage{Data: comments, Pagination: content.NewPagination(p.Page, p.PageSize, total)}, nil
}

// CreateComment exige post publicado, parent do mesmo post e respeita o limite
// antispam de content.MaxCommentsPerMinute por autor.
func (s *Store) CreateComment(ctx context.Context, nc content.NewComment) (content.Comment, error) {
	var published bool
	err := s.db.QueryRowContext(ctx, `SELECT published FROM posts WHERE id = ?`, nc.PostID).Scan(&published)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !published) {
		return content.Comment{}, content.ErrNotFound
	}
	if err != nil {
		return content.Comment{}, fmt.Errorf("load post: %w", err)
	}

	if nc.ParentID != "" {
		var parentPost string
		err := s.db.QueryRowContext(ctx, `SELECT post_id FROM comments WHERE id = ?`, nc.ParentID).Scan(&parentPost)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && parentPost != nc.PostID) {
			return content.Comment{}, content.ErrInvalidParent
		}
		if err != nil {
			return content.Comment{}, fmt.Errorf("load parent comment: %w", err)
		}
	}

	now := s.clock.Now().UTC()

	if nc.AuthorID != "" {
		var recent int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM comments WHERE author_id = ? AND created_at >= ?`,
			nc.AuthorID, now.Add(-time.Minute).UnixMilli(),
		).Scan(&recent)
		if err != nil {
			return content.Comment{}, fmt.Errorf("count recent comments: %w", err)
		}
		if recent >= content.MaxCommentsPerMinute {
			return content.Comment{}, content.ErrTooManyComments
		}
	}

	c := content.Comment{
		ID:         uuid.NewString(),
		PostID:     nc.PostID,
		ParentID:   nc.ParentID,
		AuthorID:   nc.AuthorID,
		AuthorName: nc.AuthorName,
		Content:    nc.Content,
		IsApproved: true,
		CreatedAt:  now.Truncate(time.Millisecond),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, parent_id, author_id, author_name, content, is_approved, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.ParentID, c.AuthorID, c.AuthorName, c.Content, c.IsApproved, c.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return content.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (content.Post, error) {
	var (
		p                content.Post
		created, updated int64
	)
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.AuthorID, &p.AuthorName, &p.Published,
		&p.CategorySlug, &p.ViewCount, &p.LikeCount, &p.CommentCount, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return content.Post{}, err
		}
		return content.Post{}, fmt.Errorf("scan post: %w", err)
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return p, nil
}
