// Package supabase implementa content.Store com consultas PostgREST via supabase-go.
//
// Lê da view posts_with_author e grava na tabela comments. As regras de CreateComment
// (post publicado, parent do mesmo post, limite antispam) são as mesmas do backend sqlite.
package supabase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"content-gateway/content"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const (
	postsView     = "posts_with_author"
	commentsTable = "comments"
	postsTable    = "posts"
)

type Store struct {
	client *supa.Client
	now    func() time.Time
}

func New(client *supa.Client) *Store {
	return &Store{client: client, now: time.Now}
}

// postRow espelha as colunas da view.
type postRow struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Excerpt      string    `json:"excerpt"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	Published    bool      `json:"published"`
	CategorySlug string    `json:"category_slug"`
	ViewCount    int       `json:"view_count"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r postRow) toPost() content.Post {
	return content.Post(r)
}

type commentRow struct {
	ID         string    `json:"id,omitempty"`
	PostID     string    `json:"post_id"`
	ParentID   *string   `json:"parent_id"`
	AuthorID   *string   `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	IsApproved bool      `json:"is_approved"`
	LikeCount  int       `json:"like_count"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

func (r commentRow) toComment() content.Comment {
	return content.Comment{
		ID:         r.ID,
		PostID:     r.PostID,
		ParentID:   deref(r.ParentID),
		AuthorID:   deref(r.AuthorID),
		AuthorName: r.AuthorName,
		Content:    r.Content,
		IsApproved: r.IsApproved,
		LikeCount:  r.LikeCount,
		CreatedAt:  r.CreatedAt,
	}
}

func (s *Store) ListPosts(_ context.Context, p content.ListParams) (content.PostPage, error) {
	p = p.Normalize()

	q := s.client.From(postsView).Select("*", "exact", false)
	if p.Published != nil {
		q = q.Eq("published", strconv.FormatBool(*p.Published))
	}
	if p.Category != "" {
		q = q.Eq("category_slug", p.Category)
	}
	from, to := content.Range(p.Page, p.PageSize)
	q = q.Order(p.Sort, &postgrest.OrderOpts{Ascending: p.Order == "asc"}).Range(from, to, "")

	var rows []postRow
	total, err := q.ExecuteTo(&rows)
	if err != nil {
		return content.PostPage{}, fmt.Errorf("failed to fetch posts: %w", err)
	}

	posts := make([]content.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toPost())
	}
	return content.PostPage{Data: posts, Pagination: content.NewPagination(p.Page, p.PageSize, int(total))}, nil
}

func (s *Store) GetPost(_ context.Context, id string) (content.Post, error) {
	var rows []postRow
	if _, err := s.client.From(postsView).Select("*", "", false).Eq("id", id).ExecuteTo(&rows); err != nil {
		return content.Post{}, fmt.Errorf("failed to fetch post: %w", err)
	}
	if len(rows) == 0 {
		return content.Post{}, content.ErrNotFound
	}
	return rows[0].toPost(), nil
}

func (s *Store) ListComments(_ context.Context, p content.CommentParams) (content.CommentPage, error) {
	p = p.Normalize()
	from, to := content.Range(p.Page, p.PageSize)

	var rows []commentRow
	total, err := s.client.From(commentsTable).
		Select("*", "exact", false).
		Eq("post_id", p.PostID).
		Eq("is_approved", "true").
		Is("parent_id", "null").
		Order("created_at", &postgrest.OrderOpts{Ascending: p.Order == "asc"}).
		Range(from, to, "").
		ExecuteTo(&rows)
	if err != nil {
		return content.CommentPage{}, fmt.Errorf("failed to fetch comments: %w", err)
	}

	comments := make([]content.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.toComment())
	}
	return content.CommentPage{Data: comments, Pagination: content.NewPagination(p.Page, p.PageSize, int(total))}, nil
}

func (s *Store) CreateComment(_ context.Context, nc content.NewComment) (content.Comment, error) {
	var posts []struct {
		Published bool `json:"published"`
	}
	if _, err := s.client.From(postsTable).Select("published", "", false).Eq("id", nc.PostID).ExecuteTo(&posts); err != nil {
		return content.Comment{}, fmt.Errorf("load post: %w", err)
	}
	if len(posts) == 0 || !posts[0].Published {
		return content.Comment{}, content.ErrNotFound
	}

	if nc.ParentID != "" {
		var parents []struct {
			PostID string `json:"post_id"`
		}
		if _, err := s.client.From(commentsTable).Select("post_id", "", false).Eq("id", nc.ParentID).ExecuteTo(&parents); err != nil {
			return content.Comment{}, fmt.Errorf("load parent comment: %w", err)
		}
		if len(parents) == 0 || parents[0].PostID != nc.PostID {
			return content.Comment{}, content.ErrInvalidParent
		}
	}

	if nc.AuthorID != "" {
		since := s.now().Add(-time.Minute).UTC().Format(time.RFC3339)
		var ids []struct {
			ID string `json:"id"`
		}
		recent, err := s.client.From(commentsTable).
			Select("id", "exact", false).
			Eq("author_id", nc.AuthorID).
			Gte("created_at", since).
			ExecuteTo(&ids)
		if err != nil {
			return content.Comment{}, fmt.Errorf("count recent comments: %w", err)
		}
		if int(recent) >= content.MaxCommentsPerMinute {
			return content.Comment{}, content.ErrTooManyComments
		}
	}

	row := commentRow{
		PostID:     nc.PostID,
		ParentID:   ref(nc.ParentID),
		AuthorID:   ref(nc.AuthorID),
		AuthorName: nc.AuthorName,
		Content:    nc.Content,
		IsApproved: true,
	}
	var created []commentRow
	if _, err := s.client.From(commentsTable).Insert(insertPayload(row), false, "", "representation", "").ExecuteTo(&created); err != nil {
		return content.Comment{}, fmt.Errorf("failed to create comment: %w", err)
	}
	if len(created) == 0 {
		return content.Comment{}, fmt.Errorf("failed to create comment: empty response")
	}
	return created[0].toComment(), nil
}

// insertPayload deixa id e created_at para os defaults do banco.
func insertPayload(r commentRow) map[string]any {
	return map[string]any{
		"post_id":     r.PostID,
		"parent_id":   r.ParentID,
		"author_id":   r.AuthorID,
		"author_name": r.AuthorName,
		"content":     r.Content,
		"is_approved": r.IsApproved,
	}
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
