// Package content define o contrato com o armazenamento de posts e comentários.
//
// As implementações ficam em content/sqlite e content/supabase; NewCached decora
// qualquer Store com memoização e medição de latência.
package content

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	ErrNotFound = errors.New("content: not found")
	// ErrInvalidParent indica parent_id inexistente ou de outro post.
	ErrInvalidParent = errors.New("content: parent comment not found or invalid")
	// ErrTooManyComments é o limite antispam por autor (MaxCommentsPerMinute).
	ErrTooManyComments = errors.New("content: too many comments in a short time")
)

const (
	DefaultPageSize        = 10
	DefaultCommentPageSize = 20
	MaxPageSize            = 100

	MaxCommentsPerMinute = 3
)

type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Excerpt      string    `json:"excerpt,omitempty"`
	AuthorID     string    `json:"author_id,omitempty"`
	AuthorName   string    `json:"author_name,omitempty"`
	Published    bool      `json:"published"`
	CategorySlug string    `json:"category_slug,omitempty"`
	ViewCount    int       `json:"view_count"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	ParentID   string    `json:"parent_id,omitempty"`
	AuthorID   string    `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	IsApproved bool      `json:"is_approved"`
	LikeCount  int       `json:"like_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListParams filtra e pagina posts. Page começa em 1.
type ListParams struct {
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	Published *bool  `json:"published,omitempty"`
	Category  string `json:"category,omitempty"`
	Sort      string `json:"sort,omitempty"`
	Order     string `json:"order,omitempty"`
}

// CommentParams lista comentários aprovados de primeiro nível de um post.
type CommentParams struct {
	PostID   string `json:"post_id"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Order    string `json:"order,omitempty"`
}

type NewComment struct {
	PostID     string `json:"post_id"`
	ParentID   string `json:"parent_id,omitempty"`
	AuthorID   string `json:"author_id,omitempty"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

type Pagination struct {
	Current    int `json:"current"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type PostPage struct {
	Data []Post `json:"data"`
	Pagination
}

type CommentPage struct {
	Data       []Comment  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Store interface {
	ListPosts(ctx context.Context, p ListParams) (PostPage, error)
	GetPost(ctx context.Context, id string) (Post, error)
	ListComments(ctx context.Context, p CommentParams) (CommentPage, error)
	CreateComment(ctx context.Context, c NewComment) (Comment, error)
}

var sortable = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"view_count": true,
	"like_count": true,
}

// Normalize aplica os padrões: página 1, 10 por página (máx. 100), ordenação por
// created_at descendente.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	p.PageSize = min(p.PageSize, MaxPageSize)
	if !sortable[p.Sort] {
		p.Sort = "created_at"
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
	return p
}

// Normalize aplica os padrões: página 1, 20 por página, mais antigos primeiro.
func (p CommentParams) Normalize() CommentParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultCommentPageSize
	}
	p.PageSize = min(p.PageSize, MaxPageSize)
	if p.Order != "desc" {
		p.Order = "asc"
	}
	return p
}

// Range devolve o intervalo [from, to] inclusivo da página (estilo PostgREST).
func Range(page, pageSize int) (from, to int) {
	from = (page - 1) * pageSize
	return from, from + pageSize - 1
}

func NewPagination(page, pageSize, total int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	return Pagination{Current: page, PageSize: pageSize, Total: total, TotalPages: pages}
}
