package content

import (
	"context"
	"time"

	"content-gateway/cache"
	"content-gateway/cache/memo"
	"content-gateway/monitor"

	"go.uber.org/zap"
)

// Nomes de operação usados no monitor e como prefixo das chaves do memo.
const (
	OpListPosts     = "content.posts"
	OpGetPost       = "content.post"
	OpListComments  = "content.comments"
	OpCreateComment = "content.create_comment"
)

// Cached decora um Store: leituras passam pelo memo (e pelo monitor), CreateComment
// invalida os comentários cacheados do post.
type Cached struct {
	next Store
	memo *memo.Memoizer
	mon  *monitor.Monitor
	ttl  time.Duration
	log  *zap.Logger

	listPosts func(context.Context, ListParams) (PostPage, error)
	getPost   func(context.Context, string) (Post, error)

	// OnCommentCreated é chamado depois de um CreateComment bem-sucedido
	// (o servidor usa para invalidar o cache de respostas).
	OnCommentCreated func(postID string)
}

func NewCached(next Store, m *memo.Memoizer, mon *monitor.Monitor, ttl time.Duration, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{
		next:      next,
		memo:      m,
		mon:       mon,
		ttl:       ttl,
		log:       log,
		listPosts: memo.Wrap(m, OpListPosts, ttl, next.ListPosts),
		getPost:   memo.Wrap(m, OpGetPost, ttl, next.GetPost),
	}
}

func (c *Cached) ListPosts(ctx context.Context, p ListParams) (PostPage, error) {
	return c.listPosts(ctx, p.Normalize())
}

func (c *Cached) GetPost(ctx context.Context, id string) (Post, error) {
	return c.getPost(ctx, id)
}

// ListComments usa uma chave por post (content.comments:<postID>:<hash>) para que
// CreateComment consiga apagar só as páginas daquele post.
func (c *Cached) ListComments(ctx context.Context, p CommentParams) (CommentPage, error) {
	p = p.Normalize()
	fetch := monitor.Timed(c.mon, OpListComments, c.next.ListComments)

	key, err := memo.ArgsKey(commentsPrefix(p.PostID), p)
	if err != nil {
		return fetch(ctx, p)
	}
	return memo.Do(ctx, c.memo, key, c.ttl, func(ctx context.Context) (CommentPage, error) {
		return fetch(ctx, p)
	})
}

func (c *Cached) CreateComment(ctx context.Context, nc NewComment) (Comment, error) {
	created, err := monitor.Timed(c.mon, OpCreateComment, c.next.CreateComment)(ctx, nc)
	if err != nil {
		return Comment{}, err
	}

	n := c.memo.ForgetPrefix(commentsPrefix(nc.PostID) + ":")
	// comment_count do post mudou
	c.memo.Forget(mustKey(OpGetPost, nc.PostID))
	c.log.Debug("comment cache invalidated", zap.String("post_id", nc.PostID), zap.Int("entries", n))

	if c.OnCommentCreated != nil {
		c.OnCommentCreated(nc.PostID)
	}
	return created, nil
}

func commentsPrefix(postID string) string {
	return cache.Key(OpListComments, postID)
}

// Warmup pré-carrega a primeira página da listagem padrão de posts.
func (c *Cached) Warmup(ctx context.Context) {
	p := ListParams{}.Normalize()
	memo.Warmup(ctx, c.memo, mustKey(OpListPosts, p), c.ttl, func(ctx context.Context) (PostPage, error) {
		return c.next.ListPosts(ctx, p)
	})
}

func mustKey(op string, arg any) string {
	k, _ := memo.ArgsKey(op, arg)
	return k
}
