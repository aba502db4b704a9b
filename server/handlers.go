package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"content-gateway/apperr"
	"content-gateway/cache"
	"content-gateway/content"
	"content-gateway/identity"
	"content-gateway/middleware/ratelimit/infra"
	"content-gateway/middleware/validate"
	"content-gateway/monitor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type handlers struct {
	log     *zap.Logger
	cache   *cache.Store
	monitor *monitor.Monitor
	content *content.Cached
	stats   *infra.MemoryStatsStore
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail traduz erros do domínio para apperr e loga o que vira 500.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
	case errors.Is(err, content.ErrNotFound):
		ae = apperr.NotFound("Post")
	case errors.Is(err, content.ErrInvalidParent):
		ae = apperr.Validation("Parent comment not found or invalid")
	case errors.Is(err, content.ErrTooManyComments):
		ae = apperr.RateLimited(time.Minute)
		ae.Message = "Too many comments in a short time"
	default:
		h.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		ae = apperr.Internal("Internal server error").WithCause(err)
	}
	apperr.Write(w, ae)
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) notFound(w http.ResponseWriter, _ *http.Request) {
	apperr.Write(w, apperr.NotFound("Resource"))
}

func (h *handlers) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := content.ListParams{
		Page:     atoiOr(q.Get("current"), atoiOr(q.Get("page"), 1)),
		PageSize: atoiOr(q.Get("pageSize"), content.DefaultPageSize),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
	}
	if v := q.Get("published"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			apperr.Write(w, apperr.Validation("published must be true or false"))
			return
		}
		p.Published = &b
	}

	page, err := h.content.ListPosts(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *handlers) listComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.content.ListComments(r.Context(), content.CommentParams{
		PostID:   chi.URLParam(r, "id"),
		Page:     atoiOr(q.Get("current"), atoiOr(q.Get("page"), 1)),
		PageSize: atoiOr(q.Get("pageSize"), content.DefaultCommentPageSize),
		Order:    q.Get("order"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handlers) createComment(w http.ResponseWriter, r *http.Request) {
	body, _ := validate.Body(r.Context())
	id, _ := identity.FromContext(r.Context())

	nc := content.NewComment{
		PostID:     chi.URLParam(r, "id"),
		AuthorID:   id.ID,
		AuthorName: id.Email,
		Content:    stringField(body, "content"),
		ParentID:   stringField(body, "parent_id"),
	}
	if name := strings.TrimSpace(stringField(body, "author_name")); name != "" {
		nc.AuthorName = name
	}

	created, err := h.content.CreateComment(r.Context(), nc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) cacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *handlers) clearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	h.log.Info("cache cleared by admin", zap.String("request_id", middleware.GetReqID(r.Context())))
	w.WriteHeader(http.StatusNoContent)
}

type perfEntry struct {
	Count int     `json:"count"`
	AvgMS float64 `json:"avg_ms"`
	MinMS float64 `json:"min_ms"`
	MaxMS float64 `json:"max_ms"`
	P50MS float64 `json:"p50_ms"`
	P95MS float64 `json:"p95_ms"`
	P99MS float64 `json:"p99_ms"`
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func (h *handlers) performance(w http.ResponseWriter, _ *http.Request) {
	out := map[string]perfEntry{}
	for op, s := range h.monitor.All() {
		out[op] = perfEntry{
			Count: s.Count,
			AvgMS: ms(s.Avg), MinMS: ms(s.Min), MaxMS: ms(s.Max),
			P50MS: ms(s.P50), P95MS: ms(s.P95), P99MS: ms(s.P99),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) rateStats(w http.ResponseWriter, _ *http.Request) {
	if h.stats == nil {
		apperr.Write(w, apperr.NotFound("Rate limit statistics"))
		return
	}
	out := map[string]any{
		"total":    h.stats.Total(),
		"by_route": h.stats.ByRoute(),
	}
	if byKey := h.stats.ByKey(); len(byKey) > 0 {
		out["by_key"] = byKey
	}
	writeJSON(w, http.StatusOK, out)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func stringField(body map[string]any, k string) string {
	s, _ := body[k].(string)
	return s
}
