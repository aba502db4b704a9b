package validate

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var commentRules = Options{
	Required:       true,
	MinLength:      2,
	MaxLength:      10,
	ForbiddenWords: []string{"spam"},
}

func serve(t *testing.T, opts Options, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	h := Content(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/api/posts/1/comments", strings.NewReader(body)))
	return w, called
}

func TestContent_Rejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"invalid json", `{"content":`, "Invalid request body"},
		{"not an object", `"hello"`, "Invalid request body"},
		{"missing content", `{"author_name":"x"}`, "Content is required"},
		{"empty content", `{"content":""}`, "Content is required"},
		{"too short", `{"content":"a"}`, "Content must be at least 2 characters"},
		{"too long", `{"content":"abcdefghijk"}`, "Content must not exceed 10 characters"},
		{"forbidden word any case", `{"content":"buy SPAM"}`, "Content contains inappropriate words"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, called := serve(t, commentRules, tc.body)
			assert.False(t, called)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"`+tc.msg+`"}`, w.Body.String())
		})
	}
}

func TestContent_LengthCountsRunes(t *testing.T) {
	// 10 runas, mais de 10 bytes
	w, called := serve(t, commentRules, `{"content":"çççççççççç"}`)
	assert.True(t, called)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestContent_OptionalContentMayBeAbsent(t *testing.T) {
	_, called := serve(t, Options{MinLength: 5}, `{"title":"x"}`)
	assert.True(t, called)
}

func TestContent_RestoresBodyAndSetsContext(t *testing.T) {
	var (
		raw  string
		body map[string]any
	)
	h := Content(commentRules)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		body, _ = Body(r.Context())
	}))

	payload := `{"content":"nice post","author_name":"ana"}`
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "http://example/", strings.NewReader(payload)))

	assert.Equal(t, payload, raw)
	require.NotNil(t, body)
	assert.Equal(t, "ana", body["author_name"])
}
