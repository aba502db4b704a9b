package server

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"content-gateway/apperr"

	"go.uber.org/zap"
)

// NewUpstream cria o reverse proxy para o frontend que renderiza as páginas.
func NewUpstream(rawURL string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		apperr.Write(w, &apperr.Error{Kind: apperr.KindUpstream, Message: "Bad gateway", Status: http.StatusBadGateway})
	}
	return proxy, nil
}
