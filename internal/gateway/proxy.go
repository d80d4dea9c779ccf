package gateway

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/frahmantamala/employee-management/internal/transport"
)

// NewProxy forwards requests unchanged to target, keeping the original path and query.
func NewProxy(target *url.URL, lg *slog.Logger) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Host = target.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		lg.Error("downstream request failed",
			"target", target.String(),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		transport.WriteErrorEnvelope(w, http.StatusBadGateway, "downstream service unavailable")
	}

	return proxy
}
