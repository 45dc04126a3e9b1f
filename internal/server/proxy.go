package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/cataloro/cataloro/internal/errors"
	"github.com/cataloro/cataloro/internal/observability"
)

// proxyBodyLimit bounds buffered request bodies. Buffering is what makes a
// forwarded request replayable after a 429.
const proxyBodyLimit = 10 << 20

// hopByHopHeaders are dropped when copying headers across the proxy, per
// RFC 7230 §6.1. Keys are in canonical form.
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

func copyProxyHeaders(dst, src http.Header) {
	for key, values := range src {
		if _, skip := hopByHopHeaders[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// proxyHandler forwards the request upstream through the shared dispatcher.
// An active backoff window or an exhausted retry chain turns into a locally
// synthesized 429 with Retry-After; a transport failure becomes a 502. Every
// other upstream response streams back unchanged.
func (s *Server) proxyHandler(w http.ResponseWriter, r *http.Request) {
	outReq, err := s.buildUpstreamRequest(r)
	if err != nil {
		HandleError(w, r, apperrors.WrapValidationError(r.Context(), err, "Cannot forward request upstream"))
		return
	}

	resp, err := s.dispatcher.RoundTrip(outReq)
	if err != nil {
		HandleError(w, r, apperrors.FromDispatchError(r.Context(), err, s.now()))
		return
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	copyProxyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		if logger := observability.ServerLogger; logger != nil {
			logger.Warn("Failed to stream upstream response",
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
	}
}

// buildUpstreamRequest rebuilds the inbound request against the upstream
// root, preserving path, query, and headers minus the hop-by-hop set.
func (s *Server) buildUpstreamRequest(r *http.Request) (*http.Request, error) {
	target := *s.upstream
	target.Path = strings.TrimSuffix(target.Path, "/") + r.URL.Path
	target.RawQuery = r.URL.RawQuery

	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(io.LimitReader(r.Body, proxyBodyLimit+1))
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		if int64(len(data)) > proxyBodyLimit {
			return nil, fmt.Errorf("request body exceeds %d bytes", proxyBodyLimit)
		}
		body = data
	}

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	copyProxyHeaders(outReq.Header, r.Header)

	// A caller's own Authorization header wins over the stored token.
	if s.token != "" && outReq.Header.Get("Authorization") == "" {
		outReq.Header.Set("Authorization", "Bearer "+s.token)
	}

	return outReq, nil
}

// now mirrors the dispatcher clock so Retry-After values line up with the
// recorded backoff windows.
func (s *Server) now() time.Time {
	if s.dispatcher != nil && s.dispatcher.Clock != nil {
		return s.dispatcher.Clock()
	}
	return time.Now().UTC()
}
