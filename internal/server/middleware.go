package server

import (
	"net"
	"net/http"
)

// authenticate checks the X-API-Key header against the configured key.
// Authentication is disabled when no key is configured.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := s.settings.ApiKey
		if len(expected) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("X-API-Key") != expected {
			s.respondError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(identity(r)) {
			s.respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// identity keys the rate limiter: the api key when presented, otherwise the
// caller's host, otherwise a shared bucket.
func identity(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); len(key) > 0 {
		return key
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && len(host) > 0 {
		return host
	}

	if len(r.RemoteAddr) > 0 {
		return r.RemoteAddr
	}

	return "anonymous"
}
