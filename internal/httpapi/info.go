package httpapi

import "net/http"

// Healthz handles GET /healthz: liveness/readiness probe, unauthenticated.
// Pings the pool so a DB outage surfaces here rather than only on the first
// real request.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
