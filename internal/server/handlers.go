package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// handleHealth reports process and database health
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if err := s.db.Conn().Ping(); err != nil {
		s.log.Error().Err(err).Msg("Database ping failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
