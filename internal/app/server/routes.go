package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"linktrace/internal/activity"
	"linktrace/internal/regions"
	"linktrace/internal/resolver"
	"linktrace/internal/stats"
	"linktrace/internal/zoneusage"
)

// Server wires the HTTP surface to the resolution engine and its
// collaborators.
type Server struct {
	Resolver  *resolver.Resolver
	Registry  *regions.Registry
	Stats     *stats.Aggregator
	ZoneUsage *zoneusage.Client
	Activity  activity.Recorder
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeFailure(w http.ResponseWriter, msg, details string, status int) {
	writeJSON(w, status, map[string]string{"error": msg, "details": details})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Allow any origin
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Pass the request to the next handler
		next.ServeHTTP(w, r)
	})
}

// Routes builds the request mux. Exposed separately from OpenRoutes so
// tests can drive it through httptest.
func (s *Server) Routes() http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /resolve", s.handleResolve)
	router.HandleFunc("GET /resolve-multiple", s.handleResolveMultiple)
	router.HandleFunc("GET /regions", s.handleRegions)
	router.HandleFunc("GET /resolution-stats", s.handleResolutionStats)
	router.HandleFunc("GET /time-stats", s.handleTimeStats)
	router.HandleFunc("GET /zone-usage", s.handleZoneUsage)
	router.HandleFunc("GET /health", s.handleHealth)

	return enableCORS(router)
}

func (s *Server) OpenRoutes(port int) error {
	log.Debug("Routes opened")

	server := http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}

	log.Infof("Starting server on port :%d", port)
	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
