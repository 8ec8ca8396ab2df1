package server

import "net/http"

func (s *Server) handleZoneUsage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")

	if from == "" || to == "" {
		writeError(w, "from and to parameters are required", http.StatusBadRequest)
		return
	}

	report, err := s.ZoneUsage.Usage(r.Context(), from, to)
	if err != nil {
		writeFailure(w, "failed to fetch zone usage", err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
