package server

import "net/http"

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Registry.AdvertisedRegions())
}

func (s *Server) handleResolutionStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Stats.Snapshot())
}

func (s *Server) handleTimeStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	samples, err := s.Stats.QueryTimings(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, "failed to read timing log", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, samples)
}
