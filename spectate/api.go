package spectate

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/brensch/snekarena/store"
)

// Server exposes the spectator feed plus read-only leaderboard endpoints.
type Server struct {
	hub   *Hub
	board *store.Leaderboard
}

// NewServer wires the routes; board may be nil, in which case the API routes
// answer 404.
func NewServer(hub *Hub, board *store.Leaderboard) *Server {
	return &Server{hub: hub, board: board}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/ws", s.hub)
	mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/api/games/", s.handleGameResults)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.board == nil {
		http.NotFound(w, r)
		return
	}
	top, err := s.board.Top(r.Context(), parseIntQuery(r, "limit", 10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, top)
}

func (s *Server) handleGameResults(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.board == nil {
		http.NotFound(w, r)
		return
	}

	// /api/games/{id}/results
	rest := strings.TrimPrefix(r.URL.Path, "/api/games/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "results" {
		http.NotFound(w, r)
		return
	}
	gameID, err := url.PathUnescape(parts[0])
	if err != nil {
		http.Error(w, "bad game id", http.StatusBadRequest)
		return
	}
	results, err := s.board.GameResults(r.Context(), gameID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(results) == 0 {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, results)
}

func withCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
