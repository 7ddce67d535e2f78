package web

import (
	"net/http"

	"talespin/internal/mapgen"
)

// GET /map downloads the caller's journey map.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	id := s.sessionID(r)
	if id == "" {
		http.Redirect(w, r, "/start", http.StatusFound)
		return
	}
	live, ok, err := s.Sessions.Get(ctx, id)
	if err != nil || !ok {
		http.Redirect(w, r, "/start", http.StatusFound)
		return
	}

	live.mu.Lock()
	st := live.game.State()
	journey := mapgen.Journey{
		Title:   s.Doc.Title,
		Visited: live.game.Visited(),
		Current: live.game.CurrentID(),
		State:   &st,
	}
	live.mu.Unlock()

	pdf, err := mapgen.Generate(s.Doc, journey)
	if err != nil {
		s.fail(w, r, "map", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="journey-map.pdf"`)
	if _, err := w.Write(pdf); err != nil {
		s.logf("map: write: %v", err)
	}
}
