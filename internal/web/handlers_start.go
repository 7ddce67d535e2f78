package web

import (
	"net/http"
)

// GET /start shows the story's title page.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	vm := StartViewModel{
		Title:       s.Doc.Title,
		Author:      s.Doc.Author,
		Description: s.Doc.Description,
		Resume:      s.hasLive(r),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Tmpl.ExecuteTemplate(w, "start.html", vm); err != nil {
		s.logf("render start.html: %v", err)
	}
}

// POST /begin drops the caller's session, if any, and starts a fresh one
// at the story's start node.
func (s *Server) handleBegin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	if id := s.sessionID(r); id != "" {
		if old, ok, _ := s.Sessions.Get(ctx, id); ok {
			if err := s.drop(ctx, id, old); err != nil {
				s.logf("begin: drop session %s: %v", id, err)
			}
		}
	}
	if _, err := s.newLive(ctx, w); err != nil {
		s.fail(w, r, "begin", err)
		return
	}
	http.Redirect(w, r, "/play", http.StatusSeeOther)
}

func (s *Server) hasLive(r *http.Request) bool {
	id := s.sessionID(r)
	if id == "" {
		return false
	}
	_, ok, err := s.Sessions.Get(r.Context(), id)
	return err == nil && ok
}
