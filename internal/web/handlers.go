// Package web serves the story over HTTP: htmx fragments for play, JSON for
// state, save slots and a downloadable journey map.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"talespin/internal/enhance"
	"talespin/internal/game"
	"talespin/internal/save"
	"talespin/internal/session"
	"talespin/internal/story"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// Server hosts one story for many players. Each browser gets its own game
// session, kept in Sessions under a cookie id.
type Server struct {
	Doc      *story.Document
	Sessions session.Store[*Live]
	Saves    session.Store[[]byte]
	Tmpl     *template.Template
	Codec    save.Codec
	Strict   bool
	MediaDir string // holds scenery/ and audio/ overrides; empty serves generated scenery only

	// Generator, when set, rewrites short passages in the background.
	Generator      enhance.Generator
	EnhanceTimeout time.Duration

	// IdleTimeout is how long a session may go untouched before Sweep
	// closes it; zero means defaultIdleTimeout.
	IdleTimeout time.Duration
	Now         func() time.Time

	Logger *log.Logger
	Tracer trace.Tracer
}

// Live is one player's session. Handlers hold mu for the whole request.
type Live struct {
	mu    sync.Mutex
	game  *game.Session
	coord *enhance.Coordinator
	last  *game.CheckResult
	seen  atomic.Int64 // unix nanos of the latest request
}

const cookieName = "talespin_sid"

func (s *Server) Routes() http.Handler {
	if s.Tmpl == nil {
		s.Tmpl = Templates()
	}
	if s.Sessions == nil {
		s.Sessions = session.NewMemoryStore[*Live]()
	}
	if s.Saves == nil {
		s.Saves = session.NewMemoryStore[[]byte]()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/start", s.traced("start", s.handleStart))
	mux.Handle("/begin", s.traced("begin", s.handleBegin))
	mux.Handle("/play", s.traced("play", s.handlePlay))
	mux.Handle("/choose", s.traced("choose", s.handleChoose))
	mux.Handle("/state", s.traced("state", s.handleState))
	mux.Handle("/save", s.traced("save", s.handleSave))
	mux.Handle("/load", s.traced("load", s.handleLoad))
	mux.Handle("/map", s.traced("map", s.handleMap))
	mux.HandleFunc("/media/", s.handleMedia)
	return mux
}

func (s *Server) traced(name string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := s.Tracer
		if tracer == nil {
			tracer = noop.NewTracerProvider().Tracer("web")
		}
		ctx, span := tracer.Start(r.Context(), "web."+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("http.method", r.Method)),
		)
		defer span.End()
		h(w, r.WithContext(ctx))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/start", http.StatusFound)
}

// GET /play renders the full page for the caller's session.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	live, err := s.liveSession(r.Context(), w, r)
	if err != nil {
		s.fail(w, r, "play", err)
		return
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	s.render(w, "layout.html", s.makeViewModel(live, ""), http.StatusOK)
}

// POST /choose takes form field "choice" (the index) and answers with the
// #game fragment.
func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	index, err := strconv.Atoi(r.FormValue("choice"))
	if err != nil {
		http.Error(w, "choice must be a number", http.StatusBadRequest)
		return
	}
	live, err := s.liveSession(r.Context(), w, r)
	if err != nil {
		s.fail(w, r, "choose", err)
		return
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	res, err := live.game.SelectChoice(index)
	msg := ""
	status := http.StatusOK
	if err != nil {
		msg = userMessage(err)
		status = statusFor(err)
		if r.Header.Get("HX-Request") == "true" {
			status = http.StatusOK // htmx only swaps 2xx responses
		}
	} else {
		live.last = res.Check
	}
	s.render(w, "game.html", s.makeViewModel(live, msg), status)
}

// GET /state reports the session as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	live, err := s.liveSession(r.Context(), w, r)
	if err != nil {
		s.fail(w, r, "state", err)
		return
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	writeJSON(w, http.StatusOK, s.stateView(live))
}

// POST /save stores the session. Form field "slot" reuses a slot id;
// without it a new one is issued.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	live, err := s.liveSession(ctx, w, r)
	if err != nil {
		s.fail(w, r, "save", err)
		return
	}
	live.mu.Lock()
	b, err := s.Codec.Encode(live.game)
	node := live.game.CurrentID()
	live.mu.Unlock()
	if err != nil {
		s.fail(w, r, "save", err)
		return
	}

	slot := r.FormValue("slot")
	if slot == "" {
		slot = s.Saves.NewID()
	}
	title := s.Doc.Title + " / " + node
	if titled, ok := s.Saves.(interface {
		PutTitled(ctx context.Context, id, title string, v []byte) error
	}); ok {
		err = titled.PutTitled(ctx, slot, title, b)
	} else {
		err = s.Saves.Put(ctx, slot, b)
	}
	if err != nil {
		s.fail(w, r, "save", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"slot": slot, "current_node": node})
}

// POST /load restores form field "slot" into the caller's session.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	slot := r.FormValue("slot")
	b, ok, err := s.Saves.Get(ctx, slot)
	if err != nil {
		s.fail(w, r, "load", err)
		return
	}
	if !ok {
		http.Error(w, "no such save", http.StatusNotFound)
		return
	}
	live, err := s.liveSession(ctx, w, r)
	if err != nil {
		s.fail(w, r, "load", err)
		return
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	if _, err := save.Load(live.game, b); err != nil {
		s.fail(w, r, "load", err)
		return
	}
	live.last = nil
	if r.Header.Get("HX-Request") == "true" {
		s.render(w, "game.html", s.makeViewModel(live, "Game loaded."), http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, s.stateView(live))
}

// liveSession returns the caller's session, creating it (and the cookie)
// on first contact.
func (s *Server) liveSession(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Live, error) {
	if id := s.sessionID(r); id != "" {
		live, ok, err := s.Sessions.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			live.touch(s.now())
			return live, nil
		}
	}
	return s.newLive(ctx, w)
}

func (s *Server) newLive(ctx context.Context, w http.ResponseWriter) (*Live, error) {
	live, err := s.startSession()
	if err != nil {
		return nil, err
	}
	live.touch(s.now())
	id := s.Sessions.NewID()
	if err := s.Sessions.Put(ctx, id, live); err != nil {
		live.close()
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return live, nil
}

func (s *Server) startSession() (*Live, error) {
	opts := []game.Option{game.WithStrict(s.Strict), game.WithLogger(s.Logger)}
	live := &Live{}
	if s.Generator != nil {
		opts = append(opts, game.WithEnhancement(true))
		live.coord = enhance.NewCoordinator(s.Generator, s.EnhanceTimeout, s.Logger)
	}
	live.game = game.NewSession(opts...)
	if live.coord != nil {
		live.game.Subscribe(live.coord.Listener())
		go live.coord.Apply(live.game, &live.mu)
	}
	live.mu.Lock()
	err := live.game.Load(s.Doc)
	live.mu.Unlock()
	if err != nil {
		live.close()
		return nil, err
	}
	return live, nil
}

func (l *Live) close() {
	if l.coord != nil {
		l.coord.Close()
	}
}

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) render(w http.ResponseWriter, name string, vm ViewModel, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.Tmpl.ExecuteTemplate(w, name, vm); err != nil {
		s.logf("render %s: %v", name, err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, where string, err error) {
	s.logf("%s %s: %s: %v", r.Method, r.URL.Path, where, err)
	http.Error(w, userMessage(err), statusFor(err))
}

func (s *Server) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidChoiceIndex):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrConditionNotMet):
		return http.StatusConflict
	case errors.Is(err, game.ErrNodeNotFound):
		return http.StatusConflict
	case errors.Is(err, game.ErrCorruptSave),
		errors.Is(err, game.ErrConditionUnparsed),
		errors.Is(err, game.ErrEffectInvalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrConditionNotMet):
		return "That path is closed to you for now."
	case errors.Is(err, game.ErrInvalidChoiceIndex):
		return "There is no such choice here."
	case errors.Is(err, game.ErrCorruptSave):
		return "That save could not be read."
	default:
		return err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
