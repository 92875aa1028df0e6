// Package api provides the REST API server for chordkeys
package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/james-see/chordkeys/pkg/engine"
	"github.com/james-see/chordkeys/pkg/keymap"
	"github.com/james-see/chordkeys/pkg/voice"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title chordkeys API
// @version 1.0
// @description Forward KeyboardEvent.code presses and receive the notes to play
// @host localhost:8080
// @BasePath /api/v1

// Options configures the API server
type Options struct {
	Style          engine.InversionStyle
	MaxSessions    int
	AllowedOrigins []string
	// Guard wraps each session's voice chain, e.g. a range guard
	Guard func(engine.Voice) engine.Voice
	// Voice, when set, also sounds every session on the server. Sessions
	// share it through one refcount, so a pitch held by any session keeps
	// sounding.
	Voice  engine.Voice
	Logger *slog.Logger
}

// Server holds the live performance sessions
type Server struct {
	opts     Options
	sessions *sessionStore
	log      *slog.Logger
}

// KeyRequest is the body of the keydown/keyup endpoints
type KeyRequest struct {
	Code string `json:"code" binding:"required"`
}

// KeyResponse reports what one key event did
type KeyResponse struct {
	Mapped   bool         `json:"mapped"`
	Commands []Command    `json:"commands"`
	State    engine.State `json:"state"`
}

// SessionResponse describes a session
type SessionResponse struct {
	ID    string       `json:"id"`
	State engine.State `json:"state"`
}

// KeyEntry is one row of the key map listing
type KeyEntry struct {
	Code        string `json:"code"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// NewServer creates a Server
func NewServer(opts Options) *Server {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 64
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Voice != nil {
		opts.Voice = voice.NewRefcount(opts.Voice)
	}
	return &Server{
		opts:     opts,
		sessions: newSessionStore(opts.MaxSessions),
		log:      opts.Logger,
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router(r *gin.Engine) *gin.Engine {
	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/keymap", listKeys)
		v1.GET("/chord", previewChord)
		v1.POST("/sessions", s.createSession)
		v1.GET("/sessions/:id", s.getSession)
		v1.DELETE("/sessions/:id", s.deleteSession)
		v1.POST("/sessions/:id/keydown", s.keyDown)
		v1.POST("/sessions/:id/keyup", s.keyUp)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// Handler wraps the router with CORS handling
func (s *Server) Handler(r *gin.Engine) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.Router(r))
}

// StartServer starts the API server on the specified port
func StartServer(port int, opts Options) error {
	s := NewServer(opts)
	s.log.Info("api server listening", "port", port, "max_sessions", s.opts.MaxSessions)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.Handler(gin.Default()))
}

func (s *Server) newEngine(rec engine.Voice) *engine.Engine {
	var v engine.Voice = rec
	if s.opts.Voice != nil {
		v = voice.Fanout{rec, s.opts.Voice}
	}
	if s.opts.Guard != nil {
		v = s.opts.Guard(v)
	}
	return engine.New(v, engine.WithInversionStyle(s.opts.Style), engine.WithLogger(s.log))
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "chordkeys",
	})
}

// listKeys godoc
// @Summary List the key map
// @Description Returns every mapped KeyboardEvent.code and its effect
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]KeyEntry
// @Router /api/v1/keymap [get]
func listKeys(c *gin.Context) {
	entries := keymap.Default().Entries()
	out := make([]KeyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, KeyEntry{Code: e.Code, Kind: e.Effect.Kind(), Description: keymap.Describe(e.Effect)})
	}
	c.JSON(http.StatusOK, gin.H{"keys": out})
}

// previewChord godoc
// @Summary Compute a chord without playing it
// @Description Returns the left-hand chord and right-hand note for an offset and modifiers
// @Tags info
// @Produce json
// @Param offset query int false "Offset in semitones (default 0)"
// @Param quality query string false "maj, maj7, dom7, min, min7, aug or dim"
// @Param inversion query string false "up or down"
// @Param octave query string false "up or down"
// @Param transposition query int false "Global transposition (default 24)"
// @Param style query string false "Inversion style A or B"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/chord [get]
func previewChord(c *gin.Context) {
	state := engine.NewState()

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
		return
	}
	if t := c.Query("transposition"); t != "" {
		if state.Transposition, err = strconv.Atoi(t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "transposition must be an integer"})
			return
		}
	}
	q, ok := keymap.ParseQuality(c.Query("quality"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown quality"})
		return
	}
	inv, ok := keymap.ParseDirection(c.Query("inversion"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "inversion must be up or down"})
		return
	}
	oct, ok := keymap.ParseDirection(c.Query("octave"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "octave must be up or down"})
		return
	}
	style, err := engine.ParseInversionStyle(c.Query("style"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state.Left = engine.LeftModifiers{Inversion: inv, Quality: q}
	state.Right = engine.RightModifiers{Octave: oct}

	left := engine.LeftChord(state, offset, style)
	right := engine.RightNote(state, offset)
	c.JSON(http.StatusOK, gin.H{
		"left":  gin.H{"pitches": left, "notes": engine.NoteNames(left), "quality": q.Label()},
		"right": gin.H{"pitch": right, "note": engine.NoteName(right)},
	})
}

// createSession godoc
// @Summary Start a performance session
// @Tags sessions
// @Produce json
// @Success 201 {object} SessionResponse
// @Failure 429 {object} map[string]string
// @Router /api/v1/sessions [post]
func (s *Server) createSession(c *gin.Context) {
	sess, ok := s.sessions.create(s.newEngine)
	if !ok {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "session limit reached"})
		return
	}
	s.log.Info("session created", "id", sess.id, "sessions", s.sessions.len())
	c.JSON(http.StatusCreated, SessionResponse{ID: sess.id, State: sess.engine.Snapshot()})
}

// getSession godoc
// @Summary Get session state
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/sessions/{id} [get]
func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	_, state := sess.run(func(*engine.Engine) {})
	c.JSON(http.StatusOK, SessionResponse{ID: sess.id, State: state})
}

// deleteSession godoc
// @Summary End a session, silencing both hands
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} KeyResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/sessions/{id} [delete]
func (s *Server) deleteSession(c *gin.Context) {
	sess, ok := s.sessions.remove(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	cmds, state := sess.run(func(e *engine.Engine) { e.Apply(keymap.Clear{Hand: keymap.Both}) })
	s.log.Info("session ended", "id", sess.id, "sessions", s.sessions.len())
	c.JSON(http.StatusOK, KeyResponse{Mapped: true, Commands: cmds, State: state})
}

// keyDown godoc
// @Summary Press a key
// @Description Applies a key-down of a KeyboardEvent.code and returns the notes to stop and play
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param key body KeyRequest true "Physical key"
// @Success 200 {object} KeyResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/sessions/{id}/keydown [post]
func (s *Server) keyDown(c *gin.Context) {
	s.handleKey(c, (*engine.Engine).KeyDown)
}

// keyUp godoc
// @Summary Release a key
// @Description Applies a key-up; only modifier keys change anything
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param key body KeyRequest true "Physical key"
// @Success 200 {object} KeyResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/sessions/{id}/keyup [post]
func (s *Server) keyUp(c *gin.Context) {
	s.handleKey(c, (*engine.Engine).KeyUp)
}

func (s *Server) handleKey(c *gin.Context, apply func(*engine.Engine, string) bool) {
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"code\": \"KeyR\"}"})
		return
	}

	var mapped bool
	cmds, state := sess.run(func(e *engine.Engine) { mapped = apply(e, req.Code) })
	c.JSON(http.StatusOK, KeyResponse{Mapped: mapped, Commands: cmds, State: state})
}
