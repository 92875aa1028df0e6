package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/james-see/chordkeys/pkg/engine"
	"github.com/james-see/chordkeys/pkg/voice"
)

// Command is one play/stop instruction for the client to perform
type Command struct {
	Action voice.Action `json:"action"`
	Pitch  int          `json:"pitch"`
	Note   string       `json:"note"`
	MIDI   string       `json:"midi,omitempty"`
}

// session is one performance. Its mutex makes each event run to completion
// before the next one starts.
type session struct {
	mu      sync.Mutex
	id      string
	created time.Time
	engine  *engine.Engine
	rec     *voice.Recorder
}

// sessionStore holds live sessions up to a fixed limit
type sessionStore struct {
	mu       sync.Mutex
	max      int
	sessions map[string]*session
}

func newSessionStore(max int) *sessionStore {
	return &sessionStore{max: max, sessions: make(map[string]*session)}
}

// create builds a session around newEngine; false when the store is full
func (s *sessionStore) create(newEngine func(engine.Voice) *engine.Engine) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.max {
		return nil, false
	}
	rec := voice.NewRecorder()
	sess := &session{
		id:      uuid.New().String(),
		created: time.Now(),
		engine:  newEngine(rec),
		rec:     rec,
	}
	s.sessions[sess.id] = sess
	return sess, true
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *sessionStore) remove(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	return sess, ok
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// run applies fn under the session lock and returns the calls it caused
func (sess *session) run(fn func(*engine.Engine)) ([]Command, engine.State) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.rec.Drain()
	fn(sess.engine)
	return commands(sess.rec.Drain()), sess.engine.Snapshot()
}

func commands(calls []voice.Call) []Command {
	enc := voice.NewMIDI(nil)
	out := make([]Command, 0, len(calls))
	for _, c := range calls {
		cmd := Command{Action: c.Action, Pitch: c.Pitch, Note: engine.NoteName(c.Pitch)}
		if msg, ok := enc.Message(c); ok {
			cmd.MIDI = voice.Hex(msg)
		}
		out = append(out, cmd)
	}
	return out
}
