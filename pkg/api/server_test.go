package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/james-see/chordkeys/pkg/engine"
	"github.com/james-see/chordkeys/pkg/voice"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(opts Options) (*Server, http.Handler) {
	s := NewServer(opts)
	return s, s.Handler(gin.New())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad JSON %q: %v", w.Body.String(), err)
	}
	return v
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d", w.Code)
	}
	return decode[SessionResponse](t, w).ID
}

func pitches(cmds []Command, action voice.Action) []int {
	var out []int
	for _, c := range cmds {
		if c.Action == action {
			out = append(out, c.Pitch)
		}
	}
	return out
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(Options{})
	for _, path := range []string{"/health", "/api/v1/health"} {
		w := do(t, h, http.MethodGet, path, "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
			t.Errorf("GET %s = %d %s", path, w.Code, w.Body.String())
		}
	}
}

func TestListKeys(t *testing.T) {
	_, h := newTestServer(Options{})
	w := do(t, h, http.MethodGet, "/api/v1/keymap", "")
	body := decode[map[string][]KeyEntry](t, w)
	if len(body["keys"]) != 48 {
		t.Fatalf("got %d keys", len(body["keys"]))
	}
	if first := body["keys"][0]; first.Code != "KeyB" || first.Kind != "playable" {
		t.Errorf("first key = %+v", first)
	}
}

func TestPreviewChord(t *testing.T) {
	_, h := newTestServer(Options{})
	w := do(t, h, http.MethodGet, "/api/v1/chord?offset=0&quality=min", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Left struct {
			Pitches []int    `json:"pitches"`
			Notes   []string `json:"notes"`
		} `json:"left"`
		Right struct {
			Pitch int `json:"pitch"`
		} `json:"right"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(body.Left.Pitches, []int{24, 31, 36, 39}) {
		t.Errorf("left = %v", body.Left.Pitches)
	}
	if body.Left.Notes[3] != "D#3" || body.Right.Pitch != 48 {
		t.Errorf("body = %+v", body)
	}

	for _, q := range []string{"offset=x", "quality=sus", "inversion=left", "octave=2", "style=C", "transposition=z"} {
		if w := do(t, h, http.MethodGet, "/api/v1/chord?"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", q, w.Code)
		}
	}
}

func TestSessionFlow(t *testing.T) {
	_, h := newTestServer(Options{})
	id := createSession(t, h)
	base := "/api/v1/sessions/" + id

	w := do(t, h, http.MethodPost, base+"/keydown", `{"code":"KeyR"}`)
	resp := decode[KeyResponse](t, w)
	if !resp.Mapped || !reflect.DeepEqual(pitches(resp.Commands, voice.ActionPlay), []int{24, 31, 36, 40}) {
		t.Fatalf("keydown KeyR = %+v", resp)
	}
	if resp.Commands[0].Note != "C2" || resp.Commands[0].MIDI != "90 24 64" {
		t.Errorf("first command = %+v", resp.Commands[0])
	}

	resp = decode[KeyResponse](t, do(t, h, http.MethodPost, base+"/keydown", `{"code":"KeyS"}`))
	if len(resp.Commands) != 0 || resp.State.Left.Quality != "min" {
		t.Errorf("keydown KeyS = %+v", resp)
	}

	resp = decode[KeyResponse](t, do(t, h, http.MethodPost, base+"/keydown", `{"code":"KeyR"}`))
	if !reflect.DeepEqual(pitches(resp.Commands, voice.ActionStop), []int{24, 31, 36, 40}) ||
		!reflect.DeepEqual(pitches(resp.Commands, voice.ActionPlay), []int{24, 31, 36, 39}) {
		t.Errorf("second KeyR commands = %+v", resp.Commands)
	}
	if resp.Commands[0].Action != voice.ActionStop {
		t.Error("stop must come before play")
	}

	resp = decode[KeyResponse](t, do(t, h, http.MethodPost, base+"/keyup", `{"code":"KeyS"}`))
	if resp.State.Left.Quality != "" || len(resp.Commands) != 0 {
		t.Errorf("keyup KeyS = %+v", resp)
	}

	resp = decode[KeyResponse](t, do(t, h, http.MethodPost, base+"/keydown", `{"code":"F12"}`))
	if resp.Mapped {
		t.Error("F12 reported as mapped")
	}

	got := decode[SessionResponse](t, do(t, h, http.MethodGet, base, ""))
	if got.ID != id || !reflect.DeepEqual(got.State.PreviousLeft, []int{24, 31, 36, 39}) {
		t.Errorf("get session = %+v", got)
	}

	w = do(t, h, http.MethodDelete, base, "")
	resp = decode[KeyResponse](t, w)
	if !reflect.DeepEqual(pitches(resp.Commands, voice.ActionStop), []int{24, 31, 36, 39}) {
		t.Errorf("delete commands = %+v", resp.Commands)
	}
	if w := do(t, h, http.MethodGet, base, ""); w.Code != http.StatusNotFound {
		t.Errorf("deleted session status %d", w.Code)
	}
}

func TestSessionErrors(t *testing.T) {
	_, h := newTestServer(Options{MaxSessions: 1})
	id := createSession(t, h)

	if w := do(t, h, http.MethodPost, "/api/v1/sessions", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("second session status %d, want 429", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/v1/sessions/"+id+"/keydown", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty body status %d, want 400", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/v1/sessions/nope/keydown", `{"code":"KeyR"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown session status %d, want 404", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/api/v1/sessions/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("delete unknown status %d, want 404", w.Code)
	}
}

func TestGuardAndServerVoice(t *testing.T) {
	shared := voice.NewRecorder()
	var mu sync.Mutex
	_, h := newTestServer(Options{
		Style: engine.StyleB,
		Voice: lockedVoice{&mu, shared},
		Guard: func(v engine.Voice) engine.Voice { return voice.NewRange(v, 0, 84, voice.PolicyIgnore) },
	})
	id := createSession(t, h)
	base := "/api/v1/sessions/" + id

	// transpose far up so the right hand leaves the piano
	for i := 0; i < 40; i++ {
		do(t, h, http.MethodPost, base+"/keydown", `{"code":"Digit7"}`)
	}
	resp := decode[KeyResponse](t, do(t, h, http.MethodPost, base+"/keydown", `{"code":"KeyN"}`))
	if len(resp.Commands) != 0 {
		t.Errorf("out of range note reached the client: %+v", resp.Commands)
	}
	if !resp.State.HasRight || resp.State.PreviousRight != 88 {
		t.Errorf("state = %+v", resp.State)
	}

	resp = decode[KeyResponse](t, do(t, h, http.MethodPost, base+"/keydown", `{"code":"KeyR"}`))
	if len(resp.Commands) != 4 {
		t.Errorf("commands = %+v", resp.Commands)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(shared.Calls()) != 4 {
		t.Errorf("server voice calls = %v", shared.Calls())
	}
}

func TestSessionsShareServerVoice(t *testing.T) {
	shared := voice.NewRecorder()
	var mu sync.Mutex
	_, h := newTestServer(Options{Voice: lockedVoice{&mu, shared}})
	a := "/api/v1/sessions/" + createSession(t, h)
	b := "/api/v1/sessions/" + createSession(t, h)

	do(t, h, http.MethodPost, a+"/keydown", `{"code":"KeyN"}`)
	do(t, h, http.MethodPost, b+"/keydown", `{"code":"KeyN"}`)
	resp := decode[KeyResponse](t, do(t, h, http.MethodPost, b+"/keydown", `{"code":"Space"}`))
	if got := pitches(resp.Commands, voice.ActionStop); !reflect.DeepEqual(got, []int{48}) {
		t.Errorf("session b stops = %v, want [48]", got)
	}

	mu.Lock()
	got := shared.Drain()
	mu.Unlock()
	if expected := []voice.Call{{Action: voice.ActionPlay, Pitch: 48}}; !reflect.DeepEqual(got, expected) {
		t.Errorf("server voice after b cleared = %v, want %v", got, expected)
	}

	state := decode[SessionResponse](t, do(t, h, http.MethodGet, a, "")).State
	if !state.HasRight || state.PreviousRight != 48 {
		t.Errorf("session a state = %+v", state)
	}

	do(t, h, http.MethodPost, a+"/keydown", `{"code":"Space"}`)
	mu.Lock()
	got = shared.Drain()
	mu.Unlock()
	if expected := []voice.Call{{Action: voice.ActionStop, Pitch: 48}}; !reflect.DeepEqual(got, expected) {
		t.Errorf("server voice after a cleared = %v, want %v", got, expected)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(Options{AllowedOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

type lockedVoice struct {
	mu *sync.Mutex
	v  engine.Voice
}

func (l lockedVoice) PlayNote(p int) { l.mu.Lock(); defer l.mu.Unlock(); l.v.PlayNote(p) }
func (l lockedVoice) StopNote(p int) { l.mu.Lock(); defer l.mu.Unlock(); l.v.StopNote(p) }
