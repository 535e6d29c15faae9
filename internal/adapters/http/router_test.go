package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Telecall/internal/app"
	"github.com/dkeye/Telecall/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type fakeDirectory struct {
	mu       sync.Mutex
	upserts  []string
	deleted  []string
	restored []string
	err      error
}

func (d *fakeDirectory) UpsertUser(_ context.Context, id, name, role string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.upserts = append(d.upserts, id+"|"+name+"|"+role)
	return nil
}

func (d *fakeDirectory) DeleteUser(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, id)
	return nil
}

func (d *fakeDirectory) RestoreUser(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.restored = append(d.restored, id)
	return nil
}

func (d *fakeDirectory) UserToken(id string) (string, error) {
	return "token-" + id, nil
}

type fakeSynth struct {
	audio []byte
	err   error
}

func (s fakeSynth) Synthesize(context.Context, string) ([]byte, error) {
	return s.audio, s.err
}

func newTestRouter(t *testing.T, deps Deps) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Mode:       "test",
		StaticPath: t.TempDir(),
		AudioPath:  filepath.Join(t.TempDir(), "audio"),
		ReadLimit:  32768,
		PingPeriod: time.Minute,
		Secret:     "test-secret",
		SendBuffer: 16,
	}
	if deps.Coord == nil {
		deps.Coord = app.NewCoordinator(app.NewRegistry(), app.Options{})
	}
	return SetupRouter(context.Background(), cfg, deps), cfg
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthAndState(t *testing.T) {
	r, _ := newTestRouter(t, Deps{})

	if w := do(r, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	w := do(r, http.MethodGet, "/api/presence", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"users":[]}` {
		t.Fatalf("presence: %d %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodGet, "/api/calls", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"calls":[]}` {
		t.Fatalf("calls: %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodPost, "/generateToken", `{"userId":"1"}`); w.Code != http.StatusNotFound {
		t.Fatalf("token routes should be off without a directory, got %d", w.Code)
	}
}

func TestGenerateToken(t *testing.T) {
	dir := &fakeDirectory{}
	r, _ := newTestRouter(t, Deps{Directory: dir})

	if w := do(r, http.MethodPost, "/generateToken", `{"name":"x"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing userId: %d", w.Code)
	}

	w := do(r, http.MethodPost, "/generateToken", `{"userId":"42","name":"Dr. Who","role":"Doctor"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("generate: %d %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["token"]; got != "token-42" {
		t.Fatalf("unexpected token: %v", got)
	}
	if len(dir.upserts) != 1 || dir.upserts[0] != "42|Dr. Who|Doctor" {
		t.Fatalf("unexpected upserts: %v", dir.upserts)
	}
	if !strings.Contains(strings.Join(w.Header().Values("Set-Cookie"), ";"), "TelecallSessions=") {
		t.Fatalf("session cookie not set: %v", w.Header().Values("Set-Cookie"))
	}

	dir.err = errors.New("directory down")
	w = do(r, http.MethodPost, "/generateToken", `{"userId":"43"}`)
	if w.Code != http.StatusInternalServerError || decode(t, w)["error"] != "directory down" {
		t.Fatalf("expected 500, got %d %s", w.Code, w.Body.String())
	}
}

func TestRemoveAndRestoreUser(t *testing.T) {
	dir := &fakeDirectory{}
	r, _ := newTestRouter(t, Deps{Directory: dir})

	w := do(r, http.MethodDelete, "/generateToken/remove/42", "")
	if w.Code != http.StatusOK || decode(t, w)["status"] != float64(200) {
		t.Fatalf("remove: %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodPut, "/deleteUser/restore/42", ""); w.Code != http.StatusOK {
		t.Fatalf("restore via alias: %d", w.Code)
	}
	if len(dir.deleted) != 1 || len(dir.restored) != 1 || dir.restored[0] != "42" {
		t.Fatalf("unexpected calls: %v %v", dir.deleted, dir.restored)
	}

	dir.err = errors.New("nope")
	if w := do(r, http.MethodDelete, "/deleteUser/remove/42", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestAgentStoresAudio(t *testing.T) {
	audio := []byte("ID3fake-mp3")
	r, cfg := newTestRouter(t, Deps{Speech: fakeSynth{audio: audio}})

	if w := do(r, http.MethodPost, "/agent", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty message: %d", w.Code)
	}

	w := do(r, http.MethodPost, "/agent", `{"message":"hola"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("agent: %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	url, _ := body["audioUrl"].(string)
	if body["success"] != true || !strings.HasPrefix(url, "http://example.com/audio/") || !strings.HasSuffix(url, ".mp3") {
		t.Fatalf("unexpected response: %v", body)
	}

	name := strings.TrimPrefix(url, "http://example.com/audio/")
	stored, err := os.ReadFile(filepath.Join(cfg.AudioPath, name))
	if err != nil || !bytes.Equal(stored, audio) {
		t.Fatalf("audio not stored: %v", err)
	}

	w = do(r, http.MethodGet, "/audio/"+name, "")
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), audio) {
		t.Fatalf("audio not served: %d", w.Code)
	}
}

func TestAgentSynthFailure(t *testing.T) {
	r, _ := newTestRouter(t, Deps{Speech: fakeSynth{err: errors.New("quota")}})
	w := do(r, http.MethodPost, "/agent", `{"message":"hola"}`)
	if w.Code != http.StatusInternalServerError || decode(t, w)["success"] != false {
		t.Fatalf("expected 500, got %d %s", w.Code, w.Body.String())
	}
}

func TestWelcomeCarriesIssuedIdentity(t *testing.T) {
	r, _ := newTestRouter(t, Deps{Directory: &fakeDirectory{}})
	srv := httptest.NewServer(r)
	defer srv.Close()

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}
	res, err := client.Post(srv.URL+"/generateToken", "application/json", strings.NewReader(`{"userId":"42","name":"Ana"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()

	dialer := websocket.Dialer{Jar: jar}
	ws, _, err := dialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws/signal", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var welcome struct {
		Type string `json:"type"`
		Hint *struct {
			UserID      string `json:"userId"`
			DisplayName string `json:"displayName"`
		} `json:"hint"`
	}
	if err := ws.ReadJSON(&welcome); err != nil {
		t.Fatalf("read: %v", err)
	}
	if welcome.Type != "welcome" || welcome.Hint == nil || welcome.Hint.UserID != "42" || welcome.Hint.DisplayName != "Ana" {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}
}
