package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/studio"
)

const handlerReadme = `# LunchRadar

## Problem

Finding a good lunch spot takes too long.

## Solution

LunchRadar ranks nearby restaurants.
`

func newHandler(t *testing.T) *StudioHandler {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(handlerReadme), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := common.NewDefaultConfig()
	state, err := studio.NewState(context.Background(), cfg, nil, dir, false, common.GetLogger())
	if err != nil {
		t.Fatalf("NewState() error: %v", err)
	}
	return NewStudioHandler(state, common.GetLogger())
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Hint    string `json:"hint"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\n%s", err, rec.Body.String())
	}
	return env
}

func TestContextHandler(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ContextHandler(rec, httptest.NewRequest("GET", "/api/context", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !env.OK {
		t.Fatalf("expected ok envelope, got %s", rec.Body.String())
	}
	if !strings.Contains(string(env.Data), `"schema_version":"2.2"`) {
		t.Errorf("expected schema version in context, got %s", env.Data)
	}
}

func TestContextHandlerRejectsPost(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ContextHandler(rec, httptest.NewRequest("POST", "/api/context", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.OK {
		t.Error("expected error envelope")
	}
	if env.Error.Code != string(common.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %q", env.Error.Code)
	}
}

func TestSlidesHandlerUpdate(t *testing.T) {
	h := newHandler(t)

	body := `{"slides":[{"id":"slide.problem","title":"The Real Problem"}]}`
	rec := httptest.NewRecorder()
	h.SlidesHandler(rec, httptest.NewRequest("POST", "/api/slides", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.OK {
		t.Fatalf("expected ok envelope: %s", rec.Body.String())
	}
	if !strings.Contains(string(env.Data), "The Real Problem") {
		t.Errorf("expected updated title in response, got %s", env.Data)
	}
	if !strings.Contains(string(env.Data), `"quality"`) {
		t.Error("expected refreshed quality report in response")
	}
}

func TestSlidesHandlerBadJSON(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.SlidesHandler(rec, httptest.NewRequest("POST", "/api/slides", strings.NewReader("{broken")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error.Code != string(common.CodeParseError) {
		t.Errorf("expected PARSE_ERROR, got %q", env.Error.Code)
	}
}

func TestValidateHandler(t *testing.T) {
	h := newHandler(t)

	body := `{"slides":[{"id":"slide.problem","type":"problem","title":"Our game-changing idea"}]}`
	rec := httptest.NewRecorder()
	h.ValidateHandler(rec, httptest.NewRequest("POST", "/api/validate", strings.NewReader(body)))

	env := decodeEnvelope(t, rec)
	if !env.OK {
		t.Fatalf("expected ok envelope: %s", rec.Body.String())
	}
	if !strings.Contains(string(env.Data), `"passed":false`) {
		t.Errorf("expected hype language to fail, got %s", env.Data)
	}
}

func TestExportHandlerRejectsEscape(t *testing.T) {
	h := newHandler(t)

	body := `{"format":"json","output_path":"../evil.json"}`
	rec := httptest.NewRecorder()
	h.ExportHandler(rec, httptest.NewRequest("POST", "/api/export", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error.Code != string(common.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %q", env.Error.Code)
	}
}

func TestMediaHandlerUnknownID(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.MediaHandler(rec, httptest.NewRequest("GET", "/api/media/media.none/file", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSessionHandlerRoundTrip(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.SessionHandler(rec, httptest.NewRequest("PUT", "/api/session", strings.NewReader(`{"label":"checkpoint"}`)))
	env := decodeEnvelope(t, rec)
	if !env.OK {
		t.Fatalf("expected ok envelope: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.SessionHandler(rec, httptest.NewRequest("GET", "/api/session", nil))
	env = decodeEnvelope(t, rec)
	if !strings.Contains(string(env.Data), "checkpoint") {
		t.Errorf("expected snapshot label persisted, got %s", env.Data)
	}
}
