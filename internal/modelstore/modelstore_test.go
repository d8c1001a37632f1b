package modelstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
)

func TestDefaultLocalModelIsInstallable(t *testing.T) {
	cfg := common.NewDefaultConfig()
	if _, ok := BuiltinModels[cfg.Local.Model]; !ok {
		t.Errorf("default local model %q is not a builtin catalog alias", cfg.Local.Model)
	}
}

func TestListShowsCatalogWithInstallState(t *testing.T) {
	store := NewAt(t.TempDir(), nil, common.GetLogger())

	rows := store.List()
	if len(rows) != len(BuiltinModels) {
		t.Fatalf("expected %d catalog rows, got %d", len(BuiltinModels), len(rows))
	}
	for _, row := range rows {
		if row.Installed {
			t.Errorf("fresh store should have nothing installed, got %q", row.Alias)
		}
		if row.License == "" {
			t.Errorf("alias %q has no license", row.Alias)
		}
	}
	if rows[0].Alias > rows[1].Alias {
		t.Error("rows should be sorted by alias")
	}
}

func TestInstallUnknownAlias(t *testing.T) {
	store := NewAt(t.TempDir(), nil, common.GetLogger())

	_, err := store.Install(context.Background(), "gpt-99", false)
	if err == nil {
		t.Fatal("expected error for unknown alias")
	}
	if common.CodeOf(err) != common.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", common.CodeOf(err))
	}
}

func TestInstallDownloadsAndRegisters(t *testing.T) {
	payload := []byte("gguf-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	root := t.TempDir()
	// Route all requests to the fixture server regardless of host.
	client := &http.Client{Transport: &rewriteTransport{target: server.URL}}
	store := NewAt(root, client, common.GetLogger())

	alias := "qwen2.5-3b-instruct-q4_k_m"
	path, err := store.Install(context.Background(), alias, false)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("installed file unreadable: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("installed file content mismatch")
	}

	if got := store.ResolvePath(alias); got != path {
		t.Errorf("ResolvePath = %q, want %q", got, path)
	}

	var installedCount int
	for _, row := range store.List() {
		if row.Installed {
			installedCount++
		}
	}
	if installedCount != 1 {
		t.Errorf("expected 1 installed model, got %d", installedCount)
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	root := t.TempDir()
	alias := "qwen2.5-3b-instruct-q4_k_m"
	target := filepath.Join(root, alias, "model.gguf")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	// nil-transport client would fail if a download were attempted
	store := NewAt(root, &http.Client{Transport: failingTransport{}}, common.GetLogger())

	path, err := store.Install(context.Background(), alias, false)
	if err != nil {
		t.Fatalf("Install of existing model failed: %v", err)
	}
	if path != target {
		t.Errorf("expected %q, got %q", target, path)
	}
}

func TestResolvePathMissing(t *testing.T) {
	store := NewAt(t.TempDir(), nil, common.GetLogger())
	if path := store.ResolvePath("qwen2.5-3b-instruct-q4_k_m"); path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
}

type rewriteTransport struct {
	target string
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected, err := http.NewRequestWithContext(req.Context(), req.Method, rt.target+req.URL.Path, req.Body)
	if err != nil {
		return nil, err
	}
	return http.DefaultTransport.RoundTrip(redirected)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	panic("unexpected network call")
}
