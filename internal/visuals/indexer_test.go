package visuals

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestIndexer() *Indexer {
	cfg := common.NewDefaultConfig()
	return NewIndexer(&cfg.Visuals, &cfg.Analyzer, nil, common.GetLogger())
}

func TestProbeImagePNG(t *testing.T) {
	info, err := ProbeImage(pngBytes(t, 320, 200))
	if err != nil {
		t.Fatalf("ProbeImage: %v", err)
	}
	if FormatMime(info.Mime) != "image/png" {
		t.Errorf("mime = %q", info.Mime)
	}
	if info.Width != 320 || info.Height != 200 {
		t.Errorf("dimensions = %dx%d, want 320x200", info.Width, info.Height)
	}
}

func TestProbeImageSVG(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="640" height="480"><rect/></svg>`)
	info, err := ProbeImage(svg)
	if err != nil {
		t.Fatalf("ProbeImage: %v", err)
	}
	if info.Mime != "image/svg+xml" {
		t.Errorf("mime = %q", info.Mime)
	}
	if info.Width != 640 || info.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", info.Width, info.Height)
	}
}

func TestProbeImageRejectsScriptedSVG(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	if _, err := ProbeImage(svg); err == nil {
		t.Fatal("scripted SVG must be rejected")
	}
}

func TestProbeImageRejectsGarbage(t *testing.T) {
	if _, err := ProbeImage([]byte("not an image at all")); err == nil {
		t.Fatal("expected error for non-image bytes")
	}
}

func TestIndexBuildsEntries(t *testing.T) {
	root := t.TempDir()
	img := pngBytes(t, 100, 50)
	if err := os.MkdirAll(filepath.Join(root, "assets"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "assets", "demo-screenshot.png"), img, 0644); err != nil {
		t.Fatal(err)
	}
	readme := "# X\n\n![dashboard view](assets/demo-screenshot.png)\n"
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte(readme), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := newTestIndexer().Index(context.Background(), root, &models.ReadmeDoc{Path: "README.md"})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}

	e := entries[0]
	if !strings.HasPrefix(e.ID, "media.") || len(e.ID) != len("media.")+16 {
		t.Errorf("id = %q, want media.<16 hex chars>", e.ID)
	}
	if e.Kind != models.MediaDocImage {
		t.Errorf("kind = %s, want doc_image (referenced from README)", e.Kind)
	}
	if e.Alt != "dashboard view" {
		t.Errorf("alt = %q", e.Alt)
	}
	if e.Width != 100 || e.Height != 50 {
		t.Errorf("dimensions = %dx%d", e.Width, e.Height)
	}
	if !contains(e.Tags, "demo") || !contains(e.Tags, "screenshot") || !contains(e.Tags, "dashboard") {
		t.Errorf("tags = %v", e.Tags)
	}
	if e.PreviewURI == "" || !strings.HasPrefix(e.PreviewURI, "data:image/png;base64,") {
		t.Errorf("preview uri = %.40q", e.PreviewURI)
	}
}

func TestIndexSkipsIgnoredDirsAndWebImages(t *testing.T) {
	root := t.TempDir()
	img := pngBytes(t, 10, 10)
	if err := os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "node_modules", "pkg", "icon.png"), img, 0644); err != nil {
		t.Fatal(err)
	}
	readme := "# X\n\n![remote](https://example.com/remote.png)\n"
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte(readme), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := newTestIndexer().Index(context.Background(), root, &models.ReadmeDoc{Path: "README.md"})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}

func TestIndexStableIDForSameContent(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()
	img := pngBytes(t, 33, 44)
	if err := os.WriteFile(filepath.Join(rootA, "one.png"), img, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(rootB, "two.png"), img, 0644); err != nil {
		t.Fatal(err)
	}

	x := newTestIndexer()
	a, err := x.Index(context.Background(), rootA, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := x.Index(context.Background(), rootB, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a[0].ID != b[0].ID {
		t.Errorf("same bytes produced different ids: %s vs %s", a[0].ID, b[0].ID)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
