package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

func testPayload() *models.Payload {
	return &models.Payload{
		SchemaVersion: models.SchemaVersion,
		Project: models.ProjectScan{
			RootPath:  "/tmp/lunchradar",
			Name:      "lunchradar",
			FileCount: 12,
		},
		Slides: []models.Slide{
			{
				ID:      "slide.title",
				Type:    models.SlideTitle,
				Title:   "LunchRadar",
				Bullets: []string{"Built with Python, TypeScript"},
				Notes:   "Open strong.",
			},
			{
				ID:      "slide.demo",
				Type:    models.SlideDemo,
				Title:   "Demo",
				Bullets: []string{"Run the scanner", "Show the map"},
				Visuals: []models.Visual{
					{MediaID: "media.aaaaaaaaaaaaaaaa", Alt: "dashboard screenshot", Confidence: 0.9, Source: "auto"},
				},
			},
			{
				ID:    "slide.closing",
				Type:  models.SlideClosing,
				Title: "Thank You",
			},
		},
		Media: []models.MediaEntry{
			{
				ID:         "media.aaaaaaaaaaaaaaaa",
				Path:       "docs/dashboard.png",
				Kind:       models.MediaDocImage,
				Mime:       "image/png",
				Width:      320,
				Height:     200,
				PreviewURI: "data:image/png;base64,iVBORw0KGgo=",
			},
		},
	}
}

func TestJSONIsByteIdentical(t *testing.T) {
	r := NewRenderer(common.GetLogger())
	payload := testPayload()

	first, err := r.JSON(payload)
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	second, err := r.JSON(payload)
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected identical payloads to render identical JSON bytes")
	}
	if !bytes.HasSuffix(first, []byte("\n")) {
		t.Error("expected trailing newline on JSON output")
	}
	if !bytes.Contains(first, []byte(`"schema_version": "2.2"`)) {
		t.Error("expected schema_version in JSON output")
	}
}

func TestMarkdownStructure(t *testing.T) {
	r := NewRenderer(common.GetLogger())
	out := string(r.Markdown(testPayload()))

	if !strings.HasPrefix(out, "---\nmarp: true\n") {
		t.Errorf("expected Marp front matter, got prefix %q", out[:20])
	}
	if !strings.Contains(out, "# LunchRadar\n") {
		t.Error("expected level-1 heading for title slide")
	}
	if !strings.Contains(out, "## Demo\n") {
		t.Error("expected level-2 heading for content slide")
	}
	if !strings.Contains(out, "- Run the scanner\n") {
		t.Error("expected bullets in markdown")
	}
	if !strings.Contains(out, "![dashboard screenshot](docs/dashboard.png)") {
		t.Error("expected visual image reference")
	}
	if !strings.Contains(out, "<!-- Open strong. -->") {
		t.Error("expected speaker notes as HTML comment")
	}
	if got := strings.Count(out, "\n---\n"); got != 2 {
		t.Errorf("expected 2 slide separators after the front matter, got %d", got)
	}
}

func TestHTMLDeck(t *testing.T) {
	r := NewRenderer(common.GetLogger())
	out, err := r.HTML(testPayload())
	if err != nil {
		t.Fatalf("HTML() error: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("parse rendered HTML: %v", err)
	}

	if got := doc.Find("section.slide").Length(); got != 3 {
		t.Errorf("expected 3 slide sections, got %d", got)
	}
	if got := doc.Find("section.slide h1").First().Text(); got != "LunchRadar" {
		t.Errorf("expected title slide h1 %q, got %q", "LunchRadar", got)
	}
	if got := doc.Find("title").Text(); got != "LunchRadar" {
		t.Errorf("expected page title from title slide, got %q", got)
	}

	img := doc.Find(".visuals img").First()
	src, _ := img.Attr("src")
	if !strings.HasPrefix(src, "data:image/png;base64,") {
		t.Errorf("expected inlined data URI image, got %q", src)
	}
	alt, _ := img.Attr("alt")
	if alt != "dashboard screenshot" {
		t.Errorf("expected alt text carried through, got %q", alt)
	}
}

func TestHTMLSkipsUnknownMedia(t *testing.T) {
	r := NewRenderer(common.GetLogger())
	payload := testPayload()
	payload.Slides[1].Visuals = []models.Visual{{MediaID: "media.missing", Alt: "gone"}}

	out, err := r.HTML(payload)
	if err != nil {
		t.Fatalf("HTML() error: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("parse rendered HTML: %v", err)
	}
	if got := doc.Find(".visuals img").Length(); got != 0 {
		t.Errorf("expected no images for unknown media, got %d", got)
	}
}

func TestPDFOutput(t *testing.T) {
	r := NewRenderer(common.GetLogger())
	out, err := r.PDF(testPayload())
	if err != nil {
		t.Fatalf("PDF() error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("expected PDF header")
	}
}
