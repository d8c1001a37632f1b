package visuals

import (
	"bytes"
	"image"
	"regexp"
	"strconv"
	"strings"

	// Register decoders for dimension probing
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"github.com/ternarybob/ostendo/internal/common"
)

// ImageInfo is the probed metadata for one image file
type ImageInfo struct {
	Mime   string
	Width  int
	Height int
}

var (
	svgDimensionRe = regexp.MustCompile(`(?i)<svg[^>]*\bwidth\s*=\s*"([0-9.]+)[a-z%]*"[^>]*\bheight\s*=\s*"([0-9.]+)[a-z%]*"`)
	svgViewBoxRe   = regexp.MustCompile(`(?i)<svg[^>]*\bviewBox\s*=\s*"[0-9.\-]+[,\s]+[0-9.\-]+[,\s]+([0-9.]+)[,\s]+([0-9.]+)"`)
	svgScriptRe    = regexp.MustCompile(`(?i)<\s*script`)
)

// ProbeImage sniffs the mime type and reads pixel dimensions from raw bytes.
// SVG documents containing script elements are rejected outright since
// previews are inlined into the studio page.
func ProbeImage(data []byte) (*ImageInfo, error) {
	mt := mimetype.Detect(data)

	if mt.Is("image/svg+xml") || mt.Is("text/xml") && bytes.Contains(data, []byte("<svg")) {
		return probeSVG(data)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewAppError(common.CodeParseError, "unsupported or corrupt image", err)
	}

	return &ImageInfo{
		Mime:   mt.String(),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

func probeSVG(data []byte) (*ImageInfo, error) {
	if svgScriptRe.Match(data) {
		return nil, common.NewAppError(common.CodeInvalidInput, "SVG contains script content", nil).
			WithHint("remove script elements before indexing the image")
	}

	info := &ImageInfo{Mime: "image/svg+xml"}

	if m := svgDimensionRe.FindSubmatch(data); m != nil {
		info.Width = parseDimension(string(m[1]))
		info.Height = parseDimension(string(m[2]))
	} else if m := svgViewBoxRe.FindSubmatch(data); m != nil {
		info.Width = parseDimension(string(m[1]))
		info.Height = parseDimension(string(m[2]))
	}

	return info, nil
}

func parseDimension(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// imageExtensions lists files the indexer considers
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// IsImagePath reports whether the path has an indexable image extension
func IsImagePath(path string) bool {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return false
	}
	return imageExtensions[strings.ToLower(path[dot:])]
}

// FormatMime normalizes a sniffed mime string, dropping parameters
func FormatMime(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}
