package render

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"

	"github.com/ternarybob/ostendo/internal/models"
)

//go:embed templates/deck.html.tmpl
var deckTemplate string

type htmlImage struct {
	Src     string
	Alt     string
	Caption string
}

type htmlSlide struct {
	Title   string
	IsTitle bool
	Bullets []string
	Notes   string
	Images  []htmlImage
}

type htmlDeck struct {
	Title  string
	Slides []htmlSlide
}

// HTML renders the payload as a single self-contained page. Images are
// inlined as data URIs so the file can be opened or shared without the
// source repository present.
func (r *Renderer) HTML(payload *models.Payload) ([]byte, error) {
	tmpl, err := template.New("deck").Parse(deckTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse deck template: %w", err)
	}

	deck := htmlDeck{Title: deckTitle(payload)}
	for _, slide := range payload.Slides {
		hs := htmlSlide{
			Title:   slide.Title,
			IsTitle: slide.Type == models.SlideTitle,
			Bullets: slide.Bullets,
			Notes:   slide.Notes,
		}
		for _, visual := range slide.Visuals {
			entry := payload.MediaByID(visual.MediaID)
			if entry == nil {
				continue
			}
			src, err := r.imageSource(payload, entry)
			if err != nil {
				r.logger.Warn().Err(err).Str("media", entry.ID).Msg("Skipping unreadable image")
				continue
			}
			hs.Images = append(hs.Images, htmlImage{Src: src, Alt: visual.Alt, Caption: visual.Caption})
		}
		deck.Slides = append(deck.Slides, hs)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, deck); err != nil {
		return nil, fmt.Errorf("render deck template: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) imageSource(payload *models.Payload, entry *models.MediaEntry) (string, error) {
	if entry.PreviewURI != "" {
		return entry.PreviewURI, nil
	}
	data, err := os.ReadFile(mediaFilePath(payload, entry))
	if err != nil {
		return "", err
	}
	return "data:" + entry.Mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func deckTitle(payload *models.Payload) string {
	for _, slide := range payload.Slides {
		if slide.Type == models.SlideTitle && slide.Title != "" {
			return slide.Title
		}
	}
	if payload.Project.Name != "" {
		return payload.Project.Name
	}
	return "Presentation"
}
