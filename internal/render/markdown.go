package render

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ostendo/internal/models"
)

// Markdown renders the deck as Marp-flavored Markdown, one slide per
// `---` separator, speaker notes as HTML comments.
func (r *Renderer) Markdown(payload *models.Payload) []byte {
	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString("marp: true\n")
	sb.WriteString("theme: default\n")
	sb.WriteString("paginate: true\n")
	sb.WriteString("---\n")

	for i := range payload.Slides {
		slide := &payload.Slides[i]
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		sb.WriteString("\n")

		if slide.Type == models.SlideTitle {
			fmt.Fprintf(&sb, "# %s\n", slide.Title)
		} else {
			fmt.Fprintf(&sb, "## %s\n", slide.Title)
		}

		if len(slide.Bullets) > 0 {
			sb.WriteString("\n")
			for _, b := range slide.Bullets {
				fmt.Fprintf(&sb, "- %s\n", b)
			}
		}

		for _, v := range slide.Visuals {
			if entry := payload.MediaByID(v.MediaID); entry != nil {
				fmt.Fprintf(&sb, "\n![%s](%s)\n", v.Alt, entry.Path)
			}
		}

		if slide.Notes != "" {
			fmt.Fprintf(&sb, "\n<!-- %s -->\n", slide.Notes)
		}
	}

	return []byte(sb.String())
}
