// Package presets bundles named configuration profiles so a deck can be
// generated for a specific audience without hand-editing ostendo.toml.
package presets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/ostendo/internal/common"
)

// Preset is a named bundle of generation overrides.
type Preset struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	AIMode      common.AIMode `json:"ai_mode"`
	SlideTypes  []string      `json:"slide_types"`
	Strict      bool          `json:"strict"`
}

var registry = map[string]Preset{
	"quick": {
		Name:        "quick",
		Description: "Fast deterministic deck for a rapid demo run.",
		AIMode:      common.AIModeOff,
		SlideTypes:  []string{"title", "problem", "solution", "demo", "delta", "closing"},
		Strict:      true,
	},
	"demo-day": {
		Name:        "demo-day",
		Description: "Balanced hackathon judging deck with technical depth.",
		AIMode:      common.AIModeHybrid,
		SlideTypes:  []string{"title", "problem", "solution", "demo", "tech", "impact", "delta", "closing"},
		Strict:      true,
	},
	"investor": {
		Name:        "investor",
		Description: "Story-first pitch emphasizing outcomes and traction.",
		AIMode:      common.AIModeHybrid,
		SlideTypes:  []string{"title", "problem", "solution", "impact", "demo", "future", "closing"},
		Strict:      true,
	},
	"hackathon-judges": {
		Name:        "hackathon-judges",
		Description: "Judge-optimized flow with clear branch delta and evidence-rich visuals.",
		AIMode:      common.AIModeHybrid,
		SlideTypes:  []string{"title", "problem", "solution", "demo", "tech", "impact", "delta", "closing"},
		Strict:      true,
	},
	"hackathon-finals": {
		Name:        "hackathon-finals",
		Description: "Final round pacing with stronger narrative and polished close.",
		AIMode:      common.AIModeHybrid,
		SlideTypes:  []string{"title", "problem", "solution", "demo", "impact", "tech", "future", "closing"},
		Strict:      true,
	},
}

// List returns all presets sorted by name.
func List() []Preset {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Preset, 0, len(names))
	for _, name := range names {
		out = append(out, clone(registry[name]))
	}
	return out
}

// Resolve looks up a preset by name. Unknown names return an
// INVALID_INPUT error listing the available presets.
func Resolve(name string) (Preset, error) {
	preset, ok := registry[strings.TrimSpace(name)]
	if !ok {
		return Preset{}, common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("unknown preset %q", name), nil).
			WithHint("Available presets: " + strings.Join(Names(), ", "))
	}
	return clone(preset), nil
}

// Names returns the sorted preset names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overlays a preset onto the config. Explicit flag overrides are
// applied after this, so presets set defaults rather than win conflicts.
func Apply(cfg *common.Config, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	preset, err := Resolve(name)
	if err != nil {
		return err
	}

	cfg.Generate.Preset = preset.Name
	cfg.Generate.Strict = preset.Strict
	cfg.Generate.SlideTypes = append([]string(nil), preset.SlideTypes...)
	cfg.AI.Mode = preset.AIMode
	cfg.Generate.WithAI = preset.AIMode != common.AIModeOff
	return nil
}

func clone(p Preset) Preset {
	p.SlideTypes = append([]string(nil), p.SlideTypes...)
	return p
}
