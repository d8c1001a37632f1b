package presets

import (
	"errors"
	"testing"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

func TestListIsSortedAndComplete(t *testing.T) {
	all := List()
	if len(all) != 5 {
		t.Fatalf("expected 5 presets, got %d", len(all))
	}

	want := []string{"demo-day", "hackathon-finals", "hackathon-judges", "investor", "quick"}
	for i, preset := range all {
		if preset.Name != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], preset.Name)
		}
		if preset.Description == "" {
			t.Errorf("preset %q has no description", preset.Name)
		}
	}
}

func TestPresetSlideTypesAreValid(t *testing.T) {
	for _, preset := range List() {
		for _, st := range preset.SlideTypes {
			if !models.IsValidSlideType(st) {
				t.Errorf("preset %q references unknown slide type %q", preset.Name, st)
			}
		}
	}
}

func TestResolveUnknownPreset(t *testing.T) {
	_, err := Resolve("keynote")
	if err == nil {
		t.Fatal("expected error for unknown preset")
	}
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != common.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestApplyQuickOverlaysConfig(t *testing.T) {
	cfg := common.NewDefaultConfig()

	if err := Apply(cfg, "quick"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if cfg.AI.Mode != common.AIModeOff {
		t.Errorf("expected deterministic mode, got %q", cfg.AI.Mode)
	}
	if cfg.Generate.WithAI {
		t.Error("quick preset should not enable AI")
	}
	if !cfg.Generate.Strict {
		t.Error("quick preset should enable strict quality")
	}
	if len(cfg.Generate.SlideTypes) != 6 || cfg.Generate.SlideTypes[0] != "title" {
		t.Errorf("unexpected slide types: %v", cfg.Generate.SlideTypes)
	}
}

func TestApplyDemoDayEnablesHybrid(t *testing.T) {
	cfg := common.NewDefaultConfig()

	if err := Apply(cfg, "demo-day"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if cfg.AI.Mode != common.AIModeHybrid {
		t.Errorf("expected hybrid mode, got %q", cfg.AI.Mode)
	}
	if !cfg.Generate.WithAI {
		t.Error("demo-day preset should enable AI refinement")
	}
}

func TestApplyEmptyNameIsNoOp(t *testing.T) {
	cfg := common.NewDefaultConfig()
	before := cfg.AI.Mode

	if err := Apply(cfg, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if cfg.AI.Mode != before {
		t.Error("empty preset name should leave config untouched")
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	first, err := Resolve("quick")
	if err != nil {
		t.Fatal(err)
	}
	first.SlideTypes[0] = "mutated"

	second, err := Resolve("quick")
	if err != nil {
		t.Fatal(err)
	}
	if second.SlideTypes[0] != "title" {
		t.Error("Resolve should return an independent copy")
	}
}
