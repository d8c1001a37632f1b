// Package slides builds the deterministic deck. Given identical inputs the
// builder always produces identical slides; the AI pass and the studio only
// ever patch what is built here.
package slides

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

// Inputs carries everything the builders draw from
type Inputs struct {
	Scan     *models.ProjectScan
	Doc      *models.ReadmeDoc
	Git      *models.GitContext
	Evidence models.EvidenceIndex
}

// Builder constructs deck slides in canonical order
type Builder struct {
	logger arbor.ILogger
}

// NewBuilder creates a slide builder
func NewBuilder(logger arbor.ILogger) *Builder {
	return &Builder{logger: logger}
}

// ResolveTypes validates a requested type list against the canonical set.
// An empty request resolves to the full canonical order.
func ResolveTypes(requested []string) ([]models.SlideType, error) {
	if len(requested) == 0 {
		return models.AllSlideTypes, nil
	}

	wanted := map[models.SlideType]bool{}
	for _, r := range requested {
		r = strings.ToLower(strings.TrimSpace(r))
		if !models.IsValidSlideType(r) {
			return nil, common.NewAppError(common.CodeInvalidInput,
				fmt.Sprintf("unknown slide type: %q", r), nil).
				WithHint("valid types: title, problem, solution, demo, impact, tech, future, delta, closing")
		}
		wanted[models.SlideType(r)] = true
	}

	// Emit in canonical order regardless of request order
	var resolved []models.SlideType
	for _, t := range models.AllSlideTypes {
		if wanted[t] {
			resolved = append(resolved, t)
		}
	}
	return resolved, nil
}

// Build constructs the deck for the resolved slide types. The delta slide
// is skipped when the git context carries no changes, even if requested.
func (b *Builder) Build(in Inputs, requested []string) ([]models.Slide, error) {
	types, err := ResolveTypes(requested)
	if err != nil {
		return nil, err
	}

	var deck []models.Slide
	for _, t := range types {
		if t == models.SlideDelta && (in.Git == nil || !in.Git.Available || in.Git.ChangedFilesCount == 0) {
			b.logger.Debug().Msg("Skipping delta slide: no git changes")
			continue
		}
		deck = append(deck, b.buildSlide(t, in))
	}

	b.logger.Debug().Int("slides", len(deck)).Msg("Deck built")
	return deck, nil
}

func (b *Builder) buildSlide(t models.SlideType, in Inputs) models.Slide {
	switch t {
	case models.SlideTitle:
		return b.titleSlide(in)
	case models.SlideProblem:
		return b.problemSlide(in)
	case models.SlideSolution:
		return b.solutionSlide(in)
	case models.SlideDemo:
		return b.demoSlide(in)
	case models.SlideImpact:
		return b.impactSlide(in)
	case models.SlideTech:
		return b.techSlide(in)
	case models.SlideFuture:
		return b.futureSlide(in)
	case models.SlideDelta:
		return b.deltaSlide(in)
	case models.SlideClosing:
		return b.closingSlide(in)
	}
	// ResolveTypes guarantees t is canonical
	return models.Slide{}
}

// appendClaim attaches a claim only when every referenced evidence id
// resolves, preserving the refs-subset invariant by construction.
func (in Inputs) appendClaim(slide *models.Slide, text string, confidence float64, refs ...string) {
	for _, ref := range refs {
		if !in.Evidence.Has(ref) {
			return
		}
	}
	slide.Claims = append(slide.Claims, models.Claim{
		Text:         text,
		EvidenceRefs: refs,
		Confidence:   confidence,
	})
}

func (b *Builder) titleSlide(in Inputs) models.Slide {
	title := in.Doc.Title
	if title == "" {
		title = in.Scan.Name
	}

	slide := models.Slide{
		ID:    "slide.title",
		Type:  models.SlideTitle,
		Title: title,
		Notes: "Introduce the team and the one-line pitch.",
	}

	langs := in.Scan.TopLanguages(3)
	if len(langs) > 0 {
		slide.Bullets = append(slide.Bullets,
			fmt.Sprintf("Built with %s", strings.Join(langs, ", ")))
	}

	in.appendClaim(&slide,
		fmt.Sprintf("%d files, %d lines of code", in.Scan.FileCount, in.Scan.TotalLines),
		0.95, "repo.files")
	return slide
}

func (b *Builder) problemSlide(in Inputs) models.Slide {
	slide := models.Slide{
		ID:    "slide.problem",
		Type:  models.SlideProblem,
		Title: "The Problem",
		Notes: "State the pain point in one breath, then pause.",
	}

	if in.Doc.Problem != "" {
		slide.Bullets = append(slide.Bullets, in.Doc.Problem)
		in.appendClaim(&slide, "Problem statement taken from the project README", 0.9, "doc.problem")
	} else {
		slide.Bullets = append(slide.Bullets,
			"This project addresses a concrete pain point for its users.")
	}
	return slide
}

func (b *Builder) solutionSlide(in Inputs) models.Slide {
	slide := models.Slide{
		ID:    "slide.solution",
		Type:  models.SlideSolution,
		Title: "Our Solution",
		Notes: "Walk the main flow; keep it to three beats.",
	}

	if in.Doc.Solution != "" {
		slide.Bullets = append(slide.Bullets, in.Doc.Solution)
		in.appendClaim(&slide, "Approach described in the project README", 0.9, "doc.solution")
	} else {
		slide.Bullets = append(slide.Bullets,
			fmt.Sprintf("%s turns the problem into a working end-to-end flow.", projectName(in)))
	}

	for i, f := range in.Doc.Features {
		if i == 4 {
			break
		}
		slide.Bullets = append(slide.Bullets, f)
	}
	if len(in.Doc.Features) > 0 {
		in.appendClaim(&slide, "Feature list taken from the project README", 0.85, "doc.features")
	}
	return slide
}

func (b *Builder) demoSlide(in Inputs) models.Slide {
	slide := models.Slide{
		ID:    "slide.demo",
		Type:  models.SlideDemo,
		Title: "Demo",
		Notes: "Switch to the live demo here; have the fallback recording ready.",
	}

	if in.Doc.Demo != "" {
		slide.Bullets = append(slide.Bullets, in.Doc.Demo)
		in.appendClaim(&slide, "Demo flow documented in the project README", 0.85, "doc.demo")
	} else {
		slide.Bullets = append(slide.Bullets, "Live demo: the full flow from input to result.")
	}
	return slide
}

func (b *Builder) impactSlide(in Inputs) models.Slide {
	slide := models.Slide{
		ID:    "slide.impact",
		Type:  models.SlideImpact,
		Title: "Impact",
		Notes: "Tie the build back to the user: who wins, and by how much.",
	}

	slide.Bullets = append(slide.Bullets,
		fmt.Sprintf("A working system: %d files and %d lines built for this problem.",
			in.Scan.FileCount, in.Scan.TotalLines))
	in.appendClaim(&slide,
		fmt.Sprintf("Codebase spans %d lines", in.Scan.TotalLines), 0.85, "repo.files")

	if len(in.Doc.Features) > 0 {
		slide.Bullets = append(slide.Bullets,
			fmt.Sprintf("%d shipped capabilities users can touch today.", len(in.Doc.Features)))
	}
	return slide
}

func (b *Builder) techSlide(in Inputs) models.Slide {
	slide := models.Slide{
		ID:    "slide.tech",
		Type:  models.SlideTech,
		Title: "How It's Built",
		Notes: "Name the stack, then the one interesting technical decision.",
	}

	langs := in.Scan.TopLanguages(4)
	if len(langs) > 0 {
		slide.Bullets = append(slide.Bullets, "Languages: "+strings.Join(langs, ", "))
	}

	if in.Doc.Tech != "" {
		slide.Bullets = append(slide.Bullets, in.Doc.Tech)
		in.appendClaim(&slide, "Stack described in the project README", 0.85, "doc.tech")
	}

	if len(in.Scan.Dependencies) > 0 {
		names := make([]string, 0, 4)
		for _, d := range in.Scan.Dependencies {
			names = append(names, d.Name)
			if len(names) == 4 {
				break
			}
		}
		slide.Bullets = append(slide.Bullets, "Key dependencies: "+strings.Join(names, ", "))
		in.appendClaim(&slide,
			fmt.Sprintf("%d declared dependencies", len(in.Scan.Dependencies)), 0.9, "repo.deps")
	}

	if len(slide.Bullets) == 0 {
		slide.Bullets = append(slide.Bullets, "A focused stack chosen for hackathon speed.")
	}
	return slide
}

func (b *Builder) futureSlide(in Inputs) models.Slide {
	slide := models.Slide{
		ID:    "slide.future",
		Type:  models.SlideFuture,
		Title: "What's Next",
		Notes: "Close the roadmap with the single most credible next step.",
	}

	if in.Doc.Future != "" {
		slide.Bullets = append(slide.Bullets, in.Doc.Future)
		in.appendClaim(&slide, "Roadmap taken from the project README", 0.8, "doc.future")
	} else {
		slide.Bullets = append(slide.Bullets,
			"Harden the prototype, gather user feedback, iterate on the core flow.")
	}
	return slide
}

func (b *Builder) deltaSlide(in Inputs) models.Slide {
	slide := models.Slide{
		ID:    "slide.delta",
		Type:  models.SlideDelta,
		Title: "Built During the Hackathon",
		Notes: "Point at the diff: this is what the team shipped this weekend.",
	}

	slide.Bullets = append(slide.Bullets, in.Git.ChangeSummary)
	for i, p := range in.Git.TopChangedPaths {
		if i == 5 {
			break
		}
		slide.Bullets = append(slide.Bullets, p)
	}

	in.appendClaim(&slide, in.Git.ChangeSummary, 0.9, "git.changes")
	in.appendClaim(&slide,
		fmt.Sprintf("Work landed on branch %s", in.Git.Branch), 0.85, "git.branch")
	return slide
}

func (b *Builder) closingSlide(in Inputs) models.Slide {
	return models.Slide{
		ID:    "slide.closing",
		Type:  models.SlideClosing,
		Title: "Thank You",
		Bullets: []string{
			fmt.Sprintf("%s - questions welcome.", projectName(in)),
		},
		Notes: "End on the ask: what you want from the judges or the audience.",
	}
}

func projectName(in Inputs) string {
	if in.Doc.Title != "" {
		return in.Doc.Title
	}
	return in.Scan.Name
}
