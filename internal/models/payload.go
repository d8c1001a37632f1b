package models

// SchemaVersion is stamped on every generated payload. Bump on any
// backwards-incompatible change to the payload shape.
const SchemaVersion = "2.2"

// LanguageStat holds per-language file and line counts
type LanguageStat struct {
	Files int `json:"files"`
	Lines int `json:"lines"`
}

// Dependency is one declared dependency extracted from a manifest file
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source"` // Manifest file the dependency was read from
}

// ProjectScan is the analyzer output for a project tree
type ProjectScan struct {
	RootPath     string                  `json:"root_path"`
	Name         string                  `json:"name"`
	FileCount    int                     `json:"file_count"`
	TotalLines   int                     `json:"total_lines"`
	Languages    map[string]LanguageStat `json:"languages"`
	KeyFiles     []string                `json:"key_files"`
	Dependencies []Dependency            `json:"dependencies"`
}

// TopLanguages returns language names ordered by line count descending,
// ties broken alphabetically.
func (p *ProjectScan) TopLanguages(n int) []string {
	names := make([]string, 0, len(p.Languages))
	for name := range p.Languages {
		names = append(names, name)
	}
	// Selection sort keeps the ordering deterministic without pulling in sort
	// helpers for a handful of entries.
	for i := 0; i < len(names); i++ {
		best := i
		for j := i + 1; j < len(names); j++ {
			li, lj := p.Languages[names[best]].Lines, p.Languages[names[j]].Lines
			if lj > li || (lj == li && names[j] < names[best]) {
				best = j
			}
		}
		names[i], names[best] = names[best], names[i]
	}
	if n > 0 && len(names) > n {
		names = names[:n]
	}
	return names
}

// ReadmeDoc holds the sections extracted from the project README
type ReadmeDoc struct {
	Path     string   `json:"path,omitempty"`
	Title    string   `json:"title,omitempty"`
	Problem  string   `json:"problem,omitempty"`
	Solution string   `json:"solution,omitempty"`
	Features []string `json:"features,omitempty"`
	Tech     string   `json:"tech,omitempty"`
	Future   string   `json:"future,omitempty"`
	Demo     string   `json:"demo,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// GitContext is repository metadata collected by shelling out to git.
// Collection failures are never fatal: Available flips false and the
// failure reason lands in Warnings.
type GitContext struct {
	Available         bool     `json:"available"`
	Branch            string   `json:"branch,omitempty"`
	BaseBranch        string   `json:"base_branch,omitempty"`
	HeadSHA           string   `json:"head_sha,omitempty"`
	BaseSHA           string   `json:"base_sha,omitempty"`
	ChangedFilesCount int      `json:"changed_files_count"`
	TopChangedPaths   []string `json:"top_changed_paths,omitempty"`
	ChangeSummary     string   `json:"change_summary,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Payload is the complete generation result: everything the renderers,
// quality gate and studio operate on.
type Payload struct {
	SchemaVersion string         `json:"schema_version"`
	Project       ProjectScan    `json:"project"`
	Readme        ReadmeDoc      `json:"readme"`
	Git           GitContext     `json:"git"`
	Slides        []Slide        `json:"slides"`
	Evidence      []Evidence     `json:"evidence"`
	Media         []MediaEntry   `json:"media"`
	Quality       *QualityReport `json:"quality,omitempty"`
}

// EvidenceIndex builds the id lookup for the payload's evidence list
func (p *Payload) EvidenceIndex() EvidenceIndex {
	return NewEvidenceIndex(p.Evidence)
}

// MediaByID returns the media entry for an id, nil when unknown
func (p *Payload) MediaByID(id string) *MediaEntry {
	for i := range p.Media {
		if p.Media[i].ID == id {
			return &p.Media[i]
		}
	}
	return nil
}
