// Package docs extracts deck-relevant sections from a project README.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/models"
)

const (
	// maxPrimarySectionChars caps problem and solution text
	maxPrimarySectionChars = 500
	// maxSecondarySectionChars caps all other sections
	maxSecondarySectionChars = 300
	// maxFeatures caps the extracted feature list
	maxFeatures = 8
)

// sectionKey identifies a recognized README section
type sectionKey string

const (
	sectionProblem  sectionKey = "problem"
	sectionSolution sectionKey = "solution"
	sectionFeatures sectionKey = "features"
	sectionTech     sectionKey = "tech"
	sectionFuture   sectionKey = "future"
	sectionDemo     sectionKey = "demo"
)

// headingSynonyms maps lowercase heading substrings to section keys.
// First match wins; order within a set reflects specificity.
var headingSynonyms = []struct {
	key   sectionKey
	names []string
}{
	{sectionProblem, []string{"problem", "challenge", "motivation", "the issue", "pain point", "why"}},
	{sectionSolution, []string{"solution", "what it does", "how it works", "our approach", "approach", "overview"}},
	{sectionFeatures, []string{"key features", "features", "capabilities", "highlights"}},
	{sectionTech, []string{"tech stack", "built with", "technologies", "architecture", "stack", "tech"}},
	{sectionFuture, []string{"future", "roadmap", "next steps", "what's next", "planned"}},
	{sectionDemo, []string{"demo", "usage", "screenshots", "example", "getting started"}},
}

// Parser extracts README sections using the markdown AST rather than
// line-oriented heuristics, so setext headings and nested content parse
// the same way renderers see them.
type Parser struct {
	logger arbor.ILogger
}

// NewParser creates a README parser
func NewParser(logger arbor.ILogger) *Parser {
	return &Parser{logger: logger}
}

// Parse reads and parses the project README. A missing README yields an
// empty document with a warning; a README outside the project root is
// rejected.
func (p *Parser) Parse(projectRoot, readmePath string) (*models.ReadmeDoc, error) {
	if readmePath == "" {
		readmePath = filepath.Join(projectRoot, "README.md")
	}

	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "failed to resolve project path", err)
	}
	absReadme, err := filepath.Abs(readmePath)
	if err != nil {
		return nil, common.NewAppError(common.CodeRuntimeError, "failed to resolve README path", err)
	}
	if !strings.HasPrefix(absReadme, absRoot+string(filepath.Separator)) && absReadme != absRoot {
		return nil, common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("README path escapes the project root: %s", readmePath), nil).
			WithHint("docs.readme_path must point inside the project directory")
	}

	source, err := os.ReadFile(absReadme)
	if err != nil {
		if os.IsNotExist(err) {
			p.logger.Debug().Str("path", absReadme).Msg("README not found")
			return &models.ReadmeDoc{
				Warnings: []string{"README.md not found; doc-derived slides will use fallback text"},
			}, nil
		}
		return nil, common.NewAppError(common.CodeParseError, "failed to read README", err)
	}

	doc := p.parseMarkdown(source)
	rel, relErr := filepath.Rel(absRoot, absReadme)
	if relErr == nil {
		doc.Path = filepath.ToSlash(rel)
	} else {
		doc.Path = absReadme
	}
	return doc, nil
}

// parseMarkdown walks the goldmark AST and fills the section fields
func (p *Parser) parseMarkdown(source []byte) *models.ReadmeDoc {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	doc := &models.ReadmeDoc{}
	var current sectionKey
	var currentLevel int
	var sectionText = map[sectionKey][]string{}

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		if heading, ok := node.(*ast.Heading); ok {
			title := nodeText(heading, source)
			if heading.Level == 1 && doc.Title == "" {
				doc.Title = title
			}
			if current != "" && heading.Level <= currentLevel {
				current = ""
			}
			if key, matched := classifyHeading(title); matched {
				current = key
				currentLevel = heading.Level
			}
			continue
		}

		if current == "" {
			continue
		}

		switch n := node.(type) {
		case *ast.Paragraph:
			if txt := nodeText(n, source); txt != "" {
				sectionText[current] = append(sectionText[current], txt)
			}
		case *ast.List:
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				txt := nodeText(item, source)
				if txt == "" {
					continue
				}
				if current == sectionFeatures && len(doc.Features) < maxFeatures {
					doc.Features = append(doc.Features, txt)
				} else {
					sectionText[current] = append(sectionText[current], txt)
				}
			}
		}
	}

	doc.Problem = capText(strings.Join(sectionText[sectionProblem], " "), maxPrimarySectionChars)
	doc.Solution = capText(strings.Join(sectionText[sectionSolution], " "), maxPrimarySectionChars)
	doc.Tech = capText(strings.Join(sectionText[sectionTech], " "), maxSecondarySectionChars)
	doc.Future = capText(strings.Join(sectionText[sectionFuture], " "), maxSecondarySectionChars)
	doc.Demo = capText(strings.Join(sectionText[sectionDemo], " "), maxSecondarySectionChars)

	// Feature bullets that arrived as paragraph prose still count, capped
	for _, txt := range sectionText[sectionFeatures] {
		if len(doc.Features) >= maxFeatures {
			break
		}
		doc.Features = append(doc.Features, capText(txt, maxSecondarySectionChars))
	}

	if doc.Title == "" {
		doc.Warnings = append(doc.Warnings, "README has no top-level heading")
	}

	return doc
}

// classifyHeading matches a heading title against the synonym sets
func classifyHeading(title string) (sectionKey, bool) {
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower == "" {
		return "", false
	}
	for _, set := range headingSynonyms {
		for _, name := range set.names {
			if strings.Contains(lower, name) {
				return set.key, true
			}
		}
	}
	return "", false
}

// capText truncates at the character cap, backing up to a word boundary
// when one is close enough.
func capText(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

// nodeText extracts plain text from a node subtree
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.AutoLink:
			sb.Write(t.URL(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
