package analyzer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/ostendo/internal/models"
)

// isManifest reports whether a key file declares dependencies
func isManifest(name string) bool {
	switch name {
	case "package.json", "pyproject.toml", "requirements.txt", "go.mod", "Cargo.toml", "pubspec.yaml":
		return true
	}
	return false
}

// collectDependencies parses every discovered manifest. Parse failures are
// logged and skipped; a broken manifest never fails the scan.
func (a *Analyzer) collectDependencies(root string, manifestPaths []string) []models.Dependency {
	var deps []models.Dependency
	for _, path := range manifestPaths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			a.logger.Debug().Str("manifest", rel).Err(err).Msg("Skipping unreadable manifest")
			continue
		}

		parsed, err := parseManifest(filepath.Base(path), rel, data)
		if err != nil {
			a.logger.Debug().Str("manifest", rel).Err(err).Msg("Skipping unparseable manifest")
			continue
		}
		deps = append(deps, parsed...)
	}
	return deps
}

func parseManifest(name, source string, data []byte) ([]models.Dependency, error) {
	switch name {
	case "package.json":
		return parsePackageJSON(source, data)
	case "pyproject.toml":
		return parsePyProject(source, data)
	case "requirements.txt":
		return parseRequirements(source, data), nil
	case "go.mod":
		return parseGoMod(source, data), nil
	case "Cargo.toml":
		return parseCargoToml(source, data)
	case "pubspec.yaml":
		return parsePubspec(source, data)
	}
	return nil, nil
}

func parsePackageJSON(source string, data []byte) ([]models.Dependency, error) {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	var deps []models.Dependency
	for name, version := range manifest.Dependencies {
		deps = append(deps, models.Dependency{Name: name, Version: version, Source: source})
	}
	for name, version := range manifest.DevDependencies {
		deps = append(deps, models.Dependency{Name: name, Version: version, Source: source})
	}
	return deps, nil
}

func parsePyProject(source string, data []byte) ([]models.Dependency, error) {
	var manifest struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]interface{} `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	var deps []models.Dependency
	for _, spec := range manifest.Project.Dependencies {
		name, version := splitRequirement(spec)
		if name != "" {
			deps = append(deps, models.Dependency{Name: name, Version: version, Source: source})
		}
	}
	for name, v := range manifest.Tool.Poetry.Dependencies {
		if name == "python" {
			continue
		}
		version := ""
		if s, ok := v.(string); ok {
			version = s
		}
		deps = append(deps, models.Dependency{Name: name, Version: version, Source: source})
	}
	return deps, nil
}

func parseRequirements(source string, data []byte) []models.Dependency {
	var deps []models.Dependency
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		name, version := splitRequirement(line)
		if name != "" {
			deps = append(deps, models.Dependency{Name: name, Version: version, Source: source})
		}
	}
	return deps
}

// splitRequirement splits a PEP 508 style requirement into name and the
// remainder of the version specifier.
func splitRequirement(spec string) (string, string) {
	spec = strings.TrimSpace(spec)
	if i := strings.IndexAny(spec, ";"); i >= 0 {
		spec = strings.TrimSpace(spec[:i])
	}
	for _, op := range []string{"==", ">=", "<=", "~=", "!=", ">", "<"} {
		if i := strings.Index(spec, op); i >= 0 {
			return strings.TrimSpace(spec[:i]), strings.TrimSpace(spec[i:])
		}
	}
	if i := strings.Index(spec, "["); i >= 0 {
		return strings.TrimSpace(spec[:i]), ""
	}
	return spec, ""
}

func parseGoMod(source string, data []byte) []models.Dependency {
	var deps []models.Dependency
	inRequire := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "require (") {
			inRequire = true
			continue
		}
		if inRequire && line == ")" {
			inRequire = false
			continue
		}

		var spec string
		if inRequire {
			spec = line
		} else if strings.HasPrefix(line, "require ") {
			spec = strings.TrimPrefix(line, "require ")
		} else {
			continue
		}
		if spec == "" || strings.HasPrefix(spec, "//") || strings.Contains(spec, "// indirect") {
			continue
		}

		fields := strings.Fields(spec)
		if len(fields) >= 2 {
			deps = append(deps, models.Dependency{Name: fields[0], Version: fields[1], Source: source})
		}
	}
	return deps
}

func parseCargoToml(source string, data []byte) ([]models.Dependency, error) {
	var manifest struct {
		Dependencies map[string]interface{} `toml:"dependencies"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	var deps []models.Dependency
	for name, v := range manifest.Dependencies {
		version := ""
		switch t := v.(type) {
		case string:
			version = t
		case map[string]interface{}:
			if s, ok := t["version"].(string); ok {
				version = s
			}
		}
		deps = append(deps, models.Dependency{Name: name, Version: version, Source: source})
	}
	return deps, nil
}

func parsePubspec(source string, data []byte) ([]models.Dependency, error) {
	var manifest struct {
		Dependencies map[string]interface{} `yaml:"dependencies"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	var deps []models.Dependency
	for name, v := range manifest.Dependencies {
		if name == "flutter" {
			continue
		}
		version := ""
		if s, ok := v.(string); ok {
			version = s
		}
		deps = append(deps, models.Dependency{Name: name, Version: version, Source: source})
	}
	return deps, nil
}
