package extractor

import (
	"bufio"
	"encoding/json"
	"strings"

	"github-project-compare/internal/domain"

	"golang.org/x/mod/modfile"
)

// parseManifest 按文件名选择解析器；不是清单文件或解析失败时返回 (nil, false)
func parseManifest(filename, content string) (*domain.Manifest, bool) {
	switch strings.ToLower(filename) {
	case "package.json":
		return parsePackageJSON(content)
	case "go.mod":
		return parseGoMod(content)
	case "requirements.txt":
		return parseRequirements(content)
	default:
		return nil, false
	}
}

func parsePackageJSON(content string) (*domain.Manifest, bool) {
	var pkg struct {
		Name            string            `json:"name"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return nil, false
	}

	deps := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for k, v := range pkg.DevDependencies {
		deps[k] = v
	}
	// 运行时依赖优先
	for k, v := range pkg.Dependencies {
		deps[k] = v
	}
	return &domain.Manifest{Source: "package.json", Name: pkg.Name, Dependencies: deps}, true
}

func parseGoMod(content string) (*domain.Manifest, bool) {
	f, err := modfile.ParseLax("go.mod", []byte(content), nil)
	if err != nil {
		return nil, false
	}

	m := &domain.Manifest{Source: "go.mod", Dependencies: make(map[string]string, len(f.Require))}
	if f.Module != nil {
		m.Name = f.Module.Mod.Path
	}
	for _, r := range f.Require {
		m.Dependencies[r.Mod.Path] = r.Mod.Version
	}
	return m, true
}

func parseRequirements(content string) (*domain.Manifest, bool) {
	m := &domain.Manifest{Source: "requirements.txt", Dependencies: map[string]string{}}

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		name, version := line, ""
		if i := strings.IndexAny(line, "=<>!~;[ "); i >= 0 {
			name = strings.TrimSpace(line[:i])
			version = strings.TrimSpace(strings.TrimLeft(line[i:], "=<>!~ "))
		}
		if name != "" {
			m.Dependencies[strings.ToLower(name)] = version
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false
	}
	return m, true
}
