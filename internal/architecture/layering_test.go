package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "saferun/internal/"

// pkg is one non-test Go package under internal/, keyed by its path
// relative to internal/ (for example "modules/sweep/adapter/out").
type pkg struct {
	rel     string
	imports map[string]struct{}
}

func (p pkg) module() string {
	parts := strings.Split(p.rel, "/")
	if len(parts) > 1 && parts[0] == "modules" {
		return parts[1]
	}
	return ""
}

// layer reports the hexagonal layer below modules/<name>/, such as
// "adapter/in" or "domain".
func (p pkg) layer() string {
	return layerOf(p.rel)
}

func layerOf(rel string) string {
	parts := strings.Split(rel, "/")
	if len(parts) < 3 || parts[0] != "modules" {
		return ""
	}
	rest := parts[2:]
	if (rest[0] == "adapter" || rest[0] == "port") && len(rest) > 1 {
		return rest[0] + "/" + rest[1]
	}
	return rest[0]
}

func loadPackages(t *testing.T) []pkg {
	t.Helper()
	fset := token.NewFileSet()
	byDir := map[string]*pkg{}
	root := ".."
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		p, ok := byDir[rel]
		if !ok {
			p = &pkg{rel: rel, imports: map[string]struct{}{}}
			byDir[rel] = p
		}
		for _, imp := range file.Imports {
			p.imports[strings.Trim(imp.Path.Value, `"`)] = struct{}{}
		}
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, byDir)

	out := make([]pkg, 0, len(byDir))
	for _, p := range byDir {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out
}

// internalRel strips the module prefix, returning "" for imports outside
// saferun/internal.
func internalRel(importPath string) string {
	if !strings.HasPrefix(importPath, modulePath) {
		return ""
	}
	return strings.TrimPrefix(importPath, modulePath)
}

func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".") && !strings.HasPrefix(importPath, "saferun/")
}

func moduleOf(rel string) string {
	return pkg{rel: rel}.module()
}

func publicSurface(rel string) bool {
	l := layerOf(rel)
	return l == "port/in" || l == "dto"
}

func TestLayerImports(t *testing.T) {
	t.Parallel()
	packages := loadPackages(t)

	// Which same-module layers each layer must not reach.
	forbidden := map[string][]string{
		"domain":  {"adapter/in", "adapter/out", "usecase", "service", "port/in", "port/out", "dto"},
		"service": {"adapter/in", "adapter/out", "usecase"},
		"usecase": {"adapter/in", "adapter/out"},
		"port/in": {"adapter/in", "adapter/out", "usecase", "service"},
		"dto":     {"adapter/in", "adapter/out", "usecase", "service"},
	}

	for _, p := range packages {
		mod := p.module()
		if mod == "" {
			continue
		}
		for imp := range p.imports {
			rel := internalRel(imp)
			if moduleOf(rel) != mod {
				continue
			}
			target := layerOf(rel)
			if p.layer() == "adapter/in" && !publicSurface(rel) && target != "domain" {
				t.Errorf("%s: inbound adapter imports %s; it may only use port/in, dto and domain", p.rel, imp)
			}
			for _, bad := range forbidden[p.layer()] {
				if target == bad {
					t.Errorf("%s: %s layer must not import %s (%s)", p.rel, p.layer(), bad, imp)
				}
			}
		}
	}
}

func TestModulesTalkThroughInboundPorts(t *testing.T) {
	t.Parallel()
	for _, p := range loadPackages(t) {
		mod := p.module()
		if mod == "" {
			continue
		}
		for imp := range p.imports {
			rel := internalRel(imp)
			other := moduleOf(rel)
			if other == "" || other == mod {
				continue
			}
			if !publicSurface(rel) {
				t.Errorf("%s imports %s; other modules are reachable only through port/in or dto", p.rel, imp)
			}
		}
	}
}

// The sweeper escalates sessions through the session module's escalation
// usecase and never touches its store.
func TestSweepReachesSessionsOnlyThroughEscalationPort(t *testing.T) {
	t.Parallel()
	allowed := map[string]bool{
		"modules/session/port/in": true,
		"modules/session/dto":     true,
	}
	seen := false
	for _, p := range loadPackages(t) {
		if p.module() != "sweep" {
			continue
		}
		for imp := range p.imports {
			rel := internalRel(imp)
			if moduleOf(rel) != "session" {
				continue
			}
			seen = true
			if !allowed[rel] {
				t.Errorf("%s imports %s; sweep may only use session/port/in and session/dto", p.rel, imp)
			}
		}
	}
	if !seen {
		t.Error("sweep no longer imports the session escalation port")
	}
}

func TestDomainStaysFreeOfInfrastructure(t *testing.T) {
	t.Parallel()
	for _, p := range loadPackages(t) {
		if p.layer() != "domain" {
			continue
		}
		for imp := range p.imports {
			if isStdlib(imp) {
				continue
			}
			rel := internalRel(imp)
			switch {
			case strings.HasPrefix(rel, "platform/"):
			case rel != "" && moduleOf(rel) == p.module() && layerOf(rel) == "domain":
			default:
				t.Errorf("%s: domain imports %s; only the standard library and internal/platform are allowed", p.rel, imp)
			}
		}
	}
}

func TestPlatformDoesNotDependOnFeatures(t *testing.T) {
	t.Parallel()
	for _, p := range loadPackages(t) {
		if !strings.HasPrefix(p.rel, "platform/") {
			continue
		}
		for imp := range p.imports {
			rel := internalRel(imp)
			for _, banned := range []string{"modules", "ui", "bootstrap"} {
				if rel == banned || strings.HasPrefix(rel, banned+"/") {
					t.Errorf("%s imports %s; platform packages must not depend on %s", p.rel, imp, banned)
				}
			}
		}
	}
}

func TestUIUsesModulesThroughPublicSurface(t *testing.T) {
	t.Parallel()
	for _, p := range loadPackages(t) {
		if p.rel != "ui" && !strings.HasPrefix(p.rel, "ui/") {
			continue
		}
		for imp := range p.imports {
			rel := internalRel(imp)
			if moduleOf(rel) != "" && !publicSurface(rel) {
				t.Errorf("%s imports %s; ui may only use module dto and port/in packages", p.rel, imp)
			}
		}
	}
}
