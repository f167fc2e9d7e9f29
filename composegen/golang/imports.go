package golang

import (
	"fmt"
	"go/token"
	"go/types"
	"path"
	"slices"
	"strings"
)

// importSet assigns file-unique package names. Aliases are handed out in
// first-use order, so identical input yields identical files.
type importSet struct {
	byPath map[string]string
	taken  map[string]bool
}

type importSpec struct {
	Alias string // empty when the path's last element already names the package
	Path  string
}

func newImportSet() *importSet {
	return &importSet{
		byPath: make(map[string]string),
		taken:  make(map[string]bool),
	}
}

// add records path under its preferred name and returns the name to use.
func (s *importSet) add(pkgPath, name string) string {
	if alias, ok := s.byPath[pkgPath]; ok {
		return alias
	}

	alias := name
	for i := 2; s.taken[alias] || token.Lookup(alias).IsKeyword() || types.Universe.Lookup(alias) != nil; i++ {
		alias = fmt.Sprintf("%s%d", name, i)
	}

	s.byPath[pkgPath] = alias
	s.taken[alias] = true
	return alias
}

func (s *importSet) qualifier(p *types.Package) string {
	return s.add(p.Path(), p.Name())
}

func (s *importSet) specs() []importSpec {
	specs := make([]importSpec, 0, len(s.byPath))
	for p, alias := range s.byPath {
		spec := importSpec{Path: p}
		if alias != path.Base(p) {
			spec.Alias = alias
		}
		specs = append(specs, spec)
	}
	slices.SortFunc(specs, func(a, b importSpec) int {
		return strings.Compare(a.Path, b.Path)
	})
	return specs
}

// guessName derives a package name from an import path when no type
// information is at hand. The result is always written as an explicit
// alias unless it equals the last path element.
func guessName(pkgPath string) string {
	name := path.Base(pkgPath)
	name = strings.TrimPrefix(name, "go-")
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	name = strings.Map(func(r rune) rune {
		if r == '-' {
			return '_'
		}
		return r
	}, name)
	if !token.IsIdentifier(name) {
		return "pkg"
	}
	return name
}

// splitQualified splits "import/path.Name" at its last dot.
func splitQualified(s string) (pkgPath, name string) {
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}
