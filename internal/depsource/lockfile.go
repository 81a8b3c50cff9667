// Package depsource reads a project's resolved dependency set from a YAML lockfile.
//
//	project: com.example:app:1.0.0
//	dependencies:
//	  - com.google.guava:guava:32.1.0-jre
//	  - pkg:maven/org.slf4j/slf4j-api@2.0.9
//	transitive:
//	  - com.google.guava:failureaccess:1.0.1
//
// Entries use any form accepted by core.ParseCoordinate. Each artifact may
// appear at one version only: the lockfile records a solved graph.
package depsource

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/git-pkgs/depmeta/internal/core"
)

const DefaultFile = "depmeta.lock.yaml"

type document struct {
	Project      string   `yaml:"project"`
	Dependencies []string `yaml:"dependencies"`
	Transitive   []string `yaml:"transitive"`
}

// Lockfile is a DependencySource backed by a parsed lockfile.
type Lockfile struct {
	Project    core.Coordinate
	direct     []core.Dependency
	transitive []core.Dependency
}

// Load reads and parses the lockfile at path.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile: %w", err)
	}
	lf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lf, nil
}

// Parse decodes lockfile content.
func Parse(data []byte) (*Lockfile, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding lockfile: %w", err)
	}
	if doc.Project == "" {
		return nil, fmt.Errorf("lockfile has no project")
	}
	project, err := core.ParseCoordinate(doc.Project)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}

	lf := &Lockfile{Project: project}
	seen := make(map[string]string)
	if lf.direct, err = parseEntries(doc.Dependencies, true, seen); err != nil {
		return nil, err
	}
	if lf.transitive, err = parseEntries(doc.Transitive, false, seen); err != nil {
		return nil, err
	}
	return lf, nil
}

func parseEntries(entries []string, direct bool, seen map[string]string) ([]core.Dependency, error) {
	deps := make([]core.Dependency, 0, len(entries))
	for _, entry := range entries {
		c, err := core.ParseCoordinate(entry)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", entry, err)
		}
		id := c.WithVersion("").String()
		if prev, ok := seen[id]; ok {
			if prev != c.Version {
				return nil, fmt.Errorf("%s locked at both %s and %s", c.Key(), prev, c.Version)
			}
			continue
		}
		seen[id] = c.Version
		deps = append(deps, core.Dependency{Coordinate: c, Direct: direct})
	}
	return deps, nil
}

func (l *Lockfile) check(project core.Coordinate) error {
	if project.Key() != l.Project.Key() {
		return fmt.Errorf("lockfile is for %s, not %s", l.Project.Key(), project.Key())
	}
	return nil
}

// DirectDependencies returns the dependencies declared by project.
func (l *Lockfile) DirectDependencies(_ context.Context, project core.Coordinate) ([]core.Dependency, error) {
	if err := l.check(project); err != nil {
		return nil, err
	}
	return append([]core.Dependency(nil), l.direct...), nil
}

// TransitiveClosure returns the direct dependencies followed by every transitive one.
func (l *Lockfile) TransitiveClosure(_ context.Context, project core.Coordinate) ([]core.Dependency, error) {
	if err := l.check(project); err != nil {
		return nil, err
	}
	all := make([]core.Dependency, 0, len(l.direct)+len(l.transitive))
	all = append(all, l.direct...)
	return append(all, l.transitive...), nil
}
