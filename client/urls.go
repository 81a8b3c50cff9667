// Package client builds artifact locations in a Maven2-layout repository.
package client

import (
	"fmt"
	"strings"

	"github.com/git-pkgs/depmeta/internal/core"
)

// MetadataFile is the per-artifact version index of a Maven2 repository.
const MetadataFile = "maven-metadata.xml"

// URLBuilder constructs artifact locations for a repository.
type URLBuilder interface {
	// Artifact returns the location of the file for c.
	Artifact(c core.Coordinate) string
	// Metadata returns the location of the version index for c's group:name.
	Metadata(c core.Coordinate) string
	// Directory returns the location holding every version of c's group:name.
	Directory(c core.Coordinate) string
}

// Maven2 implements the default Maven2 layout rooted at Base.
// An empty Base yields relative keys, as used by blob stores.
type Maven2 struct {
	Base string
}

// NewMaven2 returns a layout rooted at base with any trailing slash removed.
func NewMaven2(base string) *Maven2 {
	return &Maven2{Base: strings.TrimSuffix(base, "/")}
}

func (m *Maven2) Artifact(c core.Coordinate) string {
	return m.join(c, c.Version, Filename(c))
}

func (m *Maven2) Metadata(c core.Coordinate) string {
	return m.join(c, MetadataFile)
}

// VersionMetadata returns the location of the snapshot index inside c's version directory.
func (m *Maven2) VersionMetadata(c core.Coordinate) string {
	return m.join(c, c.Version, MetadataFile)
}

// SnapshotArtifact returns the location of a timestamped snapshot build of c.
func (m *Maven2) SnapshotArtifact(c core.Coordinate, value string) string {
	return m.join(c, c.Version, Filename(c.WithVersion(value)))
}

func (m *Maven2) Directory(c core.Coordinate) string {
	return m.join(c) + "/"
}

func (m *Maven2) join(c core.Coordinate, parts ...string) string {
	segments := make([]string, 0, len(parts)+3)
	if m.Base != "" {
		segments = append(segments, m.Base)
	}
	segments = append(segments, GroupPath(c.Group), c.Name)
	return strings.Join(append(segments, parts...), "/")
}

// Filename returns name-version[-classifier].type.
func Filename(c core.Coordinate) string {
	typ := c.Type
	if typ == "" {
		typ = "jar"
	}
	if c.Classifier != "" {
		return fmt.Sprintf("%s-%s-%s.%s", c.Name, c.Version, c.Classifier, typ)
	}
	return fmt.Sprintf("%s-%s.%s", c.Name, c.Version, typ)
}

// GroupPath converts a group id to its directory form (dots become slashes).
func GroupPath(group string) string {
	return strings.ReplaceAll(group, ".", "/")
}
