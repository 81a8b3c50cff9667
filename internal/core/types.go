// Package core provides shared types, errors and the repository backend registry.
package core

import (
	"fmt"
	"strings"
)

const (
	// RecordClassifier is the classifier every metadata record artifact is published under.
	RecordClassifier = "metadata"
	// RecordType is the artifact type (and file extension) of a metadata record.
	RecordType = "json"

	// DefaultFormatVersion is the record schema version produced and accepted by default.
	DefaultFormatVersion = 2
	// DefaultMessage is used when a record is generated without an explicit message.
	DefaultMessage = "Artifact has been deprecated! Please consider updating the version!"

	defaultType = "jar"
)

// Coordinate identifies a published artifact.
type Coordinate struct {
	Group      string
	Name       string
	Version    string
	Classifier string
	Type       string
}

// Key returns the versionless "group:name" identity shared by every version of an artifact.
func (c Coordinate) Key() string {
	return c.Group + ":" + c.Name
}

// String renders the coordinate as group:name:type[:classifier]:version.
func (c Coordinate) String() string {
	typ := c.Type
	if typ == "" {
		typ = defaultType
	}
	parts := []string{c.Group, c.Name, typ}
	if c.Classifier != "" {
		parts = append(parts, c.Classifier)
	}
	if c.Version != "" {
		parts = append(parts, c.Version)
	}
	return strings.Join(parts, ":")
}

// WithVersion returns a copy of c pinned to version.
func (c Coordinate) WithVersion(version string) Coordinate {
	c.Version = version
	return c
}

// Record returns the coordinate of the metadata record published alongside c at version.
func (c Coordinate) Record(version string) Coordinate {
	return Coordinate{
		Group:      c.Group,
		Name:       c.Name,
		Version:    version,
		Classifier: RecordClassifier,
		Type:       RecordType,
	}
}

// IsSnapshot reports whether the coordinate's version is a Maven snapshot.
func (c Coordinate) IsSnapshot() bool {
	return IsSnapshotVersion(c.Version)
}

// IsSnapshotVersion reports whether version is a Maven snapshot.
func IsSnapshotVersion(version string) bool {
	return strings.HasSuffix(version, "-SNAPSHOT")
}

// Validate checks that group, name and version are present.
func (c Coordinate) Validate() error {
	switch {
	case c.Group == "":
		return fmt.Errorf("coordinate %q: missing group", c.String())
	case c.Name == "":
		return fmt.Errorf("coordinate %q: missing name", c.String())
	case c.Version == "":
		return fmt.Errorf("coordinate %q: missing version", c.String())
	}
	return nil
}

// Dependency is a coordinate resolved to exactly one version in a project's dependency set.
type Dependency struct {
	Coordinate
	// Direct is false for entries that only appear in the transitive closure.
	Direct bool
}

// Severity is the consequence of an applicable record.
type Severity string

const (
	SeverityFail Severity = "fail"
	SeverityWarn Severity = "warn"
)

// Record is the advisory payload published alongside a library version.
// It is always handled together with the version it was published against.
type Record struct {
	FormatVersion             int
	Message                   string
	Fail                      bool
	AppliesToPreviousVersions bool
}

// Severity maps the fail flag onto a Severity.
func (r Record) Severity() Severity {
	if r.Fail {
		return SeverityFail
	}
	return SeverityWarn
}

// Outcome is one applicable record triggered by a dependency.
type Outcome struct {
	Dependency    Dependency
	Source        Coordinate // record artifact, pinned to OriginVersion
	OriginVersion string
	Severity      Severity
	Message       string
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s - %s (metadata source: %s)", o.Dependency.Coordinate, o.Message, o.Source)
}

// Verdict is the aggregated result of one verification run.
type Verdict struct {
	HardFailures []Outcome
	Warnings     []Outcome
	// Checked is the number of distinct dependencies evaluated.
	Checked int
}

// Failed reports whether any hard failure was triggered.
func (v *Verdict) Failed() bool {
	return len(v.HardFailures) > 0
}

// Err returns a *HardFailureError listing every hard failure, or nil when the run passed.
func (v *Verdict) Err() error {
	if !v.Failed() {
		return nil
	}
	return &HardFailureError{Outcomes: v.HardFailures}
}
