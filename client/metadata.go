package client

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"slices"
	"time"
)

// Metadata is the maven-metadata.xml document kept per group:name
// (version index) and per snapshot version directory (snapshot builds).
type Metadata struct {
	XMLName    xml.Name   `xml:"metadata"`
	GroupID    string     `xml:"groupId,omitempty"`
	ArtifactID string     `xml:"artifactId,omitempty"`
	Version    string     `xml:"version,omitempty"`
	Versioning Versioning `xml:"versioning"`
}

type Versioning struct {
	Latest           string            `xml:"latest,omitempty"`
	Release          string            `xml:"release,omitempty"`
	Snapshot         *Snapshot         `xml:"snapshot,omitempty"`
	Versions         []string          `xml:"versions>version"`
	LastUpdated      string            `xml:"lastUpdated,omitempty"`
	SnapshotVersions []SnapshotVersion `xml:"snapshotVersions>snapshotVersion"`
}

type Snapshot struct {
	Timestamp   string `xml:"timestamp,omitempty"`
	BuildNumber int    `xml:"buildNumber,omitempty"`
	LocalCopy   bool   `xml:"localCopy,omitempty"`
}

// SnapshotVersion maps a classifier/extension pair to its timestamped version.
type SnapshotVersion struct {
	Classifier string `xml:"classifier,omitempty"`
	Extension  string `xml:"extension"`
	Value      string `xml:"value"`
	Updated    string `xml:"updated,omitempty"`
}

// ParseMetadata decodes a maven-metadata.xml document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", MetadataFile, err)
	}
	return &m, nil
}

// SnapshotValue returns the timestamped version recorded for classifier and extension.
func (m *Metadata) SnapshotValue(classifier, extension string) (string, bool) {
	for _, sv := range m.Versioning.SnapshotVersions {
		if sv.Classifier == classifier && sv.Extension == extension && sv.Value != "" {
			return sv.Value, true
		}
	}
	return "", false
}

// AddVersion records version in the index. It reports whether the index changed.
// Latest and Release are left to the caller since they depend on version ordering.
func (m *Metadata) AddVersion(version string, now time.Time) bool {
	if slices.Contains(m.Versioning.Versions, version) {
		return false
	}
	m.Versioning.Versions = append(m.Versioning.Versions, version)
	m.Versioning.LastUpdated = now.UTC().Format("20060102150405")
	return true
}

// Marshal encodes m with an XML declaration and two-space indentation.
func (m *Metadata) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", MetadataFile, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
