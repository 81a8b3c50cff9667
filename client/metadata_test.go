package client

import (
	"strings"
	"testing"
	"time"
)

const sampleMetadata = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>com.google.guava</groupId>
  <artifactId>guava</artifactId>
  <versioning>
    <latest>32.1.0</latest>
    <release>32.1.0</release>
    <versions>
      <version>31.0</version>
      <version>31.1</version>
      <version>32.1.0</version>
    </versions>
    <lastUpdated>20230601120000</lastUpdated>
  </versioning>
</metadata>`

const sampleSnapshotMetadata = `<metadata modelVersion="1.1.0">
  <groupId>com.example</groupId>
  <artifactId>lib</artifactId>
  <version>1.1-SNAPSHOT</version>
  <versioning>
    <snapshot>
      <timestamp>20240102.030405</timestamp>
      <buildNumber>7</buildNumber>
    </snapshot>
    <snapshotVersions>
      <snapshotVersion>
        <extension>jar</extension>
        <value>1.1-20240102.030405-7</value>
      </snapshotVersion>
      <snapshotVersion>
        <classifier>metadata</classifier>
        <extension>json</extension>
        <value>1.1-20240102.030405-6</value>
      </snapshotVersion>
    </snapshotVersions>
  </versioning>
</metadata>`

func TestParseMetadata(t *testing.T) {
	m, err := ParseMetadata([]byte(sampleMetadata))
	if err != nil {
		t.Fatalf("ParseMetadata failed: %v", err)
	}
	if m.ArtifactID != "guava" {
		t.Errorf("ArtifactID = %q, want %q", m.ArtifactID, "guava")
	}
	want := []string{"31.0", "31.1", "32.1.0"}
	if len(m.Versioning.Versions) != len(want) {
		t.Fatalf("Versions = %v, want %v", m.Versioning.Versions, want)
	}
	for i, v := range want {
		if m.Versioning.Versions[i] != v {
			t.Errorf("Versions[%d] = %q, want %q", i, m.Versioning.Versions[i], v)
		}
	}
}

func TestParseMetadataInvalid(t *testing.T) {
	if _, err := ParseMetadata([]byte("<metadata><versioning>")); err == nil {
		t.Error("expected error for truncated document")
	}
}

func TestSnapshotValue(t *testing.T) {
	m, err := ParseMetadata([]byte(sampleSnapshotMetadata))
	if err != nil {
		t.Fatalf("ParseMetadata failed: %v", err)
	}
	if m.Versioning.Snapshot == nil || m.Versioning.Snapshot.BuildNumber != 7 {
		t.Errorf("Snapshot = %+v", m.Versioning.Snapshot)
	}

	got, ok := m.SnapshotValue("metadata", "json")
	if !ok || got != "1.1-20240102.030405-6" {
		t.Errorf("SnapshotValue(metadata, json) = (%q, %v)", got, ok)
	}
	if _, ok := m.SnapshotValue("sources", "jar"); ok {
		t.Error("expected no value for sources jar")
	}
}

func TestAddVersionAndMarshal(t *testing.T) {
	m := &Metadata{GroupID: "com.example", ArtifactID: "lib"}
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	if !m.AddVersion("1.0", now) {
		t.Error("AddVersion(1.0) = false on empty index")
	}
	if m.AddVersion("1.0", now) {
		t.Error("AddVersion(1.0) = true for duplicate")
	}
	if m.Versioning.LastUpdated != "20240506070809" {
		t.Errorf("LastUpdated = %q", m.Versioning.LastUpdated)
	}

	data, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Errorf("missing XML header: %s", data)
	}

	back, err := ParseMetadata(data)
	if err != nil {
		t.Fatalf("ParseMetadata failed: %v", err)
	}
	if len(back.Versioning.Versions) != 1 || back.Versioning.Versions[0] != "1.0" {
		t.Errorf("Versions = %v", back.Versioning.Versions)
	}
	if back.GroupID != "com.example" {
		t.Errorf("GroupID = %q", back.GroupID)
	}
}
