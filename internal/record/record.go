// Package record implements the persisted metadata record format.
//
// A record is a small JSON object published next to a library version:
//
//	{
//	  "formatVersion": 2,
//	  "message": "Artifact has been deprecated! Please consider updating the version!",
//	  "fail": false,
//	  "appliesToPreviousVersions": true
//	}
//
// Unknown fields are ignored. A missing appliesToPreviousVersions reads as false,
// and the legacy applyOnPreviousVersions spelling is accepted in its place.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/git-pkgs/depmeta/internal/core"
)

var errEmpty = errors.New("empty payload")

type document struct {
	FormatVersion             int    `json:"formatVersion"`
	Message                   string `json:"message"`
	Fail                      bool   `json:"fail"`
	AppliesToPreviousVersions *bool  `json:"appliesToPreviousVersions"`
	ApplyOnPreviousVersions   *bool  `json:"applyOnPreviousVersions"`
}

// Field order here is the on-disk order.
type output struct {
	FormatVersion             int    `json:"formatVersion"`
	Message                   string `json:"message"`
	Fail                      bool   `json:"fail"`
	AppliesToPreviousVersions bool   `json:"appliesToPreviousVersions"`
}

// Parse decodes a record payload.
func Parse(data []byte) (core.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return core.Record{}, errEmpty
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Record{}, fmt.Errorf("decoding record: %w", err)
	}
	if data[0] != '{' {
		return core.Record{}, fmt.Errorf("decoding record: expected a JSON object")
	}

	r := core.Record{
		FormatVersion: doc.FormatVersion,
		Message:       doc.Message,
		Fail:          doc.Fail,
	}
	switch {
	case doc.AppliesToPreviousVersions != nil:
		r.AppliesToPreviousVersions = *doc.AppliesToPreviousVersions
	case doc.ApplyOnPreviousVersions != nil:
		r.AppliesToPreviousVersions = *doc.ApplyOnPreviousVersions
	}
	return r, nil
}

// Encode renders r deterministically: fixed field order, two-space indent, trailing newline.
func Encode(r core.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{
		FormatVersion:             r.FormatVersion,
		Message:                   r.Message,
		Fail:                      r.Fail,
		AppliesToPreviousVersions: r.AppliesToPreviousVersions,
	}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename returns the file name of the record for name at version.
func Filename(name, version string) string {
	return fmt.Sprintf("%s-%s-%s.%s", name, version, core.RecordClassifier, core.RecordType)
}

// Pattern returns a glob matching every record file of name.
func Pattern(name string) string {
	return fmt.Sprintf("%s-*-%s.%s", name, core.RecordClassifier, core.RecordType)
}

// VersionFromFilename extracts the version from a record file name of name.
// The version must start with a digit, so the record of a sibling artifact
// such as name-core is not mistaken for one of name.
func VersionFromFilename(name, filename string) (string, bool) {
	prefix := name + "-"
	suffix := "-" + core.RecordClassifier + "." + core.RecordType
	if !strings.HasPrefix(filename, prefix) || !strings.HasSuffix(filename, suffix) {
		return "", false
	}
	if len(filename) <= len(prefix)+len(suffix) {
		return "", false
	}
	version := strings.TrimSuffix(strings.TrimPrefix(filename, prefix), suffix)
	if version[0] < '0' || version[0] > '9' {
		return "", false
	}
	return version, true
}
