package engine

import (
	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/record"
)

// IgnoreReason says why a fetched record did not apply.
type IgnoreReason string

const (
	FormatMismatch IgnoreReason = "format_mismatch"
	NotApplicable  IgnoreReason = "not_applicable"
)

// Evaluation is the decision for one record against one dependency.
// Reason is empty when the record applies.
type Evaluation struct {
	Record core.Record
	Reason IgnoreReason
}

func (e Evaluation) Applicable() bool {
	return e.Reason == ""
}

// Evaluate parses the record published at source and decides whether it applies
// to a dependency resolved at dependencyVersion. Rules, first match wins:
// a malformed payload is an error, a format version other than expected is
// ignored, a record from the dependency's own version applies, and a record
// marked appliesToPreviousVersions applies. Anything else is ignored.
func Evaluate(source core.Coordinate, payload []byte, dependencyVersion string, expectedFormatVersion int) (Evaluation, error) {
	rec, err := record.Parse(payload)
	if err != nil {
		return Evaluation{}, &core.MalformedRecordError{Coordinate: source, Err: err}
	}

	eval := Evaluation{Record: rec}
	switch {
	case rec.FormatVersion != expectedFormatVersion:
		eval.Reason = FormatMismatch
	case source.Version == dependencyVersion:
	case rec.AppliesToPreviousVersions:
	default:
		eval.Reason = NotApplicable
	}
	return eval, nil
}
