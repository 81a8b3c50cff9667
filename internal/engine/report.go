package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/git-pkgs/depmeta/internal/core"
)

const separator = "------------------------------------------------------------------------"

// WriteOutcome prints one outcome as a separator-framed block naming the
// record it came from and the affected dependency.
func WriteOutcome(w io.Writer, o core.Outcome) error {
	_, err := fmt.Fprintf(w, "%s\nMetadata source: %s\n%s - %s\n%s\n",
		separator, o.Source, o.Dependency.Coordinate, o.Message, separator)
	return err
}

// WriteReport prints every hard failure followed by every warning.
func WriteReport(w io.Writer, v *core.Verdict) error {
	for _, o := range v.HardFailures {
		if err := WriteOutcome(w, o); err != nil {
			return err
		}
	}
	for _, o := range v.Warnings {
		if err := WriteOutcome(w, o); err != nil {
			return err
		}
	}
	return nil
}

// LogVerdict logs hard failures at Error and warnings at Warn.
func LogVerdict(logger *slog.Logger, v *core.Verdict) {
	for _, o := range v.HardFailures {
		logger.Error("dependency metadata failure", outcomeAttrs(o)...)
	}
	for _, o := range v.Warnings {
		logger.Warn("dependency metadata warning", outcomeAttrs(o)...)
	}
}

func outcomeAttrs(o core.Outcome) []any {
	return []any{
		slog.String("dependency", o.Dependency.Coordinate.String()),
		slog.String("source", o.Source.String()),
		slog.String("origin_version", o.OriginVersion),
		slog.String("message", o.Message),
	}
}
