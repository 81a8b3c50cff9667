package engine

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/git-pkgs/depmeta/internal/core"
)

func TestWriteReport(t *testing.T) {
	lib := coord("lib", "")
	verdict := &core.Verdict{
		HardFailures: []core.Outcome{{
			Dependency: dep("lib", "1.0.0", true),
			Source:     lib.Record("1.0.0"),
			Severity:   core.SeverityFail,
			Message:    "do not use",
		}},
		Warnings: []core.Outcome{{
			Dependency: dep("lib", "1.0.0", true),
			Source:     lib.Record("1.2.0"),
			Severity:   core.SeverityWarn,
			Message:    "please upgrade",
		}},
	}

	var buf bytes.Buffer
	if err := WriteReport(&buf, verdict); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	want := separator + "\n" +
		"Metadata source: com.example:lib:json:metadata:1.0.0\n" +
		"com.example:lib:jar:1.0.0 - do not use\n" +
		separator + "\n" +
		separator + "\n" +
		"Metadata source: com.example:lib:json:metadata:1.2.0\n" +
		"com.example:lib:jar:1.0.0 - please upgrade\n" +
		separator + "\n"
	if buf.String() != want {
		t.Errorf("report = %q, want %q", buf.String(), want)
	}
}

func TestLogVerdict(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	LogVerdict(logger, &core.Verdict{
		HardFailures: []core.Outcome{{Dependency: dep("a", "1.0", true), Source: coord("a", "").Record("1.0"), Message: "boom"}},
		Warnings:     []core.Outcome{{Dependency: dep("b", "2.0", true), Source: coord("b", "").Record("2.1"), OriginVersion: "2.1", Message: "meh"}},
	})

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "message=boom") {
		t.Errorf("missing error line in %q", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "origin_version=2.1") {
		t.Errorf("missing warning line in %q", out)
	}
}
