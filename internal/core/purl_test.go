package core

import (
	"testing"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		input   string
		want    Coordinate
		wantErr bool
	}{
		{"com.example:lib:1.0.0", Coordinate{Group: "com.example", Name: "lib", Version: "1.0.0", Type: "jar"}, false},
		{"com.example:lib:pom:1.0.0", Coordinate{Group: "com.example", Name: "lib", Version: "1.0.0", Type: "pom"}, false},
		{"com.example:lib:json:metadata:1.0.0", Coordinate{Group: "com.example", Name: "lib", Version: "1.0.0", Type: "json", Classifier: "metadata"}, false},
		{"pkg:maven/org.apache.commons/commons-lang3@3.12.0", Coordinate{Group: "org.apache.commons", Name: "commons-lang3", Version: "3.12.0", Type: "jar"}, false},
		{"pkg:maven/com.example/lib@2.0?classifier=metadata&type=json", Coordinate{Group: "com.example", Name: "lib", Version: "2.0", Type: "json", Classifier: "metadata"}, false},

		// Errors
		{"com.example:lib", Coordinate{}, true},
		{"com.example::1.0.0", Coordinate{}, true},
		{"pkg:npm/lodash@4.17.21", Coordinate{}, true},
		{"pkg:maven/com.example/lib", Coordinate{}, true}, // no version
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCoordinate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCoordinate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCoordinate(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoordinatePURL(t *testing.T) {
	tests := []struct {
		coord Coordinate
		want  string
	}{
		{Coordinate{Group: "com.example", Name: "lib", Version: "1.0.0", Type: "jar"}, "pkg:maven/com.example/lib@1.0.0"},
		{Coordinate{Group: "com.example", Name: "lib", Version: "1.0.0"}.Record("1.2.0"), "pkg:maven/com.example/lib@1.2.0?classifier=metadata&type=json"},
	}

	for _, tt := range tests {
		if got := tt.coord.PURL(); got != tt.want {
			t.Errorf("PURL() = %q, want %q", got, tt.want)
		}
	}
}

func TestCoordinateString(t *testing.T) {
	c := Coordinate{Group: "com.example", Name: "lib", Version: "1.0.0"}
	if got := c.String(); got != "com.example:lib:jar:1.0.0" {
		t.Errorf("String() = %q", got)
	}
	if got := c.Record("1.0.0").String(); got != "com.example:lib:json:metadata:1.0.0" {
		t.Errorf("Record().String() = %q", got)
	}
	if got := c.Key(); got != "com.example:lib" {
		t.Errorf("Key() = %q", got)
	}
}

func TestCoordinateIsSnapshot(t *testing.T) {
	if !(Coordinate{Version: "1.0-SNAPSHOT"}).IsSnapshot() {
		t.Error("expected 1.0-SNAPSHOT to be a snapshot")
	}
	if (Coordinate{Version: "1.0"}).IsSnapshot() {
		t.Error("expected 1.0 not to be a snapshot")
	}
}
