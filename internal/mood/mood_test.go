package mood

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolveNormalization(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase", input: "happy", want: "happy"},
		{name: "uppercase with trailing space", input: "HAPPY ", want: "happy"},
		{name: "mixed case", input: "Relaxed", want: "relaxed"},
		{name: "surrounding whitespace", input: "  focused\t", want: "focused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.input)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.input, err)
			}
			if got.Label != tt.want {
				t.Errorf("Label = %q, want %q", got.Label, tt.want)
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	a, err := Resolve("HAPPY ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, err := Resolve("happy")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("normalized and exact lookups differ: %+v vs %+v", a, b)
	}
}

func TestResolveUnsupported(t *testing.T) {
	_, err := Resolve("euphoric")
	if err == nil {
		t.Fatal("expected error for unsupported mood")
	}

	var unsupported *UnsupportedMoodError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error type = %T, want *UnsupportedMoodError", err)
	}
	if len(unsupported.Supported) != 6 {
		t.Errorf("supported list has %d entries, want 6", len(unsupported.Supported))
	}
	if unsupported.Label != "euphoric" {
		t.Errorf("Label = %q, want %q", unsupported.Label, "euphoric")
	}
}

func TestProfileBoundsAreConsistent(t *testing.T) {
	for _, label := range Labels() {
		p, err := Resolve(label)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", label, err)
		}
		if len(p.Features) == 0 {
			t.Errorf("%s: profile has no features", label)
		}
		for feature, r := range p.Features {
			if r.Target == nil && r.Min == nil && r.Max == nil {
				t.Errorf("%s/%s: empty feature range", label, feature)
			}
			if r.Target != nil && r.Min != nil && *r.Target < *r.Min {
				t.Errorf("%s/%s: target %v below min %v", label, feature, *r.Target, *r.Min)
			}
			if r.Target != nil && r.Max != nil && *r.Target > *r.Max {
				t.Errorf("%s/%s: target %v above max %v", label, feature, *r.Target, *r.Max)
			}
			if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
				t.Errorf("%s/%s: min %v above max %v", label, feature, *r.Min, *r.Max)
			}
		}
	}
}

func TestProfileSeedsBounded(t *testing.T) {
	for _, label := range Labels() {
		p, _ := Resolve(label)
		if len(p.GenreSeeds) == 0 || len(p.GenreSeeds) > 5 {
			t.Errorf("%s: %d genre seeds, want 1-5", label, len(p.GenreSeeds))
		}
		if len(p.SearchPhrases) == 0 {
			t.Errorf("%s: no search phrases", label)
		}
	}
}

func TestLabelsSorted(t *testing.T) {
	want := []string{"energetic", "focused", "happy", "relaxed", "romantic", "sad"}
	if got := Labels(); !reflect.DeepEqual(got, want) {
		t.Errorf("Labels() = %v, want %v", got, want)
	}
}

func TestDescriptionsCoverAllLabels(t *testing.T) {
	descs := Descriptions()
	for _, label := range Labels() {
		if descs[label] == "" {
			t.Errorf("missing description for %s", label)
		}
	}
}
