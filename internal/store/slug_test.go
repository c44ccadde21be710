package store

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Intro To Systems", "intro-to-systems"},
		{"already slugged", "intro-to-systems", "intro-to-systems"},
		{"punctuation", "Ops: A Practical Guide!", "ops-a-practical-guide"},
		{"collapsed separators", "a   b---c", "a-b-c"},
		{"leading and trailing junk", "  --Databases-- ", "databases"},
		{"unicode stripped", "café menu", "caf-menu"},
		{"empty", "", ""},
		{"only junk", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	if Slugify("Intro To Systems") != Slugify("Intro To Systems") {
		t.Fatal("same input produced different slugs")
	}
}

func TestSlugify_FixedPoint(t *testing.T) {
	inputs := []string{"Intro To Systems", "Ops: A Practical Guide!", "a   b---c", "x"}
	for _, in := range inputs {
		slug := Slugify(in)
		if again := Slugify(slug); again != slug {
			t.Errorf("Slugify(%q) = %q, but Slugify(%q) = %q", in, slug, slug, again)
		}
	}
}

func TestSlugify_CapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "ab "
	}
	slug := Slugify(long)
	if len(slug) > 80 {
		t.Errorf("slug length %d exceeds cap", len(slug))
	}
	if again := Slugify(slug); again != slug {
		t.Errorf("capped slug is not a fixed point: %q vs %q", slug, again)
	}
}
