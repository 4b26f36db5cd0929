package identity

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
	}{
		{"lowercase hex", strings.Repeat("ab12", 16), true},
		{"uppercase hex accepted", strings.Repeat("AB12", 16), true},
		{"mixed case accepted", strings.Repeat("aB12", 16), true},
		{"all zeros", strings.Repeat("0", 64), true},
		{"too short", strings.Repeat("a", 63), false},
		{"too long", strings.Repeat("a", 65), false},
		{"empty", "", false},
		{"non-hex character", strings.Repeat("a", 63) + "g", false},
		{"embedded whitespace", strings.Repeat("a", 32) + " " + strings.Repeat("a", 31), false},
		{"npub-style prefix", "npub1" + strings.Repeat("a", 59), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Parse(tc.in)
			if tc.valid {
				if err != nil {
					t.Fatalf("Parse(%q) error = %v", tc.in, err)
				}
				if string(id) != tc.in {
					t.Errorf("Parse changed the value: got %q", id)
				}
			} else if err == nil {
				t.Fatalf("Parse(%q) should fail", tc.in)
			}
			if got := Valid(tc.in); got != tc.valid {
				t.Errorf("Valid(%q) = %v, want %v", tc.in, got, tc.valid)
			}
		})
	}
}

func TestMustParse_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustParse should panic on invalid input")
		}
	}()
	MustParse("not-a-key")
}
