package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	// min cost keeps the test fast; production cost comes from config
	hash, err := HashPassword("Abcdef1!", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "Abcdef1!" || hash == "" {
		t.Fatal("expected a non-empty derived hash")
	}
	if !VerifyPassword(hash, "Abcdef1!") {
		t.Fatal("expected matching password to verify")
	}
	if VerifyPassword(hash, "abcdef1!") {
		t.Fatal("expected mismatching password to fail")
	}
}

func TestPasswordStrengthScoring(t *testing.T) {
	cases := []struct {
		password string
		score    int
		strong   bool
	}{
		{"", 0, false},
		{"abc", 1, false},
		{"abcdefgh", 2, false},
		{"Abcdefgh", 3, false},
		{"Abcdef1!", 5, true},
		{"Abcdefgh1!xx", 6, true},
		{"ABCDEF12", 3, false},
	}
	for _, tc := range cases {
		got := CheckPasswordStrength(tc.password)
		if got.Score != tc.score {
			t.Fatalf("%q: expected score %d, got %d", tc.password, tc.score, got.Score)
		}
		if got.IsStrong != tc.strong {
			t.Fatalf("%q: expected strong=%v, got %v", tc.password, tc.strong, got.IsStrong)
		}
	}
}

func TestPasswordStrengthSuggestionsNameMissingClasses(t *testing.T) {
	report := CheckPasswordStrength("abcdefgh")
	joined := strings.Join(report.Suggestions, "|")
	for _, want := range []string{"uppercase", "digits", "symbols"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected suggestion mentioning %q, got %v", want, report.Suggestions)
		}
	}
	if strings.Contains(joined, "lowercase") || strings.Contains(joined, "8 characters") {
		t.Fatalf("unexpected suggestion for satisfied class: %v", report.Suggestions)
	}
}

func TestPasswordStrengthMonotonicOnAddedClass(t *testing.T) {
	base := "abcdefgh"
	baseScore := CheckPasswordStrength(base).Score
	for _, suffix := range []string{"1", "A", "!"} {
		if got := CheckPasswordStrength(base + suffix).Score; got < baseScore {
			t.Fatalf("adding %q decreased score from %d to %d", suffix, baseScore, got)
		}
	}
}
