package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"basic ascii", "Hello World", "hello-world"},
		{"punctuation", "NBA Best Bets: Lakers vs. Celtics (Feb 17)", "nba-best-bets-lakers-vs-celtics-feb-17"},
		{"multiple spaces", "Hello   World   Test", "hello-world-test"},
		{"unicode", "Café München", "cafe-munchen"},
		{"special characters", "Hello@#$%World", "helloworld"},
		{"leading and trailing", "  Hello World  ", "hello-world"},
		{"hyphens", "Hello--World-Test", "hello-world-test"},
		{"underscores", "Hello_World_Test", "hello-world-test"},
		{"only symbols", "!!!", ""},
		{"empty", "", ""},
		{
			"truncated",
			"This is a very long title that should be truncated to sixty characters for URLs",
			"this-is-a-very-long-title-that-should-be-truncated-to-sixty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.expected {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if len(got) > MaxLen {
				t.Errorf("slug longer than %d: %q", MaxLen, got)
			}
		})
	}
}

func TestGenerateWithFallback(t *testing.T) {
	if got := GenerateWithFallback("???", "Player Props"); got != "player-props" {
		t.Errorf("expected fallback slug, got %q", got)
	}
	if got := GenerateWithFallback("Odds", "ignored"); got != "odds" {
		t.Errorf("expected primary slug, got %q", got)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		input, expected string
	}{
		{"NBA Best Bets: Lakers vs. Celtics — Feb 17", "nba-best-bets-lakers-vs-celtics-feb-17"},
		{"Café Picks!", "café-picks"},
		{"  spaced   out  ", "spaced-out"},
		{"keep_under-scores", "keep_under-scores"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Filename(tt.input); got != tt.expected {
			t.Errorf("Filename(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}

	long := Filename(strings.Repeat("word ", 40))
	if n := len([]rune(long)); n != MaxLen {
		t.Errorf("expected %d characters, got %d", MaxLen, n)
	}
}
