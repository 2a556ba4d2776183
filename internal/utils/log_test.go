package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "high attrition risk",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "low risk",
			limit:  10,
			expect: "low risk",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "overtime drives risk",
			limit:  8,
			expect: "overtime...",
		},
		{
			name:   "folds markdown onto one line",
			input:  "## Summary\n\n* overtime\n* commute",
			limit:  100,
			expect: "## Summary * overtime * commute",
		},
		{
			name:   "counts runes not bytes",
			input:  "risque élevé",
			limit:  8,
			expect: "risque é...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestOneLine(t *testing.T) {
	if got := OneLine("  a\tb\r\n c  "); got != "a b c" {
		t.Fatalf("unexpected %q", got)
	}
}
