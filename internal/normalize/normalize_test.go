package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normal", "add retry budget to the flush path", "add retry budget to the flush path"},
		{"leading and trailing whitespace", "  add retry budget  ", "add retry budget"},
		{"internal runs collapse", "add\t\tretry   budget\nnow", "add retry budget now"},
		{"lowercase fold", "Add RETRY Budget", "add retry budget"},
		{"trailing punctuation stripped", "add retry budget.", "add retry budget"},
		{"trailing punctuation run stripped", "really?!;", "really"},
		{"internal punctuation preserved", "flush, then sync: both paths", "flush, then sync: both paths"},
		{"punctuation exposes whitespace", "done .", "done"},
		{"interleaved punctuation and space trailer", "done . .", "done"},
		{"mixed punctuation kinds in trailer", "a . ; .", "a"},
		{"only punctuation", "...", ""},
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"unicode passes through", "Ünïcode Text!", "ünïcode text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Normalization is applied at mint time and again by auditors; it must be a
// fixed point of itself.
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"  Mixed   CASE with trailing.!?  ",
		"done .",
		"done . .",
		"fix this ; .",
		"a . ; .",
		"a, b; c",
		"plain",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent on %q: first %q, second %q", in, once, twice)
		}
	}
}
