package model

import "testing"

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already normalized", input: "123 Main St", want: "123 Main St"},
		{name: "surrounding whitespace", input: "  123 Main St \n", want: "123 Main St"},
		{name: "internal runs", input: "123  Main\t\tSt", want: "123 Main St"},
		{name: "blank", input: " \t ", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "unicode kept", input: "Calle  Mayor 5,  Málaga", want: "Calle Mayor 5, Málaga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAddress(tt.input); got != tt.want {
				t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Los Angeles "); got != "Los Angeles" {
		t.Errorf("expected trimmed name, got %q", got)
	}
	if got := NormalizeName("USA"); got != "USA" {
		t.Errorf("expected unchanged name, got %q", got)
	}
}
