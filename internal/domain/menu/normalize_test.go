package menu

import "testing"

func TestNormalizeDish(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single code list", in: "Schnitzel (1,2, 19)", want: "Schnitzel "},
		{name: "code list mid-string", in: "Currywurst (2,3) mit Pommes", want: "Currywurst mit Pommes"},
		{name: "adjacent code lists", in: "Gulasch (1) (2,3) Topf", want: "Gulasch Topf"},
		{name: "no codes", in: "Salatteller", want: "Salatteller"},
		{name: "plain parentheses kept", in: "Tofu (vegan)", want: "Tofu (vegan)"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDish(tt.in)
			if got != tt.want {
				t.Fatalf("NormalizeDish(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeDishIdempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"Schnitzel (1,2, 19)",
		"Gulasch (1) (2,3) Topf",
		"Tofu (vegan)",
		"(4)(5)(6)",
		"",
	}
	for _, in := range inputs {
		once := NormalizeDish(in)
		twice := NormalizeDish(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
