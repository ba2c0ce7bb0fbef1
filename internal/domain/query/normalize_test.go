package query

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation and case", "  Casa con ALBERCA, en Cancún!! ", "casa con alberca en cancún"},
		{"currency amount", "bajo $5,000,000", "bajo $5,000,000"},
		{"trailing period", "3.5 millones.", "3.5 millones"},
		{"slash between letters", "depa con a/c", "depa con a/c"},
		{"hyphen range", "2-3 millones", "2-3 millones"},
		{"hyphen between words", "pet-friendly", "pet friendly"},
		{"contraction", "I'm looking", "im looking"},
		{"only punctuation", "¿¡!?", ""},
		{"empty", "", ""},
		{"tabs and newlines", "casa\t\nmoderna", "casa moderna"},
		{"dangling dollar", "$ 5", "5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got.Text != tc.want {
				t.Errorf("Normalize(%q).Text = %q, want %q", tc.in, got.Text, tc.want)
			}
			if got.Raw != tc.in {
				t.Errorf("Raw = %q, want input preserved", got.Raw)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Casa con alberca en Cancún bajo 5 millones",
		"$1,500,000.00 USD!",
		"2-3 recámaras, 2.5 baños.",
		"¿Departamento en la CDMX?",
		"a/c + gym",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once.Text)
		if once.Text != twice.Text {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", in, once.Text, twice.Text)
		}
	}
}

func TestNormalize_Language(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{"casa con alberca en Cancún bajo 5 millones", Spanish},
		{"modern apartment downtown", English},
		{"house with pool near the beach", English},
		{"¿depa?", Spanish},
		{"loft", Unknown},
		{"", Unknown},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in).Language; got != tc.want {
			t.Errorf("Language(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalized_IsEmpty(t *testing.T) {
	if !Normalize("  ?? ").IsEmpty() {
		t.Error("punctuation-only query must normalize to empty")
	}
	if Normalize("casa").IsEmpty() {
		t.Error("single word must not be empty")
	}
}
