package fold

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Cancún", "cancun"},
		{"MÉRIDA", "merida"},
		{"Querétaro", "queretaro"},
		{"año", "ano"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := String(tc.in); got != tc.want {
			t.Errorf("String(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestContains(t *testing.T) {
	if !Contains("Playa del Carmen", "CARMEN") {
		t.Error("expected case-insensitive match")
	}
	if !Contains("Cancún, Quintana Roo", "cancun") {
		t.Error("expected diacritic-insensitive match")
	}
	if Contains("Tulum", "cancun") {
		t.Error("unexpected match")
	}
	if !Contains("anything", "") {
		t.Error("empty needle must match")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("Mérida", "merida") {
		t.Error("expected folded equality")
	}
	if Equal("Mérida", "merid") {
		t.Error("unexpected equality")
	}
}
