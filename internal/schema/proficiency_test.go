package schema

import "testing"

func TestNormalizeProficiency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fluent", "C1"},
		{"I am fluent in English", "C1"},
		{"Upper intermediate", "B2"},
		{"pre-intermediate", "A2"},
		{"b2", "B2"},
		{"B2 (upper-intermediate)", "B2"},
		{"native speaker", "C2"},
		{"inglés básico", "A2"},
		{"nivel intermedio", "B1"},
		{"bilingüe", "C2"},
		{"fluent English, basic French", ""},
		{"I studied abroad", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeProficiency(tt.in); got != tt.want {
				t.Fatalf("NormalizeProficiency(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelRank(t *testing.T) {
	if LevelRank("a1") != 1 || LevelRank("C2") != 6 {
		t.Fatal("unexpected rank for scale ends")
	}
	if LevelRank(LevelAny) != 0 || LevelRank("") != 0 {
		t.Fatal("unknown levels must rank 0")
	}
}
