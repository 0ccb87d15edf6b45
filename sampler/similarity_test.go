package sampler

import "testing"

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"both empty", "", "", 1.0},
		{"whitespace only", "   ", "\t", 1.0},
		{"one empty", "", "short", 0},
		{"identical", "fast and stable", "fast and stable", 1.0},
		{"case insensitive", "Fast App", "fast app", 1.0},
		{"half overlap", "The cat sat", "the dog sat", 0.5},
		{"duplicates collapse", "a a b", "b a", 1.0},
		{"disjoint", "crashes on login", "beautiful dark theme", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); got != tt.want {
				t.Errorf("Jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestJaccard_Symmetric(t *testing.T) {
	texts := []string{
		"",
		"short",
		"The cat sat on the mat",
		"the mat was flat",
		"Battery drains overnight even in airplane mode",
		"airplane mode fixes nothing",
	}
	for _, a := range texts {
		for _, b := range texts {
			if Jaccard(a, b) != Jaccard(b, a) {
				t.Errorf("Jaccard(%q, %q) != Jaccard(%q, %q)", a, b, b, a)
			}
		}
	}
}

func TestWordSet_AccumulatesLikeJoinedText(t *testing.T) {
	ref := make(wordSet)
	ref.add("The cat sat")
	ref.add("on the mat")

	candidate := "a cat on a hat"
	want := Jaccard(candidate, "The cat sat on the mat")
	if got := newWordSet(candidate).jaccard(ref); got != want {
		t.Errorf("accumulated jaccard = %v, want %v", got, want)
	}
}
