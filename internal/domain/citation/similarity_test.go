package citation

import "testing"

func TestSimilarityExactMatch(t *testing.T) {
	if got := Similarity("MG-2024-0117", "mg-2024-0117"); got != 1 {
		t.Errorf("expected 1 for case-insensitive exact match, got %v", got)
	}
	if got := Similarity("  motion  ", "motion"); got != 1 {
		t.Errorf("expected 1 after trimming, got %v", got)
	}
}

func TestSimilarityEmpty(t *testing.T) {
	if got := Similarity("", "anything"); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
	if got := Similarity("", ""); got != 1 {
		t.Errorf("expected 1 for two empties, got %v", got)
	}
}

func TestSimilarityPrefixFloor(t *testing.T) {
	// A short query that prefixes the candidate scores at least 0.85.
	if got := Similarity("MG-20", "MG-2024-0117"); got < 0.85 {
		t.Errorf("expected prefix floor 0.85, got %v", got)
	}
}

func TestSimilarityOrdering(t *testing.T) {
	near := Similarity("summary judgment", "summary judgement")
	far := Similarity("summary judgment", "motion to compel")
	if near <= far {
		t.Errorf("expected near match %v to outrank far match %v", near, far)
	}
	if near < 0.9 {
		t.Errorf("one edit over 17 chars should score high, got %v", near)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "motion in limine", "motion to strike"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("expected symmetric scores")
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "zzzzzzzzzz"},
		{"abc", "xyz"},
		{"order", "ordr"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %v out of [0,1]", p[0], p[1], got)
		}
	}
}
