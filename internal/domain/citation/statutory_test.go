package citation

import "testing"

func TestExtractStatutoryTwoJurisdictions(t *testing.T) {
	text := "Summary judgment is governed by La. C.C.P. Art. 966 in Louisiana " +
		"and by Cal. Civ. Proc. § 437c in California."

	got := ExtractStatutory(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 citations, got %d: %+v", len(got), got)
	}

	if got[0].Family != FamilyLaCCP || got[0].Article != "966" || got[0].Jurisdiction != "LA" {
		t.Errorf("unexpected first citation: %+v", got[0])
	}
	if got[1].Family != FamilyCalCCP || got[1].Article != "437c" || got[1].Jurisdiction != "CA" {
		t.Errorf("unexpected second citation: %+v", got[1])
	}
}

func TestExtractStatutoryDedupCaseInsensitive(t *testing.T) {
	text := "See La. C.C.P. Art. 966. As stated in la. c.c.p. art. 966, the mover bears the burden."
	got := ExtractStatutory(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 citation after dedup, got %d", len(got))
	}
	// First match wins: the raw text keeps the first spelling.
	if got[0].Raw != "La. C.C.P. Art. 966" {
		t.Errorf("expected first occurrence kept, got %q", got[0].Raw)
	}
}

func TestExtractStatutoryFederal(t *testing.T) {
	text := "Jurisdiction rests on 28 U.S.C. § 1332(a). Discovery follows Fed. R. Civ. P. 26(b)."
	got := ExtractStatutory(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 citations, got %d: %+v", len(got), got)
	}
	// USC articles compose title and section.
	if got[0].Family != FamilyUSC || got[0].Article != "28 § 1332(a)" {
		t.Errorf("unexpected USC citation: %+v", got[0])
	}
	if got[1].Family != FamilyFRCP || got[1].Article != "26(b)" {
		t.Errorf("unexpected FRCP citation: %+v", got[1])
	}
}

func TestExtractStatutoryVerifiedAlwaysFalse(t *testing.T) {
	got := ExtractStatutory("La. R.S. 9:2800.6 and Cal. Evid. Code § 452 and Fed. R. Evid. 702")
	if len(got) != 3 {
		t.Fatalf("expected 3 citations, got %d", len(got))
	}
	for _, c := range got {
		if c.Verified {
			t.Errorf("citation %q: extractor must never mark verified", c.Raw)
		}
	}
}

func TestExtractStatutoryEmptyText(t *testing.T) {
	if got := ExtractStatutory("no citations here"); len(got) != 0 {
		t.Errorf("expected no citations, got %+v", got)
	}
}

func TestGroupStatutory(t *testing.T) {
	cites := ExtractStatutory("La. C.C.P. Art. 966, La. R.S. 9:2800.6, Cal. Civ. Proc. § 437c")
	if len(cites) != 3 {
		t.Fatalf("expected 3 citations, got %d", len(cites))
	}

	byJur := GroupStatutoryByJurisdiction(cites)
	if len(byJur["LA"]) != 2 || len(byJur["CA"]) != 1 {
		t.Errorf("unexpected jurisdiction grouping: %+v", byJur)
	}

	byFam := GroupStatutoryByFamily(cites)
	if len(byFam[FamilyLaCCP]) != 1 || len(byFam[FamilyLaRS]) != 1 || len(byFam[FamilyCalCCP]) != 1 {
		t.Errorf("unexpected family grouping: %+v", byFam)
	}
}
