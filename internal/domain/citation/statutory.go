// Package citation implements the two citation pipelines: statutory
// extraction over per-jurisdiction pattern tables, and case-law parsing
// with pinpoint-merging deduplication. The two pipelines are structurally
// separate and their outputs are never cross-merged.
package citation

import (
	"regexp"
	"strings"
)

// Family groups statutory citations by the code or rule set they cite.
type Family string

const (
	FamilyLaCCP   Family = "LA_CCP"  // Louisiana Code of Civil Procedure
	FamilyLaRS    Family = "LA_RS"   // Louisiana Revised Statutes
	FamilyLaCC    Family = "LA_CC"   // Louisiana Civil Code
	FamilyCalCCP  Family = "CAL_CCP" // California Code of Civil Procedure
	FamilyCalEvid Family = "CAL_EVID"
	FamilyUSC     Family = "USC"
	FamilyFRCP    Family = "FRCP"
	FamilyFRE     Family = "FRE"
)

// Statutory is one extracted statutory citation. Verified is always false:
// this extractor is advisory-only and performs no authority check.
type Statutory struct {
	Raw          string `json:"raw"`
	Jurisdiction string `json:"jurisdiction"`
	Family       Family `json:"family"`
	Article      string `json:"article"`
	Verified     bool   `json:"verified"`
}

// statutePattern is one row of the per-jurisdiction pattern table. The
// table is an ordered list: extending to a new jurisdiction means appending
// entries, not adding conditional branches.
type statutePattern struct {
	re           *regexp.Regexp
	family       Family
	jurisdiction string
}

// statutePatterns is applied in registration order against the motion text.
var statutePatterns = []statutePattern{
	// Louisiana
	{regexp.MustCompile(`(?i)La\.?\s*C\.?\s*C\.?\s*P\.?\s*[Aa]rt(?:icle)?\.?\s*(\d+(?:\.\d+)?)`), FamilyLaCCP, "LA"},
	{regexp.MustCompile(`(?i)La\.?\s*R\.?\s*S\.?\s*(?:§\s*)?(\d+:\d+(?:\.\d+)?)`), FamilyLaRS, "LA"},
	{regexp.MustCompile(`(?i)La\.?\s*C(?:iv)?\.?\s*C(?:ode)?\.?\s*[Aa]rt(?:icle)?\.?\s*(\d+(?:\.\d+)?)`), FamilyLaCC, "LA"},

	// California
	{regexp.MustCompile(`(?i)Cal\.?\s*(?:Code\s*)?Civ\.?\s*Proc\.?\s*(?:Code\s*)?§?\s*(\d+[a-z]?(?:\.\d+)?)`), FamilyCalCCP, "CA"},
	{regexp.MustCompile(`(?i)Cal\.?\s*Evid\.?\s*Code\s*§?\s*(\d+(?:\.\d+)?)`), FamilyCalEvid, "CA"},

	// Federal
	{regexp.MustCompile(`(?i)(\d+)\s*U\.?\s*S\.?\s*C\.?\s*(?:§\s*)?(\d+[a-z]?(?:\([a-z0-9]\))*)`), FamilyUSC, "FED"},
	{regexp.MustCompile(`(?i)Fed\.?\s*R\.?\s*Civ\.?\s*P\.?\s*(\d+(?:\([a-z]\))*)`), FamilyFRCP, "FED"},
	{regexp.MustCompile(`(?i)Fed\.?\s*R\.?\s*Evid\.?\s*(\d+(?:\([a-z]\))*)`), FamilyFRE, "FED"},
}

// ExtractStatutory runs the ordered pattern table over text and returns the
// deduplicated citations in first-seen order. The dedup key is
// (family, article), case-insensitively; the first match wins.
func ExtractStatutory(text string) []Statutory {
	seen := make(map[string]bool)
	var out []Statutory
	for _, p := range statutePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			article := m[1]
			if len(m) > 2 && m[2] != "" {
				// USC carries the title outside the capture for the section.
				article = m[1] + " § " + m[2]
			}
			key := string(p.family) + "|" + strings.ToLower(article)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Statutory{
				Raw:          strings.TrimSpace(m[0]),
				Jurisdiction: p.jurisdiction,
				Family:       p.family,
				Article:      article,
				Verified:     false,
			})
		}
	}
	return out
}

// GroupStatutoryByJurisdiction buckets extracted citations by jurisdiction,
// preserving extraction order within each bucket.
func GroupStatutoryByJurisdiction(cites []Statutory) map[string][]Statutory {
	out := make(map[string][]Statutory)
	for _, c := range cites {
		out[c.Jurisdiction] = append(out[c.Jurisdiction], c)
	}
	return out
}

// GroupStatutoryByFamily buckets extracted citations by family, preserving
// extraction order within each bucket.
func GroupStatutoryByFamily(cites []Statutory) map[Family][]Statutory {
	out := make(map[Family][]Statutory)
	for _, c := range cites {
		out[c.Family] = append(out[c.Family], c)
	}
	return out
}
