package citation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// CaseLaw is one parsed case-law citation. Pinpoints are page references
// within the cited span; a deduplicated record carries the ordered union of
// pinpoints from every merged raw citation.
type CaseLaw struct {
	Raw       string `json:"raw"`
	CaseName  string `json:"case_name,omitempty"`
	Volume    int    `json:"volume"`
	Reporter  string `json:"reporter"`
	Page      int    `json:"page"`
	Pinpoints []int  `json:"pinpoints,omitempty"`
	Year      int    `json:"year,omitempty"`
	Court     string `json:"court,omitempty"`
}

// BaseKey identifies the cited opinion ignoring pinpoints: two citations
// with the same key differ at most by pin cite and are merged on dedup.
func (c CaseLaw) BaseKey() string {
	rep := strings.ToLower(strings.ReplaceAll(c.Reporter, " ", ""))
	return fmt.Sprintf("%d|%s|%d", c.Volume, rep, c.Page)
}

// citeCore matches volume, reporter, first page and the trailing pinpoint
// list. The lookahead after the page keeps ordinal reporter parts such as
// "2d" from being misread as the page.
var citeCore = regexp.MustCompile(`(\d+)\s+([A-Z][A-Za-z0-9.]*(?:\s[A-Za-z0-9.]+)*?)\s+(\d+)(?:[^\dA-Za-z]|$)((?:\s*\d+(?:-\d+)?,?)*)`)

var citeParen = regexp.MustCompile(`\(([A-Za-z.\s]*?)\s*(\d{4})\)`)

// ParseCaseLaw parses a single raw case-law citation string, e.g.
// "Smith v. Jones, 123 So.3d 456, 460 (La. App. 2013)". Returns ok=false
// when no volume/reporter/page core can be found.
func ParseCaseLaw(raw string) (CaseLaw, bool) {
	loc := citeCore.FindStringSubmatchIndex(raw)
	if loc == nil {
		return CaseLaw{}, false
	}
	m := citeCore.FindStringSubmatch(raw)

	vol, _ := strconv.Atoi(m[1])
	page, _ := strconv.Atoi(m[3])

	c := CaseLaw{
		Raw:      strings.TrimSpace(raw),
		Volume:   vol,
		Reporter: strings.TrimSpace(m[2]),
		Page:     page,
	}

	// Pinpoints trail the page as ", 460, 462-63".
	for _, p := range strings.FieldsFunc(m[4], func(r rune) bool { return r == ',' || r == ' ' }) {
		// A range keeps its starting page.
		if i := strings.IndexByte(p, '-'); i > 0 {
			p = p[:i]
		}
		if n, err := strconv.Atoi(p); err == nil {
			c.Pinpoints = append(c.Pinpoints, n)
		}
	}

	// Case name precedes the cite core when the string carries one.
	if head := strings.TrimRight(strings.TrimSpace(raw[:loc[0]]), ","); strings.Contains(head, " v. ") {
		c.CaseName = head
	}

	// Court and year from the trailing parenthetical.
	if pm := citeParen.FindStringSubmatch(raw[loc[1]:]); pm != nil {
		c.Court = strings.TrimSpace(pm[1])
		c.Year, _ = strconv.Atoi(pm[2])
	}

	return c, true
}

// ExtractCaseLaw parses each raw citation string and returns the
// deduplicated result. Unparseable strings are skipped; the extractor is
// advisory and never fails the phase.
func ExtractCaseLaw(raws []string) []CaseLaw {
	parsed := make([]CaseLaw, 0, len(raws))
	for _, r := range raws {
		if c, ok := ParseCaseLaw(r); ok {
			parsed = append(parsed, c)
		}
	}
	return DedupCaseLaw(parsed)
}

// caseNameTail captures an "X v. Y" span sitting directly before a cite
// core. The sentence-boundary exclusion keeps preceding prose out of the
// plaintiff's name.
var caseNameTail = regexp.MustCompile(`([A-Z][^.;]*?\sv\.\s[^,;]+?),?\s*$`)

// ScanCaseLaw finds case-law citations in free text and returns the
// deduplicated result. Each cite core is widened to pick up a preceding
// case name and a trailing court/year parenthetical.
func ScanCaseLaw(text string) []CaseLaw {
	locs := citeCore.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	raws := make([]string, 0, len(locs))
	prevEnd := 0
	for _, loc := range locs {
		start := loc[0]
		if start < prevEnd {
			continue
		}
		head := caseNameTail.FindString(text[prevEnd:start])
		end := loc[1]
		if pl := citeParen.FindStringIndex(text[end:]); pl != nil && pl[0] <= 40 {
			end += pl[1]
		}
		raws = append(raws, strings.TrimSpace(head+text[start:end]))
		prevEnd = end
	}
	return ExtractCaseLaw(raws)
}

// DedupCaseLaw groups citations by (volume, reporter, page) ignoring
// pinpoints. Citations differing only by pinpoint are merged into one
// record carrying the sorted, de-duplicated union of their pinpoints.
// The operation is idempotent and preserves first-seen group order.
func DedupCaseLaw(cites []CaseLaw) []CaseLaw {
	byKey := make(map[string]int)
	out := make([]CaseLaw, 0, len(cites))

	for _, c := range cites {
		key := c.BaseKey()
		i, ok := byKey[key]
		if !ok {
			byKey[key] = len(out)
			out = append(out, c)
			continue
		}
		out[i].Pinpoints = append(out[i].Pinpoints, c.Pinpoints...)
		// The merged record keeps the richest identifying fields.
		if out[i].CaseName == "" {
			out[i].CaseName = c.CaseName
		}
		if out[i].Year == 0 {
			out[i].Year = c.Year
		}
		if out[i].Court == "" {
			out[i].Court = c.Court
		}
	}

	for i := range out {
		out[i].Pinpoints = sortedUnique(out[i].Pinpoints)
	}
	return out
}

func sortedUnique(ns []int) []int {
	if len(ns) == 0 {
		return nil
	}
	sort.Ints(ns)
	uniq := ns[:1]
	for _, n := range ns[1:] {
		if n != uniq[len(uniq)-1] {
			uniq = append(uniq, n)
		}
	}
	return uniq
}
