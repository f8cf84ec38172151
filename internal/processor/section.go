package processor

import (
	"regexp"
	"strings"

	"research-rag/internal/models"
)

// SectionUnknown is the sentinel section carried by blocks seen before any
// recognized heading.
const SectionUnknown = "unknown"

// sectionNames is the ordered list of canonical section names common to
// research papers. Earlier entries win when more than one matches.
var sectionNames = []string{
	"abstract",
	"introduction",
	"related work",
	"background",
	"methods",
	"experiments",
	"results",
	"discussion",
	"conclusion",
	"future work",
	"references",
	"acknowledgments",
}

// Leading enumeration like "3.", "3.2", "IV.", "A)" on a heading.
var leadingEnumRe = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]+)*[.)]?|[ivxlc]+[.)]|[a-z][.)])\s+`)

// sectionTracker carries the current-section state across one document pass.
// A fresh tracker is built per run; no state survives the fold.
type sectionTracker struct {
	current  string
	heading  string
	headings []models.HeadingEntry
}

func newSectionTracker() *sectionTracker {
	return &sectionTracker{current: SectionUnknown}
}

// observe consumes one heading block. The section only moves when the heading
// matches a known section name; cosmetic sub-headings leave it unchanged.
func (t *sectionTracker) observe(text string, page int) {
	if name, ok := matchSection(text); ok {
		t.current = name
	}
	t.heading = strings.TrimSpace(text)
	t.headings = append(t.headings, models.HeadingEntry{
		Heading: t.heading,
		Page:    page,
		Section: t.current,
	})
}

// matchSection normalizes a heading and scans every known section name in
// order. All names are tried before giving up; the first prefix match wins.
func matchSection(heading string) (string, bool) {
	norm := normalizeHeading(heading)
	for _, name := range sectionNames {
		if strings.HasPrefix(norm, name) {
			return name, true
		}
	}
	return "", false
}

// normalizeHeading case-folds, trims, and strips a leading enumeration so
// "3. Results" matches the same as "Results".
func normalizeHeading(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = leadingEnumRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// TagSections folds over blocks strictly in document order, stamping each
// block with the section and heading active at the time it was seen. It
// returns the tagged blocks and the list of detected headings. Reordering
// blocks before this pass would corrupt the tags; the input must be in
// emission order.
func TagSections(blocks []models.Block) ([]models.Block, []models.HeadingEntry) {
	tracker := newSectionTracker()
	tagged := make([]models.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.IsHeading {
			tracker.observe(b.Text, b.Page)
		}
		b.Section = tracker.current
		b.Heading = tracker.heading
		tagged = append(tagged, b)
	}
	return tagged, tracker.headings
}
