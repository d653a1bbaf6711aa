// Package extractor turns a news index page into candidate article records.
package extractor

import (
	"bytes"
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
)

const (
	DefaultLinkSelector    = "a.media__link"
	DefaultSummarySelector = "p.media__summary"
)

// Selectors names the markup conventions of the source site.
type Selectors struct {
	// Link matches each article anchor.
	Link string `env:"EXTRACTOR_LINK_SELECTOR"    yaml:"link_selector"`
	// Summary matches the paragraph that follows the anchor's container.
	Summary string `env:"EXTRACTOR_SUMMARY_SELECTOR" yaml:"summary_selector"`
}

func (s *Selectors) SetDefaults() {
	if s.Link == "" {
		s.Link = DefaultLinkSelector
	}
	if s.Summary == "" {
		s.Summary = DefaultSummarySelector
	}
}

// Extractor applies Selectors to raw markup. It keeps no state between calls.
type Extractor struct {
	selectors Selectors
}

func New(selectors Selectors) *Extractor {
	selectors.SetDefaults()
	return &Extractor{selectors: selectors}
}

// Extract yields one candidate per matching anchor, in document order.
//
// Nothing is parsed until the sequence is ranged over, and every range
// re-reads markup, so the sequence can be consumed more than once. Malformed
// markup never fails: the HTML parser repairs it and unmatched elements are
// skipped, as are anchors without an href. Zero matches yield an empty
// sequence.
//
// The title is the anchor's text as-is. The link is the raw href, not resolved
// against any base URL. The summary is the trimmed text of the first sibling
// after the anchor's parent that matches the summary selector, or "".
func (e *Extractor) Extract(markup []byte) iter.Seq[domain.Candidate] {
	return func(yield func(domain.Candidate) bool) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
		if err != nil {
			return
		}

		doc.Find(e.selectors.Link).EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
			c, ok := e.candidate(anchor)
			if !ok {
				return true
			}
			return yield(c)
		})
	}
}

// candidate reports false for anchors without an href: the link is the
// article's identity, so they cannot become articles.
func (e *Extractor) candidate(anchor *goquery.Selection) (domain.Candidate, bool) {
	href, ok := anchor.Attr("href")
	if !ok {
		return domain.Candidate{}, false
	}

	summary := anchor.Parent().NextAllFiltered(e.selectors.Summary).First()

	return domain.Candidate{
		Title:   anchor.Text(),
		Link:    href,
		Summary: strings.TrimSpace(summary.Text()),
	}, true
}

// Collect drains seq into a slice. The result is never nil.
func Collect(seq iter.Seq[domain.Candidate]) []domain.Candidate {
	out := make([]domain.Candidate, 0)
	for c := range seq {
		out = append(out, c)
	}
	return out
}
