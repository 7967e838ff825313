package plays

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"playsarchiver/internal/core/domain"
)

// CSS selectors of the archived profile page.
const (
	selTotalButton  = ".header-btn"
	selTotalValue   = ".section-value"
	selAuthorLabel  = ".nav-tab-label"
	selContainer    = ".video-list-container"
	selMonth        = ".video-list-month"
	selVideoItem    = ".video-item"
	selVideoTitle   = ".title"
	selVideoTag     = ".video-tag"
	posterAttribute = "poster"
)

var parenthesizedRe = regexp.MustCompile(`\(([^)]*)\)`)

// profileDoc is a parsed snapshot of the rendered profile page.
type profileDoc struct {
	doc *goquery.Document
}

func parseProfile(html string) (*profileDoc, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse profile html: %w", err)
	}
	return &profileDoc{doc: doc}, nil
}

// totalCount reads the number shown on the first header button.
func (p *profileDoc) totalCount() (int, error) {
	text := strings.TrimSpace(p.doc.Find(selTotalButton).First().Find(selTotalValue).First().Text())
	if text == "" {
		return 0, fmt.Errorf("total video count not found")
	}
	n, err := strconv.Atoi(strings.ReplaceAll(text, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid total video count %q: %w", text, err)
	}
	return n, nil
}

// authorCount reads the count from the tab label, e.g. "Midorina's Videos (148)".
func (p *profileDoc) authorCount() (int, error) {
	label := strings.TrimSpace(p.doc.Find(selAuthorLabel).First().Text())
	return parseAuthorLabel(label)
}

// parseAuthorLabel returns the integer in the first parenthesized group of label.
func parseAuthorLabel(label string) (int, error) {
	m := parenthesizedRe.FindStringSubmatch(label)
	if m == nil {
		return 0, fmt.Errorf("no video count in label %q", label)
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(m[1], ",", "")))
	if err != nil {
		return 0, fmt.Errorf("invalid video count in label %q: %w", label, err)
	}
	return n, nil
}

// records returns one record per rendered video item, in page order.
// Every item of a container shares the container's month label.
func (p *profileDoc) records() []domain.VideoRecord {
	var out []domain.VideoRecord
	p.doc.Find(selContainer).Each(func(_ int, container *goquery.Selection) {
		date := strings.TrimSpace(container.Find(selMonth).First().Text())
		container.Find(selVideoItem).Each(func(_ int, item *goquery.Selection) {
			out = append(out, domain.VideoRecord{
				Title:     strings.TrimSpace(item.Find(selVideoTitle).First().Text()),
				DateLabel: date,
				PosterURL: strings.TrimSpace(item.Find(selVideoTag).First().AttrOr(posterAttribute, "")),
			})
		})
	})
	return out
}
