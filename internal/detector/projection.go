package detector

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sitesentry/sitesentry/internal/common"
	"github.com/sitesentry/sitesentry/internal/models"
)

const (
	maxParagraphs = 10
	maxLinks      = 20
	maxPrices     = 20
)

// currencyPattern matches $-prefixed amounts ($19.99, $1,299, $5).
var currencyPattern = regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d{1,2})?`)

// BuildSnapshot extracts the normalized projection of a page (title,
// heading text, first 10 paragraphs, first 20 links) and computes the
// content and price hashes over it. The bounded projection avoids false
// positives from unrelated page churn while still catching real edits.
func BuildSnapshot(html string, capturedAt time.Time) (*models.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, common.WrapError(err, "failed to parse HTML content")
	}

	snap := &models.Snapshot{
		Title:      normalizeText(doc.Find("title").First().Text()),
		HTML:       html,
		CapturedAt: capturedAt,
	}

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeText(s.Text()); text != "" {
			snap.Headings = append(snap.Headings, text)
		}
	})

	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := normalizeText(s.Text()); text != "" {
			snap.Paragraphs = append(snap.Paragraphs, text)
		}
		return len(snap.Paragraphs) < maxParagraphs
	})

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
			snap.Links = append(snap.Links, href)
		}
		return len(snap.Links) < maxLinks
	})

	snap.ContentHash = contentHash(snap)
	snap.PriceHash = priceHash(html)

	return snap, nil
}

// normalizeText collapses runs of whitespace so markup reformatting does
// not change the projection.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// contentHash computes a stable digest over the normalized projection,
// order-preserving and case-sensitive.
func contentHash(snap *models.Snapshot) string {
	var b strings.Builder
	b.WriteString(snap.Title)
	b.WriteString("\n--\n")
	b.WriteString(strings.Join(snap.Headings, "\n"))
	b.WriteString("\n--\n")
	b.WriteString(strings.Join(snap.Paragraphs, "\n"))
	b.WriteString("\n--\n")
	b.WriteString(strings.Join(snap.Links, "\n"))

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}

// priceHash computes a secondary digest over the currency-pattern
// substrings of the raw HTML, deduplicated and capped. Pages without
// prices hash to the empty string.
func priceHash(html string) string {
	matches := currencyPattern.FindAllString(html, -1)
	if len(matches) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(matches))
	prices := make([]string, 0, maxPrices)
	for _, m := range matches {
		m = strings.ReplaceAll(m, " ", "")
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		prices = append(prices, m)
		if len(prices) >= maxPrices {
			break
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(prices, ",")))
	return fmt.Sprintf("%x", sum)
}
