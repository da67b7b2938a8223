package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/brandscrape/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ProductSelector matches one product listing element.
const ProductSelector = ".product-item"

// Structural selectors applied inside each product element.
var (
	productMatcher     = cascadia.MustCompile(ProductSelector)
	linkMatcher        = cascadia.MustCompile("a")
	titleMatcher       = cascadia.MustCompile("h2")
	descriptionMatcher = cascadia.MustCompile(".description")
	priceMatcher       = cascadia.MustCompile(".price")
	imageMatcher       = cascadia.MustCompile("img")
	tagMatcher         = cascadia.MustCompile(".tag")
)

var (
	errNoLink        = errors.New("product has no link element")
	errNoTitle       = errors.New("product has no title heading")
	errNoImageSource = errors.New("product image has no src attribute")
)

// stockKeyword marks a product as available when found in its text.
const stockKeyword = "in stock"

// nonRendered elements contribute no visible text.
var nonRendered = map[atom.Atom]struct{}{
	atom.Script:   {},
	atom.Style:    {},
	atom.Noscript: {},
	atom.Template: {},
}

// Extract parses a page snapshot and returns one record per product
// element in DOM order. A product missing its link or title is reported
// in the failures and skipped; missing description or price degrade to
// models.NotAvailable. A page without product elements yields an empty,
// non-nil slice.
//
// Extract is pure: the same HTML and base URL always give the same output.
func Extract(rawHTML, baseURL string) ([]models.ScrapedRecord, []ProductFailure, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeNavigation, "invalid page base URL", err)
	}

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeNavigation, "failed to parse page HTML", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	records := []models.ScrapedRecord{}
	var skipped []ProductFailure
	doc.FindMatcher(productMatcher).Each(func(i int, s *goquery.Selection) {
		rec, err := extractProduct(s, base)
		if err != nil {
			skipped = append(skipped, ProductFailure{Index: i, Err: err})
			return
		}
		records = append(records, rec)
	})

	return records, skipped, nil
}

func extractProduct(s *goquery.Selection, base *url.URL) (models.ScrapedRecord, error) {
	link := s.FindMatcher(linkMatcher).First()
	if link.Length() == 0 {
		return models.ScrapedRecord{}, errNoLink
	}
	href, _ := link.Attr("href")
	productURL, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return models.ScrapedRecord{}, fmt.Errorf("resolve product link %q: %w", href, err)
	}

	title := s.FindMatcher(titleMatcher).First()
	if title.Length() == 0 {
		return models.ScrapedRecord{}, errNoTitle
	}

	var images []string
	var imageErr error
	s.FindMatcher(imageMatcher).EachWithBreak(func(i int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok {
			imageErr = fmt.Errorf("image %d: %w", i+1, errNoImageSource)
			return false
		}
		images = append(images, resolveSrc(base, src))
		return true
	})
	if imageErr != nil {
		return models.ScrapedRecord{}, imageErr
	}

	var tags []string
	s.FindMatcher(tagMatcher).Each(func(_ int, tag *goquery.Selection) {
		tags = append(tags, visibleText(tag))
	})

	return models.ScrapedRecord{
		Title:       visibleText(title),
		Description: optionalText(s, descriptionMatcher),
		Price:       optionalText(s, priceMatcher),
		Stock:       stockStatus(visibleText(s)),
		Tags:        strings.Join(tags, ", "),
		Images:      strings.Join(images, "; "),
		URL:         productURL.String(),
	}, nil
}

// resolveSrc returns the absolute image URL the way the DOM src property
// reports it. An empty or unparsable value is kept as written.
func resolveSrc(base *url.URL, src string) string {
	if strings.TrimSpace(src) == "" {
		return src
	}
	u, err := base.Parse(strings.TrimSpace(src))
	if err != nil {
		return src
	}
	return u.String()
}

// optionalText returns the text of the first match, or models.NotAvailable.
func optionalText(s *goquery.Selection, m goquery.Matcher) string {
	match := s.FindMatcher(m).First()
	if match.Length() == 0 {
		return models.NotAvailable
	}
	return visibleText(match)
}

// stockStatus applies the keyword heuristic case-insensitively.
func stockStatus(text string) string {
	if strings.Contains(strings.ToLower(text), stockKeyword) {
		return models.StockIn
	}
	return models.StockOut
}

// visibleText concatenates the text nodes under the selection, skipping
// script-like and inline-hidden elements, and collapses whitespace runs
// (line breaks included) to single spaces.
func visibleText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if _, skip := nonRendered[n.DataAtom]; skip || hiddenInline(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// hiddenInline reports whether n is hidden by its own markup: the hidden
// attribute or an inline display:none / visibility:hidden. Stylesheet
// rules are not evaluated.
func hiddenInline(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "style":
			style := strings.ToLower(strings.Join(strings.Fields(a.Val), ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}
