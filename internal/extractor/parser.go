// internal/extractor/parser.go
package extractor

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wishlane/linkmeta/internal/utils"
)

// PageParser extracts metadata from HTML documents. The sources form a
// precedence chain: Open Graph tags, then Twitter Card tags, then plain
// document metadata. Later sources never overwrite an earlier hit.
type PageParser struct{}

// NewPageParser creates a parser.
func NewPageParser() *PageParser {
	return &PageParser{}
}

// Parse pulls metadata from the raw page. A document with no usable title
// from any source is a parse failure; partial documents otherwise produce
// partial records.
func (p *PageParser) Parse(body []byte, pageURL string) (*Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, utils.NewExtractionError(utils.KindParseFailed,
			"failed to parse HTML", pageURL).WithCause(err)
	}

	meta := &Metadata{URL: pageURL, Method: MethodPrimary}

	p.applyOpenGraph(doc, meta)
	p.applyTwitterCard(doc, meta)
	p.applyDocumentMeta(doc, meta)

	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if href := strings.TrimSpace(canonical); href != "" {
			meta.URL = href
		}
	}

	p.applyPrice(doc, meta)

	if meta.Title == "" {
		return nil, utils.NewExtractionError(utils.KindParseFailed,
			"document has no usable title", pageURL)
	}
	return meta, nil
}

func (p *PageParser) applyOpenGraph(doc *goquery.Document, meta *Metadata) {
	setIfEmpty(&meta.Title, metaProperty(doc, "og:title"))
	setIfEmpty(&meta.Description, metaProperty(doc, "og:description"))
	setIfEmpty(&meta.Image, metaProperty(doc, "og:image"))
	setIfEmpty(&meta.SiteName, metaProperty(doc, "og:site_name"))
	setIfEmpty(&meta.Locale, metaProperty(doc, "og:locale"))
	setIfEmpty(&meta.ContentType, metaProperty(doc, "og:type"))

	if meta.ImageWidth == 0 {
		if w, err := strconv.Atoi(metaProperty(doc, "og:image:width")); err == nil {
			meta.ImageWidth = w
		}
	}
	if meta.ImageHeight == 0 {
		if h, err := strconv.Atoi(metaProperty(doc, "og:image:height")); err == nil {
			meta.ImageHeight = h
		}
	}
	setIfEmpty(&meta.ImageAlt, metaProperty(doc, "og:image:alt"))
	setIfEmpty(&meta.ImageType, metaProperty(doc, "og:image:type"))
}

func (p *PageParser) applyTwitterCard(doc *goquery.Document, meta *Metadata) {
	setIfEmpty(&meta.Title, metaName(doc, "twitter:title"))
	setIfEmpty(&meta.Description, metaName(doc, "twitter:description"))
	setIfEmpty(&meta.Image, metaName(doc, "twitter:image"))
}

func (p *PageParser) applyDocumentMeta(doc *goquery.Document, meta *Metadata) {
	setIfEmpty(&meta.Description, metaName(doc, "description"))
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
}

// applyPrice looks for a price in Open Graph product tags first, then in
// schema.org microdata. An unparseable price leaves the record priceless
// rather than failing the extraction.
func (p *PageParser) applyPrice(doc *goquery.Document, meta *Metadata) {
	raw := metaProperty(doc, "product:price:amount")
	if raw == "" {
		raw = metaProperty(doc, "og:price:amount")
	}
	currency := metaProperty(doc, "product:price:currency")
	if currency == "" {
		currency = metaProperty(doc, "og:price:currency")
	}

	if raw == "" {
		sel := doc.Find(`[itemprop="price"]`).First()
		if content, ok := sel.Attr("content"); ok {
			raw = content
		} else {
			raw = strings.TrimSpace(sel.Text())
		}
		if currency == "" {
			csel := doc.Find(`[itemprop="priceCurrency"]`).First()
			if content, ok := csel.Attr("content"); ok {
				currency = content
			}
		}
	}

	if raw == "" {
		return
	}
	meta.RawPrice = raw
	meta.Currency = strings.TrimSpace(currency)
	if value, ok := parsePrice(raw); ok {
		meta.Price = value
	}
}

// parsePrice strips currency symbols and separators, then parses the
// remainder. Returns false for anything that is not a plain number.
func parsePrice(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			// Thousands separator; decimal commas are rare on the
			// retailers we target.
		case r == '$' || r == '£' || r == '€' || r == ' ':
		default:
			return 0, false
		}
	}
	cleaned := b.String()
	if cleaned == "" || strings.Count(cleaned, ".") > 1 {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func metaProperty(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(content)
}

func metaName(doc *goquery.Document, name string) string {
	content, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	return strings.TrimSpace(content)
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}
