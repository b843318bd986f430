// internal/retailer/patterns.go
package retailer

import "regexp"

// Tag identifies a known retailer.
type Tag string

const (
	TagAmazon  Tag = "amazon"
	TagTarget  Tag = "target"
	TagWalmart Tag = "walmart"
	TagEtsy    Tag = "etsy"
	TagEBay    Tag = "ebay"
	TagBestBuy Tag = "bestbuy"
	TagUnknown Tag = "unknown"
)

// Pattern is a declarative rule identifying one online store: domain
// matchers, product-identifier extractors (tried in order, first capturing
// match wins), a URL-structure matcher, and a canonical URL template.
type Pattern struct {
	Tag           Tag
	Domains       []string
	IDPatterns    []*regexp.Regexp
	StructureRE   *regexp.Regexp
	CanonicalTmpl string
}

// patterns is the fixed, ordered retailer table. Detection walks it
// top-to-bottom and the first domain match wins; domain sets are disjoint so
// ordering only matters for determinism.
var patterns = []Pattern{
	{
		Tag:     TagAmazon,
		Domains: []string{"amazon.com", "amazon.co.uk", "amazon.de", "amazon.ca", "amzn.to"},
		IDPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/dp/([A-Z0-9]{10})(?:[/?]|$)`),
			regexp.MustCompile(`/gp/product/([A-Z0-9]{10})(?:[/?]|$)`),
			regexp.MustCompile(`/gp/aw/d/([A-Z0-9]{10})(?:[/?]|$)`),
		},
		StructureRE:   regexp.MustCompile(`/(dp|gp/product|gp/aw/d)/`),
		CanonicalTmpl: "https://www.amazon.com/dp/%s",
	},
	{
		Tag:     TagTarget,
		Domains: []string{"target.com"},
		IDPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/-/A-(\d+)`),
			regexp.MustCompile(`/p/[^/]+/A-(\d+)`),
		},
		StructureRE:   regexp.MustCompile(`/p/`),
		CanonicalTmpl: "https://www.target.com/p/-/A-%s",
	},
	{
		Tag:     TagWalmart,
		Domains: []string{"walmart.com"},
		IDPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/ip/(?:[^/]+/)?(\d{5,})(?:[/?]|$)`),
		},
		StructureRE:   regexp.MustCompile(`/ip/`),
		CanonicalTmpl: "https://www.walmart.com/ip/%s",
	},
	{
		Tag:     TagEtsy,
		Domains: []string{"etsy.com"},
		IDPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/listing/(\d+)`),
		},
		StructureRE:   regexp.MustCompile(`/listing/`),
		CanonicalTmpl: "https://www.etsy.com/listing/%s",
	},
	{
		Tag:     TagEBay,
		Domains: []string{"ebay.com", "ebay.co.uk", "ebay.de"},
		IDPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/itm/(?:[^/]+/)?(\d{9,})(?:[/?]|$)`),
		},
		StructureRE:   regexp.MustCompile(`/itm/`),
		CanonicalTmpl: "https://www.ebay.com/itm/%s",
	},
	{
		Tag:     TagBestBuy,
		Domains: []string{"bestbuy.com"},
		IDPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/site/[^/]+/(\d+)\.p`),
			regexp.MustCompile(`skuId=(\d+)`),
		},
		StructureRE:   regexp.MustCompile(`/site/`),
		CanonicalTmpl: "https://www.bestbuy.com/site/%s.p",
	},
}

// Patterns returns the ordered retailer table. The slice is shared; callers
// must not mutate it.
func Patterns() []Pattern {
	return patterns
}

// SupportedTags lists every retailer tag in table order.
func SupportedTags() []Tag {
	tags := make([]Tag, 0, len(patterns))
	for _, p := range patterns {
		tags = append(tags, p.Tag)
	}
	return tags
}
