// Package retailer detects known online stores from product URLs and
// extracts canonical product identifiers.
package retailer

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Confidence weights. Domain identity dominates; a recognizable identifier
// and URL shape add corroboration.
const (
	domainWeight     = 0.5
	identifierWeight = 0.3
	structureWeight  = 0.2

	// SupportThreshold is the minimum confidence for IsSupportedRetailer.
	SupportThreshold = 0.5
)

// DetectionResult describes how confidently a URL was matched to a retailer.
type DetectionResult struct {
	Retailer        Tag     `json:"retailer"`
	ProductID       string  `json:"product_id,omitempty"`
	Confidence      float64 `json:"confidence"`
	DomainMatch     bool    `json:"domain_match"`
	StructureMatch  bool    `json:"structure_match"`
	IdentifierFound bool    `json:"identifier_found"`
}

// unknownResult is the zero-confidence result for unmatched or unparsable
// input.
func unknownResult() DetectionResult {
	return DetectionResult{Retailer: TagUnknown}
}

// Detect matches a URL against the retailer table in declaration order. The
// first pattern whose domain matches the hostname is selected. Detect never
// fails: unparsable URLs and unknown domains yield the unknown result.
func Detect(rawURL string) DetectionResult {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return unknownResult()
	}
	host := strings.ToLower(parsed.Hostname())

	for _, p := range patterns {
		if !domainMatches(host, p.Domains) {
			continue
		}

		target := parsed.Path
		if parsed.RawQuery != "" {
			target += "?" + parsed.RawQuery
		}

		result := DetectionResult{
			Retailer:       p.Tag,
			DomainMatch:    true,
			StructureMatch: p.StructureRE.MatchString(parsed.Path),
		}
		if id := firstCapture(p.IDPatterns, target); id != "" {
			result.ProductID = id
			result.IdentifierFound = true
		}
		result.Confidence = confidence(result)
		return result
	}

	return unknownResult()
}

// ExtractProductID pulls the product identifier from a URL. A non-unknown
// hint dispatches straight to that retailer's extractor, skipping detection.
func ExtractProductID(rawURL string, hint Tag) string {
	if hint != "" && hint != TagUnknown {
		parsed, err := url.Parse(strings.TrimSpace(rawURL))
		if err != nil {
			return ""
		}
		target := parsed.Path
		if parsed.RawQuery != "" {
			target += "?" + parsed.RawQuery
		}
		for _, p := range patterns {
			if p.Tag == hint {
				return firstCapture(p.IDPatterns, target)
			}
		}
		return ""
	}
	return Detect(rawURL).ProductID
}

// IsSupportedRetailer reports whether the URL belongs to a known retailer
// with at least SupportThreshold confidence.
func IsSupportedRetailer(rawURL string) bool {
	result := Detect(rawURL)
	return result.Retailer != TagUnknown && result.Confidence >= SupportThreshold
}

// NormalizeProductURL rebuilds the minimal canonical product URL from the
// detected identifier, for stable cache keys and display. When no identifier
// was found the input is returned unchanged.
func NormalizeProductURL(rawURL string) string {
	result := Detect(rawURL)
	if !result.IdentifierFound {
		return rawURL
	}
	for _, p := range patterns {
		if p.Tag == result.Retailer {
			return fmt.Sprintf(p.CanonicalTmpl, result.ProductID)
		}
	}
	return rawURL
}

// confidence applies the weighted match formula; no domain match means zero.
func confidence(r DetectionResult) float64 {
	if !r.DomainMatch {
		return 0
	}
	score := domainWeight
	if r.IdentifierFound {
		score += identifierWeight
	}
	if r.StructureMatch {
		score += structureWeight
	}
	return score
}

// domainMatches reports whether host is one of the pattern's domains or a
// subdomain of one.
func domainMatches(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// firstCapture tries the identifier patterns in order and returns the first
// capturing-group match.
func firstCapture(res []*regexp.Regexp, target string) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(target); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
