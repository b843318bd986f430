// Package urlutil validates, normalizes, and sanitizes user-submitted URLs
// before they enter the extraction pipeline.
package urlutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validation constants for configurable limits
const (
	// DefaultMaxURLLength is the longest raw URL accepted by default.
	DefaultMaxURLLength = 2048
)

// Rules configures URL validation behavior.
type Rules struct {
	MaxLength      int      `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	AllowedSchemes []string `yaml:"allowed_schemes,omitempty" json:"allowed_schemes,omitempty"`
	RequireHTTPS   bool     `yaml:"require_https,omitempty" json:"require_https,omitempty"`
	AllowedHosts   []string `yaml:"allowed_hosts,omitempty" json:"allowed_hosts,omitempty"`
	BlockedHosts   []string `yaml:"blocked_hosts,omitempty" json:"blocked_hosts,omitempty"`

	// AllowLoopback permits loopback targets. Off outside of tests and
	// local development.
	AllowLoopback bool `yaml:"allow_loopback,omitempty" json:"allow_loopback,omitempty"`
}

// DefaultRules returns the validation rules used when none are configured.
func DefaultRules() Rules {
	return Rules{
		MaxLength:      DefaultMaxURLLength,
		AllowedSchemes: []string{"http", "https"},
		BlockedHosts:   []string{"localhost"},
	}
}

// Result reports the outcome of validating a single raw URL. Warnings are
// non-fatal; Valid is false only for hard rejections.
type Result struct {
	Valid         bool     `json:"valid"`
	NormalizedURL string   `json:"normalized_url,omitempty"`
	Error         string   `json:"error,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// trackingParamPrefixes is the deny-list of query parameters stripped during
// normalization, matched case-insensitively by prefix. Generic analytics
// parameters, social-referral markers, and retailer affiliate tags.
var trackingParamPrefixes = []string{
	"utm_",
	"ga_",
	"gclid",
	"gclsrc",
	"dclid",
	"fbclid",
	"igshid",
	"mc_cid",
	"mc_eid",
	"msclkid",
	"twclid",
	"ttclid",
	"ref_",
	"referrer",
	"spm",
	"tag",
	"ascsubtag",
	"linkcode",
	"linkid",
	"affid",
	"afftrack",
	"aff_",
	"cmpid",
	"cid",
	"icid",
	"sr_share",
	"_branch_match_id",
}

// fileSuffixes are path suffixes stripped when deriving display titles.
var fileSuffixes = []string{".html", ".htm", ".php", ".asp", ".aspx", ".jsp", ".cfm"}

// Validate checks a raw URL string against the rules and returns the
// normalized form on success.
func Validate(rawURL string, rules Rules) Result {
	if rules.MaxLength <= 0 {
		rules.MaxLength = DefaultMaxURLLength
	}
	if len(rules.AllowedSchemes) == 0 {
		rules.AllowedSchemes = []string{"http", "https"}
	}

	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return invalid("URL cannot be empty")
	}
	if len(trimmed) > rules.MaxLength {
		return invalid(fmt.Sprintf("URL exceeds maximum length of %d characters", rules.MaxLength))
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return invalid(fmt.Sprintf("malformed URL: %v", err))
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return invalid("URL must be absolute with scheme and host")
	}

	scheme := strings.ToLower(parsed.Scheme)
	schemeAllowed := false
	for _, allowed := range rules.AllowedSchemes {
		if scheme == strings.ToLower(allowed) {
			schemeAllowed = true
			break
		}
	}
	if !schemeAllowed {
		return invalid(fmt.Sprintf("scheme %q is not allowed", parsed.Scheme))
	}
	if rules.RequireHTTPS && scheme != "https" {
		return invalid("only https URLs are accepted")
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return invalid("URL has no hostname")
	}

	blocked := rules.BlockedHosts
	if blocked == nil && !rules.AllowLoopback {
		blocked = []string{"localhost"}
	}
	for _, b := range blocked {
		if host == strings.ToLower(b) {
			return invalid(fmt.Sprintf("host %q is blocked", host))
		}
	}
	if !rules.AllowLoopback {
		if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
			return invalid("loopback addresses are blocked")
		}
	}

	if len(rules.AllowedHosts) > 0 {
		hostAllowed := false
		for _, allowed := range rules.AllowedHosts {
			if hostMatches(host, strings.ToLower(allowed)) {
				hostAllowed = true
				break
			}
		}
		if !hostAllowed {
			return invalid(fmt.Sprintf("host %q is not in the allow-list", host))
		}
	}

	var warnings []string
	if scheme == "http" {
		warnings = append(warnings, "URL uses insecure http")
	}
	if net.ParseIP(host) != nil {
		warnings = append(warnings, "URL uses an IP address instead of a hostname")
	}

	return Result{
		Valid:         true,
		NormalizedURL: Normalize(trimmed),
		Warnings:      warnings,
	}
}

// Normalize rebuilds a URL from scheme, host, and path, removes tracking
// query parameters, and trims a single trailing slash on non-root paths.
// Normalize is idempotent; syntactically invalid input is returned unchanged.
func Normalize(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return rawURL
	}

	path := parsed.EscapedPath()
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}

	normalized := strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host) + path

	query := RemoveTrackingParams(parsed.RawQuery)
	if query != "" {
		normalized += "?" + query
	}
	return normalized
}

// Sanitize normalizes a URL and additionally clears embedded credentials and
// any fragment, producing a form safe for storage and display.
func Sanitize(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	parsed.User = nil
	parsed.Fragment = ""
	return Normalize(parsed.String())
}

// RemoveTrackingParams filters a raw query string, dropping every parameter
// whose name matches the tracking deny-list by case-insensitive prefix.
// Surviving parameters keep their original relative order.
func RemoveTrackingParams(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name := pair
		if idx := strings.Index(pair, "="); idx >= 0 {
			name = pair[:idx]
		}
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if !isTrackingParam(name) {
			kept = append(kept, pair)
		}
	}
	return strings.Join(kept, "&")
}

// isTrackingParam reports whether a query parameter name matches the
// deny-list by prefix.
func isTrackingParam(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range trackingParamPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// productPathMarkers are path fragments that commonly identify product pages.
var productPathMarkers = []string{
	"/product/",
	"/products/",
	"/item/",
	"/items/",
	"/dp/",
	"/gp/product/",
	"/p/",
	"/ip/",
	"/itm/",
	"/listing/",
	"/shop/",
	"/buy/",
	"/sku/",
}

// IsProductURL heuristically reports whether a URL looks like a product page.
func IsProductURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	path := strings.ToLower(parsed.Path)
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	for _, marker := range productPathMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

// ExtractDomain returns the lowercase hostname without a leading "www.".
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// IsSameResource reports whether two URLs normalize to the same string.
func IsSameResource(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// TitleFromPath derives a human-readable title from the last non-empty path
// segment of a URL: separators become spaces, known file suffixes are
// stripped. The caller is responsible for casing.
func TitleFromPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(parsed.Path, "/")
	var last string
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			last = segments[i]
			break
		}
	}
	if last == "" {
		return ""
	}

	if decoded, err := url.PathUnescape(last); err == nil {
		last = decoded
	}
	lower := strings.ToLower(last)
	for _, suffix := range fileSuffixes {
		if strings.HasSuffix(lower, suffix) {
			last = last[:len(last)-len(suffix)]
			break
		}
	}

	replacer := strings.NewReplacer("-", " ", "_", " ", "+", " ", ".", " ")
	title := replacer.Replace(last)
	return strings.Join(strings.Fields(title), " ")
}

// hostMatches supports exact and "*.domain" wildcard allow-list entries.
func hostMatches(host, allowed string) bool {
	if host == allowed {
		return true
	}
	if strings.HasPrefix(allowed, "*.") {
		domain := allowed[2:]
		return host == domain || strings.HasSuffix(host, "."+domain)
	}
	// Bare domains also admit their subdomains.
	return strings.HasSuffix(host, "."+allowed)
}

func invalid(message string) Result {
	return Result{Valid: false, Error: message}
}
