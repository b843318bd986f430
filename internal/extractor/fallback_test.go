// internal/extractor/fallback_test.go
package extractor

import (
	"testing"
	"time"

	"github.com/wishlane/linkmeta/internal/retailer"
)

func TestFallbackMetadataTitleFromPath(t *testing.T) {
	tests := []struct {
		url   string
		title string
	}{
		{"https://shop.example.com/wireless-noise-cancelling-headphones", "Wireless Noise Cancelling Headphones"},
		{"https://shop.example.com/products/red_ceramic_mug.html", "Red Ceramic Mug"},
		{"https://shop.example.com/", ""},
	}

	for _, tt := range tests {
		meta := fallbackMetadata(tt.url, retailer.Detect(tt.url), time.Now())
		if meta.Title != tt.title {
			t.Errorf("fallbackMetadata(%q).Title = %q, want %q", tt.url, meta.Title, tt.title)
		}
		if meta.Method != MethodFallback {
			t.Errorf("fallbackMetadata(%q).Method = %q", tt.url, meta.Method)
		}
		if meta.Description != "" || meta.Image != "" || meta.SiteName != "" {
			t.Errorf("fallbackMetadata(%q) carries page fields: %+v", tt.url, meta)
		}
	}
}

func TestFallbackMetadataMergesDetection(t *testing.T) {
	url := "https://www.target.com/p/lamp/-/A-54551690"
	meta := fallbackMetadata(url, retailer.Detect(url), time.Now())

	if meta.Retailer != retailer.TagTarget {
		t.Errorf("expected target retailer tag, got %q", meta.Retailer)
	}
	if meta.ProductID != "54551690" {
		t.Errorf("expected detected product ID, got %q", meta.ProductID)
	}
}
