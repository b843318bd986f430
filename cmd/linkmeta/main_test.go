// cmd/linkmeta/main_test.go
package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# wishlist imports
https://www.amazon.com/dp/B08N5WRWNW

https://www.target.com/p/lamp/-/A-54551690
  https://www.etsy.com/listing/123456789
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	urls, err := readURLFile(path)
	if err != nil {
		t.Fatalf("readURLFile failed: %v", err)
	}
	want := []string{
		"https://www.amazon.com/dp/B08N5WRWNW",
		"https://www.target.com/p/lamp/-/A-54551690",
		"https://www.etsy.com/listing/123456789",
	}
	if len(urls) != len(want) {
		t.Fatalf("expected %d URLs, got %d: %v", len(want), len(urls), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("url %d = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestReadURLFileMissing(t *testing.T) {
	if _, err := readURLFile("/nonexistent/urls.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFlagValue(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()

	os.Args = []string{"linkmeta", "batch", "urls.txt", "-o", "out.csv", "--format=excel"}

	if got := flagValue("-o", "--output"); got != "out.csv" {
		t.Errorf("flagValue -o = %q", got)
	}
	if got := flagValue("-f", "--format"); got != "excel" {
		t.Errorf("flagValue --format = %q", got)
	}
	if got := flagValue("-c", "--config"); got != "" {
		t.Errorf("flagValue -c = %q, want empty", got)
	}

	if !hasFlag("batch") {
		t.Error("hasFlag should find positional arg")
	}
	if hasFlag("--verbose") {
		t.Error("hasFlag found absent flag")
	}
}
