// cmd/linkmeta/main.go
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/wishlane/linkmeta/internal/config"
	"github.com/wishlane/linkmeta/internal/monitoring"
	"github.com/wishlane/linkmeta/internal/output"
	"github.com/wishlane/linkmeta/internal/urlutil"
	"github.com/wishlane/linkmeta/internal/utils"
	"github.com/wishlane/linkmeta/pkg/api"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// main handles CLI arguments and routes to the appropriate command.
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "extract":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: URL required\n")
			fmt.Fprintf(os.Stderr, "Usage: linkmeta extract <url>\n")
			os.Exit(1)
		}
		runExtract(os.Args[2])

	case "batch":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: URL file required\n")
			fmt.Fprintf(os.Stderr, "Usage: linkmeta batch <urls.txt>\n")
			os.Exit(1)
		}
		runBatch(os.Args[2])

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: URL required\n")
			fmt.Fprintf(os.Stderr, "Usage: linkmeta validate <url>\n")
			os.Exit(1)
		}
		runValidate(os.Args[2])

	case "template":
		fmt.Print(config.GenerateTemplate())

	case "version", "--version":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

// runExtract extracts one URL and prints the record as JSON.
func runExtract(url string) {
	logger := setupLogger()
	client, cfg := buildClient(logger)
	defer client.Close()

	opts := optionsFromFlags(cfg)
	meta, err := client.Extract(context.Background(), url, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

// runBatch reads one URL per line and extracts them concurrently.
func runBatch(file string) {
	logger := setupLogger()
	client, cfg := buildClient(logger)
	defer client.Close()

	urls, err := readURLFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(urls) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no URLs in %s\n", file)
		os.Exit(1)
	}

	var monSrv *monitoring.Server
	if cfg.Monitoring.Enabled {
		metrics := monitoring.NewMetricsManager(monitoring.MetricsConfig{Namespace: cfg.Monitoring.Namespace})
		monSrv = monitoring.NewServer(monitoring.ServerConfig{ListenAddress: cfg.Monitoring.ListenAddress}, metrics, nil)
		go monSrv.Start()
		defer monSrv.Stop(context.Background())
	}

	result := client.ExtractBatch(context.Background(), urls, optionsFromFlags(cfg))

	manager, err := output.NewManager(output.Format(flagValue("-f", "--format")), flagValue("-o", "--output"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := manager.Write(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger.Infof("batch complete: %d succeeded, %d failed in %s",
		result.Succeeded, result.Failed, result.Duration.Round(1e6))
	if result.Failed > 0 {
		os.Exit(2)
	}
}

// runValidate checks a URL without fetching it.
func runValidate(url string) {
	res := urlutil.Validate(url, urlutil.DefaultRules())
	data, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(data))
	if !res.Valid {
		os.Exit(1)
	}
}

// buildClient loads the configuration (from -c/--config if given) and
// constructs the API client.
func buildClient(logger utils.Logger) (*api.Client, *config.ServiceConfig) {
	var cfg *config.ServiceConfig
	if file := flagValue("-c", "--config"); file != "" {
		loaded, err := config.LoadFromFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
		logger.Debugf("configuration loaded from %s", file)
	} else {
		cfg = config.Default()
	}

	client, err := api.NewClient(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return client, cfg
}

func optionsFromFlags(cfg *config.ServiceConfig) api.Options {
	opts := api.Options{
		ForceRefresh:          hasFlag("--force-refresh"),
		IncludeRetailerData:   hasFlag("--retailer-data"),
		ExtractProductDetails: cfg.Extraction.ProductDetails || hasFlag("--product-details"),
		UseFallback:           cfg.Extraction.UseFallback,
	}
	if hasFlag("--no-fallback") {
		disabled := false
		opts.UseFallback = &disabled
	}
	return opts
}

func setupLogger() utils.Logger {
	if hasFlag("-v") || hasFlag("--verbose") {
		return utils.NewLoggerWithLevel(utils.ParseLogLevel("debug"))
	}
	return utils.NewLogger()
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	return urls, nil
}

// hasFlag checks if a flag is present in command line arguments.
func hasFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}

// flagValue returns the value following any of the given flags, or "".
func flagValue(flags ...string) string {
	for i, arg := range os.Args {
		for _, flag := range flags {
			if arg == flag && i+1 < len(os.Args) {
				return os.Args[i+1]
			}
			if strings.HasPrefix(arg, flag+"=") {
				return strings.TrimPrefix(arg, flag+"=")
			}
		}
	}
	return ""
}

// printUsage displays help information.
func printUsage() {
	fmt.Println("linkmeta - Product URL Metadata Extractor")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  linkmeta extract <url>       Extract metadata for a single URL")
	fmt.Println("  linkmeta batch <urls.txt>    Extract metadata for every URL in a file")
	fmt.Println("  linkmeta validate <url>      Validate and normalize a URL without fetching")
	fmt.Println("  linkmeta template            Print a starter configuration file")
	fmt.Println("  linkmeta version             Show version information")
	fmt.Println("  linkmeta help                Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -c, --config <file>          Load configuration from a YAML file")
	fmt.Println("  -o, --output <file>          Write batch results to a file")
	fmt.Println("  -f, --format <fmt>           Batch output format: json, csv, excel")
	fmt.Println("  --force-refresh              Bypass the cache read")
	fmt.Println("  --no-fallback                Fail instead of degrading on fetch/parse errors")
	fmt.Println("  --retailer-data              Attach retailer detection details")
	fmt.Println("  --product-details            Extract price and product fields")
	fmt.Println("  -v, --verbose                Enable verbose output")
}

// printVersion displays version information.
func printVersion() {
	fmt.Printf("linkmeta %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
