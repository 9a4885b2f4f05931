package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/shopstalk/internal/config"
	"github.com/IshaanNene/shopstalk/internal/engine"
	"github.com/IshaanNene/shopstalk/internal/fetcher"
	"github.com/IshaanNene/shopstalk/internal/observability"
	"github.com/IshaanNene/shopstalk/internal/storage"
)

var (
	cfgFile     string
	verbose     bool
	logFormat   string
	baseURL     string
	categories  string
	outputPath  string
	storageType string
	fetcherType string
	pageDelay   string
	refYear     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shopstalk",
		Short: "ShopStalk — single-site shop harvester",
		Long: `ShopStalk harvests one e-commerce demo site into a single JSON document:
the product catalog (paginated by category), the testimonials feed, and
customer reviews, via the review API with an embedded-JSON fallback.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// harvestCmd creates the "harvest" subcommand.
func harvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Run a full harvest of the configured site",
		Long:  "Crawl the catalog, testimonials, and reviews, then write the combined document to storage.",
		RunE:  runHarvest,
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "root URL of the target site")
	cmd.Flags().StringVar(&categories, "categories", "", "comma-separated catalog categories")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path")
	cmd.Flags().StringVarP(&storageType, "storage", "s", "", "storage backend: json, mongodb")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "fetcher type: http, browser")
	cmd.Flags().StringVar(&pageDelay, "delay", "", "politeness delay between listing pages")
	cmd.Flags().IntVar(&refYear, "reference-year", 0, "calendar year review dates are projected onto")

	return cmd
}

// runHarvest executes the harvest command.
func runHarvest(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting harvest",
		"base_url", cfg.Harvest.BaseURL,
		"categories", cfg.Harvest.Categories,
		"fetcher", cfg.Fetcher.Type,
		"storage", cfg.Storage.Type,
	)

	fetch, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer fetch.Close()

	store, err := storage.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer store.Close()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	eng := engine.New(cfg, fetch, store, metrics, logger)

	doc, err := eng.Run(ctx)
	if err != nil {
		return fmt.Errorf("harvest: %w", err)
	}

	elapsed := time.Since(start)
	snap := metrics.Snapshot()

	fmt.Printf("\n✅ Harvest complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Products:      %d (%d raw listings)\n", len(doc.Products), len(doc.ProductsRaw))
	fmt.Printf("   Testimonials:  %d\n", len(doc.Testimonials))
	fmt.Printf("   Reviews:       %d\n", len(doc.Reviews))
	fmt.Printf("   Requests:      %v sent, %v failed\n", snap["requests_total"], snap["requests_failed"])
	fmt.Printf("   Data:          %v bytes downloaded\n", snap["bytes_downloaded"])
	if cfg.Storage.Type == "json" {
		fmt.Printf("   Output:        %s\n", cfg.Storage.OutputPath)
	}

	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ShopStalk %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Harvest:\n")
			fmt.Printf("  Base URL:              %s\n", cfg.Harvest.BaseURL)
			fmt.Printf("  Categories:            %s\n", strings.Join(cfg.Harvest.Categories, ", "))
			fmt.Printf("  Max Pages:             %d\n", cfg.Harvest.MaxPages)
			fmt.Printf("  Page Delay:            %s\n", cfg.Harvest.PageDelay)
			fmt.Printf("  API Delay:             %s\n", cfg.Harvest.APIDelay)
			fmt.Printf("  Max Fallback Products: %d\n", cfg.Harvest.MaxFallbackProducts)
			fmt.Printf("  Reference Year:        %d\n", cfg.Harvest.ReferenceYear)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:                  %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:       %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Follow Redirects:      %v\n", cfg.Fetcher.FollowRedirects)
			fmt.Printf("  Max Body Size:         %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:                  %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path:           %s\n", cfg.Storage.OutputPath)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:               %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:                  %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(logFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if baseURL != "" {
		cfg.Harvest.BaseURL = baseURL
	}
	if categories != "" {
		var cats []string
		for _, c := range strings.Split(categories, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cats = append(cats, c)
			}
		}
		cfg.Harvest.Categories = cats
	}
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if storageType != "" {
		cfg.Storage.Type = strings.ToLower(storageType)
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(fetcherType)
	}
	if pageDelay != "" {
		if d, err := time.ParseDuration(pageDelay); err == nil {
			cfg.Harvest.PageDelay = d
		}
	}
	if refYear > 0 {
		cfg.Harvest.ReferenceYear = refYear
	}
}
