package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"sitemirror/config"
	"sitemirror/fetch"
	"sitemirror/mirror"
	"sitemirror/utils"
)

func main() {
	cfg := config.InitFlags()
	if cfg == nil {
		os.Exit(1)
	}

	if !utils.IsValidURL(cfg.EntryURL) {
		fmt.Printf("invalid URL: %s\n", cfg.EntryURL)
		os.Exit(1)
	}
	entryURL := utils.NormalizeURL(cfg.EntryURL)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSec)*time.Second)
	defer cancel()

	client := fetch.NewClient(cfg.UserAgent, cfg.RatePerSec)

	var render mirror.RenderFunc
	if cfg.Render {
		userAgent := cfg.UserAgent
		render = func(ctx context.Context, rawURL string) ([]byte, error) {
			return fetch.RenderHTML(ctx, rawURL, userAgent)
		}
	}

	m := mirror.NewMirrorer(entryURL, cfg.OutputDir, cfg.StorageHost, cfg.BadgeMatch, client, render)

	fmt.Printf("Starting mirror of %s\n", entryURL)
	fmt.Printf("Output directory: %s\n", cfg.OutputDir)

	result, err := m.Mirror(ctx)
	if err != nil {
		fmt.Printf("Error during mirroring: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Downloaded %d files (%s)\n", result.Written, utils.FormatBytes(result.Bytes))
	for _, f := range result.Failed {
		fmt.Printf("Warning: failed to fetch %s: %v\n", f.URL, f.Err)
	}
	for _, p := range result.Dangling {
		fmt.Printf("Warning: dangling local reference: %s\n", p)
	}
	fmt.Println("Mirror complete.")
}
