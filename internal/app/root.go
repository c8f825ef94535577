package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/oshokin/smartfetch/internal/config"
	"github.com/oshokin/smartfetch/internal/constants"
	"github.com/oshokin/smartfetch/internal/debug"
	"github.com/oshokin/smartfetch/internal/fetcher"
	"github.com/oshokin/smartfetch/internal/identity"
	"github.com/oshokin/smartfetch/internal/logger"
	"github.com/oshokin/smartfetch/internal/utils"
)

// ExecuteRootCommand is the entry point for the application.
// It loads the identity pool, wires the debug recorder when requested,
// restores persisted cookies, and fetches the provided URLs.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config, urls []string) {
	store, err := identity.NewStore(cfg.UserAgentsPath, cfg.ProxiesPath)
	if err != nil {
		logger.Fatalf(ctx, "Failed to load identity pool: %v", err)
	}

	var recorder debug.Recorder

	if cfg.DebugRequests {
		sink, sinkErr := debug.NewFileSink(cfg.DebugDirectory)
		if sinkErr != nil {
			logger.Fatalf(ctx, "Failed to prepare debug directory: %v", sinkErr)
		}

		recorder = debug.NewRecorder(sink)
	}

	f, err := fetcher.NewFetcher(cfg, store, recorder)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize fetcher: %v", err)
	}

	if cfg.CookiesPath != "" {
		if err = f.DefaultClient().LoadCookies(cfg.CookiesPath); err != nil {
			logger.Warnf(ctx, "Failed to load cookies: %v", err)
		}
	}

	// Ensure cookies and statistics are ALWAYS persisted, even on panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		saveCookies(ctx, cfg, f)
		f.PrintFetchSummary(ctx)
	}()

	fetchURLs(ctx, cfg, f, urls)
}

// fetchURLs runs the fetch loop over the provided URLs.
func fetchURLs(ctx context.Context, cfg *config.Config, f fetcher.Fetcher, urls []string) {
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(cfg.OutputPath, constants.DefaultFolderPermissions); err != nil {
			logger.Errorf(ctx, "Failed to create output path: %v", err)
			return
		}
	}

	f.MarkStart()
	defer f.MarkEnd()

	logger.Info(ctx, "Starting fetch process")

	bar := progressbar.Default(int64(len(urls)), "Fetching")

	for _, url := range urls {
		if ctx.Err() != nil {
			logger.Warn(ctx, "Fetch interrupted, stopping")
			return
		}

		if err := fetchOne(ctx, cfg, f, url); err != nil {
			logger.Errorf(ctx, "Failed to fetch %s: %v", url, err)
		}

		_ = bar.Add(1)
	}

	logger.Info(ctx, "Fetch process completed")
}

// fetchOne fetches a single URL and delivers its body as configured.
func fetchOne(ctx context.Context, cfg *config.Config, f fetcher.Fetcher, url string) error {
	var (
		body      []byte
		extension string
	)

	if cfg.DecodeJSON {
		parsed, err := f.FetchJSON(ctx, url, cfg.DebugRequests)
		if err != nil {
			return err
		}

		encoded, err := json.MarshalIndent(parsed, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode fetched JSON: %w", err)
		}

		body, extension = encoded, constants.ExtensionJSON
	} else {
		text, err := f.FetchText(ctx, url, cfg.DebugRequests)
		if err != nil {
			return err
		}

		body, extension = []byte(text), constants.ExtensionTXT
	}

	return deliverBody(cfg, url, body, extension)
}

// deliverBody writes the fetched body to the output directory,
// or to stdout when no output path is configured.
func deliverBody(cfg *config.Config, url string, body []byte, extension string) error {
	if cfg.OutputPath == "" {
		if _, err := fmt.Fprintf(os.Stdout, "%s\n", body); err != nil {
			return fmt.Errorf("failed to write body to stdout: %w", err)
		}

		return nil
	}

	path := filepath.Join(cfg.OutputPath, outputFilename(url, extension))

	if err := os.WriteFile(path, body, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write body to file: %w", err)
	}

	return nil
}

// outputFilename derives a filesystem-safe filename from the URL.
func outputFilename(url, extension string) string {
	name := utils.SanitizeFilename(url)

	return utils.SetFileExtension(name, extension, false)
}

// saveCookies persists the default session's cookie jar when configured.
func saveCookies(ctx context.Context, cfg *config.Config, f fetcher.Fetcher) {
	if cfg.CookiesPath == "" {
		return
	}

	if err := f.DefaultClient().SaveCookies(cfg.CookiesPath); err != nil {
		logger.Errorf(ctx, "Failed to save cookies: %v", err)
	}
}
