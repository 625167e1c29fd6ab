// Package downloader fetches declared source CSVs into the landing
// directory. Sources with a direct URL are downloaded as-is; sources with
// an index URL get their .csv links discovered from the index page first.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/etl"
	"github.com/lcharvet/energiedw/internal/util"

	"golang.org/x/net/html"
)

const userAgent = "energiedw/0.2 (+https://github.com/lcharvet/energiedw)"

// FetchSources downloads every configured source into the landing
// directory. Files already present are skipped unless force is set; sources
// without any URL are skipped. Per-source failures never stop siblings.
func FetchSources(ctx context.Context, cfg config.Config, logger *slog.Logger, force bool, progress func(etl.UnitResult)) []etl.UnitResult {
	log := logger.With(slog.String("component", "downloader"))
	client := util.DefaultHTTPClient()
	results := make([]etl.UnitResult, 0, len(cfg.Sources))

	for _, src := range cfg.Sources {
		start := time.Now()
		res := fetchOne(ctx, cfg, src, client, force, log)
		res.Elapsed = time.Since(start)
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
	}
	return results
}

func fetchOne(ctx context.Context, cfg config.Config, src config.Source, client *http.Client, force bool, log *slog.Logger) etl.UnitResult {
	res := etl.UnitResult{Unit: src.Name}
	l := log.With(slog.String("source", src.Name))

	dest := filepath.Join(cfg.Paths.Landing, src.File)
	if !force {
		if _, err := os.Stat(dest); err == nil {
			l.Info("Landing file already present, skipping download.", slog.String("path", dest))
			res.Status = etl.StatusSkipped
			res.Message = "already downloaded"
			return res
		}
	}

	downloadURL := src.URL
	if downloadURL == "" && src.IndexURL != "" {
		discovered, err := discoverCSVLink(ctx, client, src.IndexURL)
		if err != nil {
			l.Error("Link discovery failed.", "error", err)
			res.Status = etl.StatusFailed
			res.Err = err
			return res
		}
		downloadURL = discovered
		l.Info("Discovered source link.", slog.String("url", downloadURL))
	}
	if downloadURL == "" {
		l.Warn("Source has no url or indexUrl, nothing to fetch.")
		res.Status = etl.StatusSkipped
		res.Message = "no url configured"
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		res.Status = etl.StatusFailed
		res.Err = fmt.Errorf("build request for %s: %w", downloadURL, err)
		return res
	}
	req.Header.Set("User-Agent", userAgent)

	body, err := util.FetchBytes(client, req)
	if err != nil {
		l.Error("Download failed.", "error", err)
		res.Status = etl.StatusFailed
		res.Err = err
		return res
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		res.Status = etl.StatusFailed
		res.Err = fmt.Errorf("create landing directory: %w", err)
		return res
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		res.Status = etl.StatusFailed
		res.Err = fmt.Errorf("write %s: %w", dest, err)
		return res
	}

	l.Info("Source downloaded.", slog.String("path", dest), slog.Int("bytes", len(body)))
	res.Status = etl.StatusSuccess
	res.Rows = int64(len(body))
	res.Message = "downloaded"
	return res
}

// discoverCSVLink fetches an index page, collects its .csv links, and
// returns the lexicographically latest one resolved against the index URL.
// Feed snapshots carry sortable date-stamped names, so latest-by-name is
// latest-by-date.
func discoverCSVLink(ctx context.Context, client *http.Client, indexURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return "", fmt.Errorf("build index request for %s: %w", indexURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch index %s: %w", indexURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status '%s' fetching index %s", resp.Status, indexURL)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse index %s: %w", indexURL, err)
	}

	links := util.ParseLinks(root, ".csv")
	if len(links) == 0 {
		return "", fmt.Errorf("no .csv links found at %s", indexURL)
	}
	sort.Strings(links)
	latest := links[len(links)-1]

	base, err := url.Parse(indexURL)
	if err != nil {
		return "", fmt.Errorf("parse index url %s: %w", indexURL, err)
	}
	ref, err := url.Parse(latest)
	if err != nil {
		return "", fmt.Errorf("parse link %s: %w", latest, err)
	}
	return base.ResolveReference(ref).String(), nil
}
