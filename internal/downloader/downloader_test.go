package downloader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/etl"
	"github.com/lcharvet/energiedw/internal/util"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchSourcesDirectURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("utc_timestamp,load_mw\n2024-06-01T00:00:00Z,45000\n"))
	}))
	defer server.Close()

	landing := filepath.Join(t.TempDir(), "landing")
	cfg := config.Config{
		Sources: []config.Source{{Name: "france_time_series", File: "ts.csv", URL: server.URL}},
		Paths:   config.Paths{Landing: landing},
	}

	results := FetchSources(context.Background(), cfg, discard(), false, nil)
	require.Len(t, results, 1)
	assert.Equal(t, etl.StatusSuccess, results[0].Status)
	assert.FileExists(t, filepath.Join(landing, "ts.csv"))
}

func TestFetchSourcesSkipsExistingFile(t *testing.T) {
	landing := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(landing, "ts.csv"), []byte("x"), 0o644))

	cfg := config.Config{
		Sources: []config.Source{{Name: "france_time_series", File: "ts.csv", URL: "http://unused.invalid"}},
		Paths:   config.Paths{Landing: landing},
	}

	results := FetchSources(context.Background(), cfg, discard(), false, nil)
	require.Len(t, results, 1)
	assert.Equal(t, etl.StatusSkipped, results[0].Status)
	assert.Equal(t, "already downloaded", results[0].Message)
}

func TestFetchSourcesNoURLConfigured(t *testing.T) {
	cfg := config.Config{
		Sources: []config.Source{{Name: "eurostat_electricity_france", File: "eurostat.csv"}},
		Paths:   config.Paths{Landing: t.TempDir()},
	}

	results := FetchSources(context.Background(), cfg, discard(), false, nil)
	require.Len(t, results, 1)
	assert.Equal(t, etl.StatusSkipped, results[0].Status)
	assert.Equal(t, "no url configured", results[0].Message)
}

func TestDiscoverCSVLinkPicksLatest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/opsd/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/">home</a>
			<a href="renewable_power_plants_FR_2019-04-05.csv">old</a>
			<a href="renewable_power_plants_FR_2020-08-25.csv">new</a>
		</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	link, err := discoverCSVLink(context.Background(), util.DefaultHTTPClient(), server.URL+"/opsd/")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/opsd/renewable_power_plants_FR_2020-08-25.csv", link)
}

func TestDiscoverCSVLinkNoLinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>nothing here</body></html>`))
	}))
	defer server.Close()

	_, err := discoverCSVLink(context.Background(), util.DefaultHTTPClient(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .csv links")
}
