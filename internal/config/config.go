// Package config handles loading and validation of the energiedw.yaml
// pipeline configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the YAML omits a field.
const (
	DefaultCountry       = "FR"
	DefaultSchema        = "gold"
	DefaultWarehousePath = "./warehouse/energiedw.duckdb"
	DefaultCalendarStart = "2015-01-01"
	DefaultCalendarEnd   = "2026-12-31"
)

// Source declares one raw CSV feed.
type Source struct {
	Name      string `yaml:"name"`               // source key, also the bronze table name
	File      string `yaml:"file"`               // file name inside the landing directory
	Delimiter string `yaml:"delimiter"`          // field separator, default ","
	URL       string `yaml:"url,omitempty"`      // direct download URL (optional)
	IndexURL  string `yaml:"indexUrl,omitempty"` // feed index page to discover .csv links (optional)
}

// Paths holds the stage root directories.
type Paths struct {
	Landing string `yaml:"landing"`
	Bronze  string `yaml:"bronze"`
	Silver  string `yaml:"silver"`
	DQ      string `yaml:"dq"`
	Gold    string `yaml:"gold"`
}

// Warehouse locates the destination DuckDB database and schema namespace.
type Warehouse struct {
	Path   string `yaml:"path"`
	Schema string `yaml:"schema"`
}

// Calendar bounds the date dimension.
type Calendar struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Config is the full pipeline configuration, passed by value into every
// stage.
type Config struct {
	Country   string    `yaml:"country"`
	Sources   []Source  `yaml:"sources"`
	Paths     Paths     `yaml:"paths"`
	Warehouse Warehouse `yaml:"warehouse"`
	Calendar  Calendar  `yaml:"calendar"`
}

// Load reads, parses, defaults, and validates the configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Country == "" {
		cfg.Country = DefaultCountry
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Delimiter == "" {
			cfg.Sources[i].Delimiter = ","
		}
	}
	if cfg.Paths.Landing == "" {
		cfg.Paths.Landing = "./data/landing"
	}
	if cfg.Paths.Bronze == "" {
		cfg.Paths.Bronze = "./data/bronze"
	}
	if cfg.Paths.Silver == "" {
		cfg.Paths.Silver = "./data/silver"
	}
	if cfg.Paths.DQ == "" {
		cfg.Paths.DQ = "./data/dq"
	}
	if cfg.Paths.Gold == "" {
		cfg.Paths.Gold = "./data/gold"
	}
	if cfg.Warehouse.Path == "" {
		cfg.Warehouse.Path = DefaultWarehousePath
	}
	if cfg.Warehouse.Schema == "" {
		cfg.Warehouse.Schema = DefaultSchema
	}
	if cfg.Calendar.Start == "" {
		cfg.Calendar.Start = DefaultCalendarStart
	}
	if cfg.Calendar.End == "" {
		cfg.Calendar.End = DefaultCalendarEnd
	}
}

func validate(cfg Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seen := make(map[string]bool, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source name is required")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
		if s.File == "" {
			return fmt.Errorf("source %q: file is required", s.Name)
		}
		if len([]rune(s.Delimiter)) != 1 {
			return fmt.Errorf("source %q: delimiter must be a single character, got %q", s.Name, s.Delimiter)
		}
	}
	if cfg.Warehouse.Schema == "" {
		return fmt.Errorf("warehouse schema is required")
	}
	start, end, err := cfg.CalendarRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("calendar end %s precedes start %s", cfg.Calendar.End, cfg.Calendar.Start)
	}
	return nil
}

// CalendarRange parses the configured calendar bounds.
func (c Config) CalendarRange() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", c.Calendar.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("calendar start %q: %w", c.Calendar.Start, err)
	}
	end, err = time.Parse("2006-01-02", c.Calendar.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("calendar end %q: %w", c.Calendar.End, err)
	}
	return start, end, nil
}
