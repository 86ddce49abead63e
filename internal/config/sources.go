package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrSourceMissingName = errors.New("source name is required")
	ErrSourceMissingURL  = errors.New("source url is required")
	ErrSourceBadScheme   = errors.New("source url scheme must be http or https")
	ErrSourceBadType     = errors.New("source type must be one of: rss, json, html")
	ErrSourceBadInterval = errors.New("source interval must be a positive duration")
	ErrSourceNoSelector  = errors.New("html source requires selectors.item and selectors.title")
	ErrDuplicateSource   = errors.New("source names must be unique")
)

// SourceConfig describes one ingestion source in the sources file.
type SourceConfig struct {
	Name         string          `yaml:"name"`
	Type         string          `yaml:"type"`
	URL          string          `yaml:"url"`
	Interval     string          `yaml:"interval"`
	Enabled      bool            `yaml:"enabled"`
	CategoryHint string          `yaml:"category_hint"`
	Assets       []string        `yaml:"assets"`
	Selectors    SelectorsConfig `yaml:"selectors"`
}

// SelectorsConfig holds CSS selectors for html sources.
type SelectorsConfig struct {
	Item    string `yaml:"item"`
	Title   string `yaml:"title"`
	Summary string `yaml:"summary"`
	Link    string `yaml:"link"`
	Time    string `yaml:"time"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// PollInterval parses Interval, falling back to def when unset. A
// non-positive def is returned as is for the pipeline to replace.
func (s SourceConfig) PollInterval(def time.Duration) time.Duration {
	if s.Interval == "" {
		return def
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// LoadSources reads the YAML sources file and returns the enabled entries.
// A missing file yields no sources and no error.
func LoadSources(path string) ([]SourceConfig, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sources %s: %w", path, err)
	}
	return ParseSources(raw)
}

func ParseSources(raw []byte) ([]SourceConfig, error) {
	var file sourcesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing sources: %w", err)
	}
	seen := map[string]bool{}
	var out []SourceConfig
	for i, s := range file.Sources {
		if err := validateSource(s); err != nil {
			return nil, fmt.Errorf("source %d (%q): %w", i, s.Name, err)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("source %q: %w", s.Name, ErrDuplicateSource)
		}
		seen[s.Name] = true
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func validateSource(s SourceConfig) error {
	if s.Name == "" {
		return ErrSourceMissingName
	}
	if s.URL == "" {
		return ErrSourceMissingURL
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrSourceBadScheme
	}
	switch s.Type {
	case "rss", "json":
	case "html":
		if s.Selectors.Item == "" || s.Selectors.Title == "" {
			return ErrSourceNoSelector
		}
	default:
		return ErrSourceBadType
	}
	if s.Interval != "" {
		d, err := time.ParseDuration(s.Interval)
		if err != nil || d <= 0 {
			return ErrSourceBadInterval
		}
	}
	return nil
}
