package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration required to initialise a crawl.
type Config struct {
	Crawl   CrawlConfig   `yaml:"crawl"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Sink    SinkConfig    `yaml:"sink"`
	Logging LoggingConfig `yaml:"logging"`
}

// CrawlConfig controls the traversal engine and its supporting structures.
type CrawlConfig struct {
	EntryPoint string `yaml:"entry_point"`
	// CacheMaskBits sizes the visited-fingerprint table at 2^bits slots.
	CacheMaskBits int `yaml:"cache_mask_bits"`
	// HistoryDepth is how many positions the crawler can backtrack through
	// before it has to jump back to the entry point.
	HistoryDepth int `yaml:"history_depth"`
	// FoundTTL is how long a discovered URI is remembered before the
	// crawler is allowed to re-emit it as new.
	FoundTTL Duration `yaml:"found_ttl"`
	// StepDelay throttles remote load between crawl steps.
	StepDelay Duration `yaml:"step_delay"`
	// FilterKeywords extends the built-in relation-name blocklist
	// (edit/create/self/curies/websocket).
	FilterKeywords []string `yaml:"filter_keywords"`
}

// FetchConfig controls the HTTP collaborator.
type FetchConfig struct {
	UserAgent      string            `yaml:"user_agent"`
	Headers        map[string]string `yaml:"headers"`
	RequestTimeout Duration          `yaml:"request_timeout"`
	MaxBodyBytes   int64             `yaml:"max_body_bytes"`
	ProxyURL       string            `yaml:"proxy_url"`
}

// SinkConfig selects where discovered URIs are delivered.
type SinkConfig struct {
	// Mode is one of "log", "queue", "zmq", "postgres".
	Mode        string `yaml:"mode"`
	QueueSize   int    `yaml:"queue_size"`
	ZMQEndpoint string `yaml:"zmq_endpoint"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Crawl: CrawlConfig{
			CacheMaskBits: 8,
			HistoryDepth:  5,
			FoundTTL:      DurationFrom(12 * time.Hour),
			StepDelay:     DurationFrom(1 * time.Second),
		},
		Fetch: FetchConfig{
			UserAgent:      "chain-crawler/1.0",
			Headers:        map[string]string{},
			RequestTimeout: DurationFrom(10 * time.Second),
			MaxBodyBytes:   2 * 1024 * 1024,
		},
		Sink: SinkConfig{
			Mode:        "log",
			QueueSize:   256,
			ZMQEndpoint: "tcp://127.0.0.1:5557",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the crawler configuration.
func (c Config) Validate() error {
	if c.Crawl.EntryPoint == "" {
		return errors.New("crawl.entry_point must be set")
	}
	if u, err := url.Parse(c.Crawl.EntryPoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("crawl.entry_point %q is not an absolute URL", c.Crawl.EntryPoint)
	}
	if c.Crawl.CacheMaskBits <= 0 || c.Crawl.CacheMaskBits > 32 {
		return fmt.Errorf("crawl.cache_mask_bits must be in 1..32 (got %d)", c.Crawl.CacheMaskBits)
	}
	if c.Crawl.HistoryDepth <= 0 {
		return fmt.Errorf("crawl.history_depth must be > 0 (got %d)", c.Crawl.HistoryDepth)
	}
	if c.Crawl.FoundTTL.Duration <= 0 {
		return errors.New("crawl.found_ttl must be > 0")
	}
	if c.Crawl.StepDelay.Duration < 0 {
		return errors.New("crawl.step_delay must be >= 0")
	}
	if strings.TrimSpace(c.Fetch.UserAgent) == "" {
		return errors.New("fetch.user_agent must be set")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes)
	}
	switch c.Sink.Mode {
	case "log":
	case "queue":
		if c.Sink.QueueSize <= 0 {
			return fmt.Errorf("sink.queue_size must be > 0 (got %d)", c.Sink.QueueSize)
		}
	case "zmq":
		if strings.TrimSpace(c.Sink.ZMQEndpoint) == "" {
			return errors.New("sink.zmq_endpoint must be set when sink.mode is zmq")
		}
	case "postgres":
		if strings.TrimSpace(c.Sink.PostgresDSN) == "" {
			return errors.New("sink.postgres_dsn must be set when sink.mode is postgres")
		}
	default:
		return fmt.Errorf("unsupported sink.mode %q", c.Sink.Mode)
	}
	return nil
}

func (c *Config) normalise() {
	c.Crawl.EntryPoint = strings.TrimSpace(c.Crawl.EntryPoint)
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	c.Sink.Mode = strings.ToLower(strings.TrimSpace(c.Sink.Mode))
	c.Sink.ZMQEndpoint = strings.TrimSpace(c.Sink.ZMQEndpoint)
	if len(c.Crawl.FilterKeywords) > 0 {
		c.Crawl.FilterKeywords = dedupeLower(c.Crawl.FilterKeywords)
	}
}

func dedupeLower(values []string) []string {
	unique := make(map[string]struct{}, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := unique[v]; ok {
			continue
		}
		unique[v] = struct{}{}
		cleaned = append(cleaned, v)
	}
	sort.Strings(cleaned)
	return cleaned
}
