// Package config loads the CLI configuration: built-in defaults, an optional
// JSON5 file validated against an embedded schema, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"github.com/jonathan/deal-poster/internal/fetch"
	"github.com/jonathan/deal-poster/internal/notify"
	"github.com/jonathan/deal-poster/internal/paapi"
	"github.com/jonathan/deal-poster/internal/post"
	"github.com/jonathan/deal-poster/internal/schemas"
)

// DefaultTimezone is the zone post timestamps are rendered in.
const DefaultTimezone = "Europe/Rome"

// Config represents the CLI configuration that can be loaded from a JSON5 file.
// All fields are optional; missing values come from Defaults.
type Config struct {
	OutputDir  string `json:"output_dir,omitempty"`
	Layout     string `json:"layout,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	DateOffset string `json:"date_offset,omitempty"`
	// SecretID names an AWS Secrets Manager secret holding vendor credentials.
	SecretID string `json:"secret_id,omitempty"`

	FrontMatter FrontMatter `json:"front_matter"`
	PAAPI       PAAPI       `json:"paapi"`
	Fetch       Fetch       `json:"fetch"`
	Telegram    Telegram    `json:"telegram"`
}

// FrontMatter selects between the site's front-matter variants.
type FrontMatter struct {
	URLKey   string `json:"url_key,omitempty"`
	PriceKey string `json:"price_key,omitempty"`
	DateKey  string `json:"date_key,omitempty"`
	// DecimalComma nil leaves the choice to the pipeline.
	DecimalComma *bool `json:"decimal_comma,omitempty"`
}

// PAAPI targets a vendor marketplace.
type PAAPI struct {
	Region      string `json:"region,omitempty"`
	Host        string `json:"host,omitempty"`
	Marketplace string `json:"marketplace,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
}

// Fetch tunes page retrieval.
type Fetch struct {
	Attempts       int    `json:"attempts,omitempty"`
	Timeout        string `json:"timeout,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	AcceptLanguage string `json:"accept_language,omitempty"`
}

// Telegram tunes the notifier; token and channel only come from env.
type Telegram struct {
	APIBase      string `json:"api_base,omitempty"`
	CaptionLimit int    `json:"caption_limit,omitempty"`
	TextLimit    int    `json:"text_limit,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	schema := post.DefaultSchema()
	vendor := paapi.DefaultOptions()
	return Config{
		OutputDir:  post.DefaultDir,
		Layout:     schema.Layout,
		Timezone:   DefaultTimezone,
		DateOffset: schema.DateOffset,
		FrontMatter: FrontMatter{
			URLKey:   schema.URLKey,
			PriceKey: schema.PriceKey,
			DateKey:  schema.DateKey,
		},
		PAAPI: PAAPI{
			Region:      vendor.Region,
			Host:        vendor.Host,
			Marketplace: vendor.Marketplace,
		},
		Fetch: Fetch{
			Attempts:       fetch.DefaultAttempts,
			Timeout:        fetch.DefaultTimeout.String(),
			UserAgent:      fetch.DefaultUserAgent,
			AcceptLanguage: fetch.DefaultAcceptLanguage,
		},
		Telegram: Telegram{
			APIBase:      notify.DefaultAPIBase,
			CaptionLimit: notify.DefaultCaptionLimit,
			TextLimit:    notify.DefaultTextLimit,
		},
	}
}

// Load returns Defaults when path is empty, else LoadConfig(path).
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Defaults()
		return &cfg, nil
	}
	return LoadConfig(path)
}

// LoadConfig reads a JSON5 config file, validates it against the embedded
// schema and merges it over Defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw any
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON5: %w", err)
	}
	if err := schemas.ValidateConfig(raw); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var file Config
	if err := json5.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg := Defaults()
	if err := mergo.Merge(&cfg, file, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Fetch.Timeout); err != nil {
		return &ValidationError{Field: "fetch.timeout", Message: err.Error()}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return &ValidationError{Field: "timezone", Message: err.Error()}
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, &ValidationError{Field: "timezone", Message: err.Error()}
	}
	return loc, nil
}

// PostSchema returns the front-matter schema. commaDefault applies when the
// file does not set decimal_comma.
func (c *Config) PostSchema(commaDefault bool) post.Schema {
	comma := commaDefault
	if c.FrontMatter.DecimalComma != nil {
		comma = *c.FrontMatter.DecimalComma
	}
	return post.Schema{
		Layout:       c.Layout,
		URLKey:       c.FrontMatter.URLKey,
		PriceKey:     c.FrontMatter.PriceKey,
		DateKey:      c.FrontMatter.DateKey,
		DecimalComma: comma,
		DateOffset:   c.DateOffset,
	}
}

// PAAPIOptions returns the vendor client options.
func (c *Config) PAAPIOptions() *paapi.Options {
	opts := paapi.DefaultOptions()
	opts.Region = c.PAAPI.Region
	opts.Host = c.PAAPI.Host
	opts.Marketplace = c.PAAPI.Marketplace
	opts.Endpoint = c.PAAPI.Endpoint
	return opts
}

// FetchOptions returns page fetch options; useBrowser enables the headless fallback.
func (c *Config) FetchOptions(useBrowser bool) *fetch.Options {
	opts := fetch.DefaultOptions()
	opts.Attempts = c.Fetch.Attempts
	if d, err := time.ParseDuration(c.Fetch.Timeout); err == nil {
		opts.Timeout = d
	}
	opts.UserAgent = c.Fetch.UserAgent
	opts.AcceptLanguage = c.Fetch.AcceptLanguage
	opts.UseBrowser = useBrowser
	return opts
}

// NotifyOptions combines file settings with the channel credentials from env.
func (c *Config) NotifyOptions(env TelegramEnv) notify.Options {
	return notify.Options{
		Token:        env.Token,
		ChatID:       env.ChannelID,
		APIBase:      c.Telegram.APIBase,
		CaptionLimit: c.Telegram.CaptionLimit,
		TextLimit:    c.Telegram.TextLimit,
	}
}
