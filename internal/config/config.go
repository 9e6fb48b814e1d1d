package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"patronite-snapshot/internal/configutil"
	configlibsql "patronite-snapshot/internal/configutil/libsql"
	"patronite-snapshot/internal/restyutil"
	"patronite-snapshot/internal/scrapers/patronite"
	"patronite-snapshot/internal/telemetry"
)

const (
	DefaultName           = "patronite.json5"
	DefaultDatabaseFile   = "patronite.db"
	DefaultTimeoutSeconds = 30
	DefaultUserAgent      = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// AuthTokenEnv overrides database.auth_token so the token can stay out of config files.
	AuthTokenEnv = "PATRONITE_DB_AUTH_TOKEN"
)

type Site struct {
	Origin           string `json:"origin"`
	CategoryIndex    string `json:"category_index"`
	NextLabel        string `json:"next_label"`
	MaxCategoryID    uint64 `json:"max_category_id"`
	MaxPages         int    `json:"max_pages"`
	UserAgent        string `json:"user_agent"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

type Config struct {
	Site      Site                `json:"site"`
	Database  configlibsql.Struct `json:"database"`
	Workers   int                 `json:"workers"`
	Telemetry telemetry.Config    `json:"telemetry"`
}

// Load reads `name` (and its .local override), fills in defaults and validates
// the result. A config file is optional, without one every default applies.
func Load(name string) (Config, error) {
	config, err := configutil.ReadConfig[Config](name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	if token := os.Getenv(AuthTokenEnv); token != "" {
		config.Database.AuthToken = token
	}
	config.ApplyDefaults()

	err = config.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", name, err)
	}
	return config, nil
}

func (c *Config) ApplyDefaults() {
	defaults := patronite.DefaultOptions()
	if c.Site.Origin == "" {
		c.Site.Origin = defaults.Origin
	}
	if c.Site.CategoryIndex == "" {
		c.Site.CategoryIndex = defaults.CategoryIndex
	}
	if c.Site.NextLabel == "" {
		c.Site.NextLabel = defaults.NextLabel
	}
	if c.Site.MaxCategoryID == 0 {
		c.Site.MaxCategoryID = defaults.MaxCategoryID
	}
	if c.Site.UserAgent == "" {
		c.Site.UserAgent = DefaultUserAgent
	}
	if c.Site.TimeoutSeconds == 0 {
		c.Site.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Database.File == "" && c.Database.Url == "" {
		c.Database.File = DefaultDatabaseFile
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
}

// Validate returns every problem of the config joined together.
func (c Config) Validate() error {
	var errlist []error

	origin, err := url.Parse(c.Site.Origin)
	if err != nil {
		errlist = append(errlist, fmt.Errorf("site.origin: %w", err))
	} else if origin.Scheme != "http" && origin.Scheme != "https" {
		errlist = append(errlist, fmt.Errorf("site.origin: %q is not an http(s) url", c.Site.Origin))
	}
	if !strings.HasPrefix(c.Site.CategoryIndex, "/") {
		errlist = append(errlist, fmt.Errorf("site.category_index: %q must be site relative", c.Site.CategoryIndex))
	}
	if strings.TrimSpace(c.Site.NextLabel) == "" {
		errlist = append(errlist, fmt.Errorf("site.next_label: must not be blank"))
	}
	if c.Site.MaxPages < 0 {
		errlist = append(errlist, fmt.Errorf("site.max_pages: %d is negative", c.Site.MaxPages))
	}
	if c.Site.TimeoutSeconds < 0 {
		errlist = append(errlist, fmt.Errorf("site.timeout_seconds: %d is negative", c.Site.TimeoutSeconds))
	}
	if c.Workers < 1 {
		errlist = append(errlist, fmt.Errorf("workers: %d must be at least 1", c.Workers))
	}
	if c.Database.Url != "" {
		dbUrl, err := url.Parse(c.Database.Url)
		if err != nil {
			errlist = append(errlist, fmt.Errorf("database.url: %w", err))
		} else if dbUrl.Scheme == "" {
			errlist = append(errlist, fmt.Errorf("database.url: %q has no scheme", c.Database.Url))
		}
	}

	return errors.Join(errlist...)
}

func (c Config) ScraperOptions() patronite.Options {
	return patronite.Options{
		Origin:        c.Site.Origin,
		CategoryIndex: c.Site.CategoryIndex,
		NextLabel:     c.Site.NextLabel,
		MaxCategoryID: c.Site.MaxCategoryID,
		MaxPages:      c.Site.MaxPages,
	}
}

// ClientOptions returns the options of the live site client, dump may be nil.
func (c Config) ClientOptions(dump restyutil.InstrumentOutput) patronite.ClientOptions {
	return patronite.ClientOptions{
		Origin:           c.Site.Origin,
		UserAgent:        c.Site.UserAgent,
		Timeout:          time.Duration(c.Site.TimeoutSeconds) * time.Second,
		CloudflareBypass: c.Site.CloudflareBypass,
		Dump:             dump,
	}
}
