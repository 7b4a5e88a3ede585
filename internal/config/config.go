package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/united-manufacturing-hub/umh-utils/env"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
)

type Config struct {
	HTTPAddr     string
	LoggingLevel string
	GelfAddr     string

	LimeURL      string
	LimeUser     string
	LimePassword string
	SurveyIDs    map[models.Category][]string

	CacheTTL            time.Duration
	RefreshInterval     time.Duration
	DownloadConcurrency int

	PersistSnapshots bool
	OxiDBHost        string
	OxiDBPort        int
	PoolSize         int
}

var surveyDefaults = map[models.Category]string{
	models.Processo: "917441,245785,117563",
	models.Vitima:   "345978",
	models.Reu:      "653817,284222,357387",
	models.Provas:   "389137",
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{SurveyIDs: make(map[models.Category][]string)}
	var err error

	str := func(key, fallback string) string {
		if err != nil {
			return fallback
		}
		var v string
		v, err = env.GetAsString(key, false, fallback)
		return v
	}
	num := func(key string, fallback int) int {
		if err != nil {
			return fallback
		}
		var v int
		v, err = env.GetAsInt(key, false, fallback)
		return v
	}

	cfg.HTTPAddr = str("CHECK_ADDR", ":8050")
	cfg.LoggingLevel = str("LOGGING_LEVEL", "PRODUCTION")
	cfg.GelfAddr = str("GELF_ADDR", "")
	cfg.LimeURL = str("LIME_API_URL", "")
	cfg.LimeUser = str("LIME_USERNAME", "")
	cfg.LimePassword = str("LIME_PASSWORD", "")
	for _, c := range models.Categories() {
		cfg.SurveyIDs[c] = SplitIDs(str("SURVEY_IDS_"+strings.ToUpper(string(c)), surveyDefaults[c]))
	}
	cfg.CacheTTL = time.Duration(num("CACHE_TTL_MINUTES", 30)) * time.Minute
	cfg.RefreshInterval = time.Duration(num("CACHE_REFRESH_SECONDS", 60)) * time.Second
	cfg.DownloadConcurrency = num("DOWNLOAD_CONCURRENCY", 3)
	cfg.OxiDBHost = str("OXIDB_HOST", "127.0.0.1")
	cfg.OxiDBPort = num("OXIDB_PORT", 4444)
	cfg.PoolSize = num("OXIDB_POOL_SIZE", 2)
	if err != nil {
		return nil, err
	}
	cfg.PersistSnapshots, err = env.GetAsBool("PERSIST_SNAPSHOTS", false, false)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_MINUTES must be positive")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("CACHE_REFRESH_SECONDS must be positive")
	}
	if c.DownloadConcurrency < 1 {
		return fmt.Errorf("DOWNLOAD_CONCURRENCY must be at least 1, got %d", c.DownloadConcurrency)
	}
	if c.PersistSnapshots && c.PoolSize < 1 {
		return fmt.Errorf("OXIDB_POOL_SIZE must be at least 1, got %d", c.PoolSize)
	}
	return nil
}

// Development reports whether debug logging is enabled.
func (c *Config) Development() bool {
	return strings.EqualFold(c.LoggingLevel, "DEVELOPMENT")
}

// OxiDBAddr is the host:port of the snapshot store.
func (c *Config) OxiDBAddr() string {
	return c.OxiDBHost + ":" + strconv.Itoa(c.OxiDBPort)
}

// SplitIDs parses a comma separated survey id list, dropping blanks.
func SplitIDs(s string) []string {
	var ids []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
