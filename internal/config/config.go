package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a binhelper run.
type Config struct {
	InventoryPath  string
	InventorySheet string
	MasterPath     string
	MasterSheet    string
	DataDir        string
	ConfigPath     string
	DSN            string
	ServerAddr     string
	CORSOrigins    []string
	LogFormat      string // "text" or "json"
	LogLevel       string
	BulkRules      map[string]int
	Loader         LoaderConfig
	TrendInterval  time.Duration
}

// LoaderConfig is the retry policy of the resilient workbook loader.
type LoaderConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Backoff     string        `yaml:"backoff"` // "exponential" or "linear"
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	InventoryPath  string         `yaml:"inventory_path,omitempty"`
	InventorySheet string         `yaml:"inventory_sheet,omitempty"`
	MasterPath     string         `yaml:"master_path,omitempty"`
	MasterSheet    string         `yaml:"master_sheet,omitempty"`
	DataDir        string         `yaml:"data_dir,omitempty"`
	ServerAddr     string         `yaml:"server_addr,omitempty"`
	CORSOrigins    []string       `yaml:"cors_origins,omitempty"`
	BulkRules      map[string]int `yaml:"bulk_rules,omitempty"`
	Loader         LoaderConfig   `yaml:"loader,omitempty"`
	TrendInterval  time.Duration  `yaml:"trend_interval,omitempty"`
}

// LoadFromFile reads a YAML config file and fills every field still unset
// on Config. Values given on the command line therefore win over the file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	c.ConfigPath = path

	setIfEmpty(&c.InventoryPath, yc.InventoryPath)
	setIfEmpty(&c.InventorySheet, yc.InventorySheet)
	setIfEmpty(&c.MasterPath, yc.MasterPath)
	setIfEmpty(&c.MasterSheet, yc.MasterSheet)
	setIfEmpty(&c.DataDir, yc.DataDir)
	setIfEmpty(&c.ServerAddr, yc.ServerAddr)
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = yc.CORSOrigins
	}
	if len(c.BulkRules) == 0 && len(yc.BulkRules) > 0 {
		c.BulkRules = yc.BulkRules
	}
	if c.Loader == (LoaderConfig{}) {
		c.Loader = yc.Loader
	}
	if c.TrendInterval == 0 {
		c.TrendInterval = yc.TrendInterval
	}
	return c.validateBulkRules()
}

// SaveToFile writes the file-backed part of the config as YAML.
func (c *Config) SaveToFile(path string) error {
	yc := yamlConfig{
		InventoryPath:  c.InventoryPath,
		InventorySheet: c.InventorySheet,
		MasterPath:     c.MasterPath,
		MasterSheet:    c.MasterSheet,
		DataDir:        c.DataDir,
		ServerAddr:     c.ServerAddr,
		CORSOrigins:    c.CORSOrigins,
		BulkRules:      c.BulkRules,
		Loader:         c.Loader,
		TrendInterval:  c.TrendInterval,
	}
	data, err := yaml.Marshal(&yc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func setIfEmpty(dst *string, v string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = strings.TrimSpace(v)
	}
}

// validateBulkRules upper-cases zone keys and checks every rule is a single
// letter with a positive capacity.
func (c *Config) validateBulkRules() error {
	if len(c.BulkRules) == 0 {
		return nil
	}
	rules := make(map[string]int, len(c.BulkRules))
	for k, v := range c.BulkRules {
		zone := strings.ToUpper(strings.TrimSpace(k))
		if len(zone) != 1 || zone[0] < 'A' || zone[0] > 'Z' {
			return fmt.Errorf("bulk zone %q must be a single letter", k)
		}
		if v < 1 {
			return fmt.Errorf("bulk zone %s capacity must be at least 1, got %d", zone, v)
		}
		rules[zone] = v
	}
	c.BulkRules = rules
	return nil
}

// SetBulkRule updates one zone's capacity.
func (c *Config) SetBulkRule(zone string, capacity int) error {
	if c.BulkRules == nil {
		c.BulkRules = make(map[string]int)
	}
	c.BulkRules[strings.ToUpper(strings.TrimSpace(zone))] = capacity
	return c.validateBulkRules()
}

// BulkZones returns the configured zones in alphabetical order.
func (c *Config) BulkZones() []string {
	zones := make([]string, 0, len(c.BulkRules))
	for z := range c.BulkRules {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.InventoryPath == "" {
		return fmt.Errorf("--inventory is required")
	}
	if c.MasterPath == "" {
		return fmt.Errorf("--master is required")
	}
	if c.Loader.MaxAttempts < 1 {
		return fmt.Errorf("loader max_attempts must be at least 1, got %d", c.Loader.MaxAttempts)
	}
	if c.Loader.BaseDelay < 0 || c.Loader.MaxDelay < 0 {
		return fmt.Errorf("loader delays must not be negative")
	}
	switch c.Loader.Backoff {
	case BackoffExponential, BackoffLinear:
	default:
		return fmt.Errorf("loader backoff must be %q or %q, got %q", BackoffExponential, BackoffLinear, c.Loader.Backoff)
	}
	if err := c.validateBulkRules(); err != nil {
		return err
	}
	return nil
}

// ValidateWithDSN checks both the source files and the DSN field.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or BINHELPER_DB_URL is required")
	}
	return nil
}

// StagingDir is where the stager keeps its per-instance slots.
func (c *Config) StagingDir() string {
	return filepath.Join(c.DataDir, "staging")
}

// HistoryPath is the SQLite database holding trends and the fix log.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}
