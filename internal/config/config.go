package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YelzhanWeb/bulkplan/internal/app/planner"
	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"

	DefaultTimezone = "Africa/Casablanca"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Planner  PlannerConfig  `yaml:"planner"`
	Source   SourceConfig   `yaml:"source"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Deepgram DeepgramConfig `yaml:"deepgram"`
}

type AppConfig struct {
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	Timezone       string `yaml:"timezone"`
	CommandLogSize int    `yaml:"command_log_size"`
}

type PlannerConfig struct {
	BaseStart     string                        `yaml:"base_start"`
	RateKgPerHour float64                       `yaml:"rate_kg_per_hour"`
	Ratios        map[string]map[string]float64 `yaml:"ratios"`
	// Lines binds an operation kind (MIX, TRF, FILL, FIN) to a machine id.
	Lines map[string]string `yaml:"lines"`
	// Repair is "resequence" or "repack".
	Repair string `yaml:"repair"`
}

type SourceConfig struct {
	Kind       string `yaml:"kind"`
	OrdersPath string `yaml:"orders_path"`
	LinesPath  string `yaml:"lines_path"`
	// RecordCommands persists the command log to postgres.
	RecordCommands bool `yaml:"record_commands"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type DeepgramConfig struct {
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Language string        `yaml:"language"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Load reads the YAML file at path, fills defaults and applies environment
// overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.App.Environment, "development")
	setDefault(&c.App.Timezone, DefaultTimezone)
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
		if c.App.Environment == "development" {
			c.App.LogLevel = "debug"
		}
	}
	if c.App.CommandLogSize <= 0 {
		c.App.CommandLogSize = 50
	}

	setDefault(&c.Planner.BaseStart, "2025-11-03T06:00:00")
	if c.Planner.RateKgPerHour == 0 {
		c.Planner.RateKgPerHour = 300
	}
	setDefault(&c.Planner.Repair, string(planner.RepairResequence))

	setDefault(&c.Source.Kind, SourceCSV)
	setDefault(&c.Source.OrdersPath, "data/orders.csv")
	setDefault(&c.Source.LinesPath, "data/lines.csv")

	setDefault(&c.Database.Host, "localhost")
	setDefaultInt(&c.Database.Port, 5432)
	setDefault(&c.Database.User, "bulkplan")
	setDefault(&c.Database.Database, "bulkplan")

	setDefault(&c.RabbitMQ.Host, "localhost")
	setDefaultInt(&c.RabbitMQ.Port, 5672)
	setDefault(&c.RabbitMQ.User, "guest")
	setDefault(&c.RabbitMQ.Password, "guest")

	setDefaultInt(&c.HTTP.Port, 3000)
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 30 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 90 * time.Second
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = 10 << 20
	}

	setDefault(&c.OpenAI.Model, "gpt-4o-mini")
	setDefault(&c.OpenAI.BaseURL, "https://api.openai.com/v1")
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = 30 * time.Second
	}

	setDefault(&c.Deepgram.Model, "nova-2")
	setDefault(&c.Deepgram.Language, "en")
	setDefault(&c.Deepgram.BaseURL, "https://api.deepgram.com/v1")
	if c.Deepgram.Timeout == 0 {
		c.Deepgram.Timeout = 45 * time.Second
	}
}

func (c *Config) applyEnv() error {
	envStr("OPENAI_API_KEY", &c.OpenAI.APIKey)
	envStr("DEEPGRAM_API_KEY", &c.Deepgram.APIKey)
	envStr("BULKPLAN_ENV", &c.App.Environment)
	envStr("BULKPLAN_LOG_LEVEL", &c.App.LogLevel)
	envStr("BULKPLAN_SOURCE", &c.Source.Kind)
	envStr("BULKPLAN_REPAIR", &c.Planner.Repair)
	envStr("BULKPLAN_DB_HOST", &c.Database.Host)
	envStr("BULKPLAN_DB_PASSWORD", &c.Database.Password)
	envStr("BULKPLAN_RABBITMQ_HOST", &c.RabbitMQ.Host)

	if v, ok := os.LookupEnv("BULKPLAN_HTTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BULKPLAN_HTTP_PORT %q: %w", v, err)
		}
		c.HTTP.Port = port
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceCSV, SourcePostgres:
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	if c.Source.RecordCommands && c.Source.Kind != SourcePostgres {
		return errors.New("record_commands requires the postgres source")
	}
	if c.Planner.RateKgPerHour < 0 {
		return fmt.Errorf("rate_kg_per_hour must be positive, got %v", c.Planner.RateKgPerHour)
	}
	if _, err := c.Planner.Start(); err != nil {
		return err
	}
	if _, err := planner.ParseRepairMode(c.Planner.Repair); err != nil {
		return fmt.Errorf("planner.repair: %w", err)
	}
	for kind := range c.Planner.Lines {
		if domain.OperationKind(strings.ToUpper(kind)).Sequence() == 0 {
			return fmt.Errorf("unknown operation kind %q in planner.lines", kind)
		}
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	return nil
}

var baseStartLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04"}

// Start parses BaseStart. Values without a zone are taken as UTC.
func (p PlannerConfig) Start() (time.Time, error) {
	for _, layout := range baseStartLayouts {
		if t, err := time.Parse(layout, p.BaseStart); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid planner.base_start %q", p.BaseStart)
}

// RepairMode parses Repair, falling back to resequencing.
func (p PlannerConfig) RepairMode() planner.RepairMode {
	mode, err := planner.ParseRepairMode(p.Repair)
	if err != nil {
		return planner.RepairResequence
	}
	return mode
}

// RatioTable returns the default ratios merged with the configured overrides.
func (p PlannerConfig) RatioTable() domain.RatioTable {
	override := make(domain.RatioTable, len(p.Ratios))
	for product, stages := range p.Ratios {
		row := make(domain.StageRatios, len(stages))
		for kind, ratio := range stages {
			row[domain.OperationKind(strings.ToUpper(kind))] = ratio
		}
		override[product] = row
	}
	return domain.DefaultRatios().Merge(override)
}

// LineMap returns the default plant layout with configured machines applied.
func (p PlannerConfig) LineMap() domain.LineMap {
	lines := domain.DefaultLineMap()
	for kind, machine := range p.Lines {
		if machine != "" {
			lines[domain.OperationKind(strings.ToUpper(kind))] = machine
		}
	}
	return lines
}

// Location loads the display timezone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setDefaultInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

func envStr(key string, field *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*field = v
	}
}
