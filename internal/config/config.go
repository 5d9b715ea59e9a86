package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/quakeph/quakemap/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "quakemap.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. QUAKEMAP_STORAGE_TYPE.
const EnvPrefix = "QUAKEMAP"

// FileConfig holds settings for the file storage backend.
type FileConfig struct {
	Dir      string `json:"dir" mapstructure:"dir"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// SQLiteConfig holds settings for the sqlite storage backend. An empty Path
// keeps the database in memory and relies on periodic dumps.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// StorageConfig selects and configures the persisted annotation store.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Key    string       `json:"key" mapstructure:"key"`
	File   FileConfig   `json:"file" mapstructure:"file"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DSN formats the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// FeedConfig holds the earthquake and fault-line feed settings.
type FeedConfig struct {
	QuakesURL        string
	FaultsURL        string
	RefreshInterval  time.Duration
	Timeout          time.Duration // zero means no timeout
	ManualRefreshGap time.Duration
}

// StyleConfig holds the initial drawing style controls.
type StyleConfig struct {
	Style          core.Style
	Text           core.TextStyle
	HighlightColor string
}

// DrawConfig holds draw session policy.
type DrawConfig struct {
	RejectDegenerate bool
	HitTolerance     float64 // meters
}

// InfluxConfig holds InfluxDB connection settings.
type InfluxConfig struct {
	Enabled  bool
	Protocol string
	Host     string
	Port     string
	Token    string
	Org      string
	Bucket   string
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./quakemaplogs")

	viper.SetDefault("storage.type", "file")
	viper.SetDefault("storage.key", "quakeph_drawings")
	viper.SetDefault("storage.file.dir", "./data")
	viper.SetDefault("storage.file.compress", false)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")
	viper.SetDefault("storage.sqlite.dumpPath", "./data/quakemap.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "quakemap")

	viper.SetDefault("feed.quakesUrl", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/2.5_day.geojson")
	viper.SetDefault("feed.faultsUrl", "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json")
	viper.SetDefault("feed.refreshInterval", "5m")
	viper.SetDefault("feed.timeout", "0s")
	viper.SetDefault("feed.manualRefreshGap", "5s")

	viper.SetDefault("style.color", core.DefaultStyle.Color)
	viper.SetDefault("style.weight", core.DefaultStyle.Weight)
	viper.SetDefault("style.fillOpacity", core.DefaultStyle.FillOpacity)
	viper.SetDefault("style.fontSize", core.DefaultTextStyle.FontSize)
	viper.SetDefault("style.textColor", core.DefaultTextStyle.TextColor)
	viper.SetDefault("style.backgroundColor", core.DefaultTextStyle.BackgroundColor)
	viper.SetDefault("style.highlightColor", core.HighlightColor)

	viper.SetDefault("draw.rejectDegenerate", false)
	viper.SetDefault("draw.hitTolerance", 50.0)

	viper.SetDefault("export.dir", ".")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "quakemap")
	viper.SetDefault("influx.bucket", "quakemap-metrics")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "quakemap")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. A .env file in the
// same directory is loaded into the environment first, if present.
// A missing config file is reported but all defaults are still in effect;
// use IsNotFound to tell that case apart.
func Load(configDir string) error {
	setDefaults()

	// .env is optional; existing environment variables win
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// IsNotFound reports whether Load failed only because the config file is absent.
func IsNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Key:  viper.GetString("storage.key"),
		File: FileConfig{
			Dir:      viper.GetString("storage.file.dir"),
			Compress: viper.GetBool("storage.file.compress"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
	}
}

// GetDBConfig returns the postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetFeedConfig returns the feed settings.
func GetFeedConfig() FeedConfig {
	return FeedConfig{
		QuakesURL:        viper.GetString("feed.quakesUrl"),
		FaultsURL:        viper.GetString("feed.faultsUrl"),
		RefreshInterval:  viper.GetDuration("feed.refreshInterval"),
		Timeout:          viper.GetDuration("feed.timeout"),
		ManualRefreshGap: viper.GetDuration("feed.manualRefreshGap"),
	}
}

// GetStyleConfig returns the initial style controls.
func GetStyleConfig() StyleConfig {
	return StyleConfig{
		Style: core.Style{
			Color:       viper.GetString("style.color"),
			Weight:      viper.GetInt("style.weight"),
			FillOpacity: viper.GetFloat64("style.fillOpacity"),
		},
		Text: core.TextStyle{
			FontSize:        viper.GetInt("style.fontSize"),
			TextColor:       viper.GetString("style.textColor"),
			BackgroundColor: viper.GetString("style.backgroundColor"),
		},
		HighlightColor: viper.GetString("style.highlightColor"),
	}
}

// GetDrawConfig returns the draw session policy.
func GetDrawConfig() DrawConfig {
	return DrawConfig{
		RejectDegenerate: viper.GetBool("draw.rejectDegenerate"),
		HitTolerance:     viper.GetFloat64("draw.hitTolerance"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
