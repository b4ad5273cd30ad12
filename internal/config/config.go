// Package config loads the windpower configuration file (YAML or TOML),
// applies environment overrides and converts the analysis section into
// analysis.Options.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ja7ad/windpower/pkg/aero"
	"github.com/ja7ad/windpower/pkg/analysis"
	"github.com/ja7ad/windpower/pkg/profile"
	"github.com/ja7ad/windpower/pkg/turbine"
	"github.com/ja7ad/windpower/pkg/wind"
)

// Environment overrides.
const (
	EnvLogLevel        = "WINDPOWER_LOG_LEVEL"
	EnvDB              = "WINDPOWER_DB"
	EnvS3Bucket        = "WINDPOWER_S3_BUCKET"
	EnvAWSRegion       = "AWS_REGION"
	EnvAWSAccessKey    = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey    = "AWS_SECRET_ACCESS_KEY"
	EnvAWSSessionToken = "AWS_SESSION_TOKEN"
)

type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" toml:"analysis"`
	Turbine  turbine.Spec   `yaml:"turbine" toml:"turbine"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
}

// AnalysisConfig mirrors analysis.Options with file-friendly names and units
// in the keys. An empty efficiency_variant uses the turbine's variant.
type AnalysisConfig struct {
	ExtrapolationModel string        `yaml:"extrapolation_model" toml:"extrapolation_model"`
	Terrain            string        `yaml:"terrain" toml:"terrain"`
	TerrainOverride    *wind.Terrain `yaml:"terrain_override,omitempty" toml:"terrain_override,omitempty"`
	EfficiencyVariant  string        `yaml:"efficiency_variant,omitempty" toml:"efficiency_variant,omitempty"`
	SamplingIntervalS  float64       `yaml:"sampling_interval_s" toml:"sampling_interval_s"`
	TurbulenceSeed     *int64        `yaml:"turbulence_seed,omitempty" toml:"turbulence_seed,omitempty"`
	HubHeightM         float64       `yaml:"hub_height_m" toml:"hub_height_m"`
	AirDensity         float64       `yaml:"air_density" toml:"air_density"`
	PowerModel         string        `yaml:"power_model" toml:"power_model"`
	PitchDeg           float64       `yaml:"pitch_deg" toml:"pitch_deg"`
	TrackingSmoothing  float64       `yaml:"tracking_smoothing" toml:"tracking_smoothing"`
	SynthesisDurationS float64       `yaml:"synthesis_duration_s" toml:"synthesis_duration_s"`
	ProfileTopM        float64       `yaml:"profile_top_m" toml:"profile_top_m"`
	ProfileStepM       float64       `yaml:"profile_step_m" toml:"profile_step_m"`
	WeatherTurbulence  bool          `yaml:"weather_turbulence" toml:"weather_turbulence"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	Output string `yaml:"output" toml:"output"`
	MaxAge int    `yaml:"max_age" toml:"max_age"`
}

// OutputConfig selects the report written to stdout and optional files.
type OutputConfig struct {
	Format  string `yaml:"format" toml:"format"`
	CSV     string `yaml:"csv,omitempty" toml:"csv,omitempty"`
	JSON    string `yaml:"json,omitempty" toml:"json,omitempty"`
	HTML    string `yaml:"html,omitempty" toml:"html,omitempty"`
	Parquet string `yaml:"parquet,omitempty" toml:"parquet,omitempty"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `yaml:"sqlite" toml:"sqlite"`
	S3     S3Config     `yaml:"s3" toml:"s3"`
}

type SQLiteConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled" toml:"enabled"`
	Bucket          string `yaml:"bucket" toml:"bucket"`
	Prefix          string `yaml:"prefix" toml:"prefix"`
	Region          string `yaml:"region" toml:"region"`
	Endpoint        string `yaml:"endpoint" toml:"endpoint"`
	PathStyle       bool   `yaml:"path_style" toml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id" toml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" toml:"secret_access_key"`
	SessionToken    string `yaml:"session_token,omitempty" toml:"session_token,omitempty"`
}

// Default returns the built-in configuration: the reference 24 kW turbine,
// DefaultOptions for the analysis and run history under XDG_DATA_HOME.
func Default() Config {
	o := analysis.DefaultOptions()
	return Config{
		Analysis: AnalysisConfig{
			ExtrapolationModel: o.Extrapolation.String(),
			Terrain:            string(o.Terrain),
			SamplingIntervalS:  o.SamplingInterval,
			HubHeightM:         o.HubHeight,
			AirDensity:         o.AirDensity,
			PowerModel:         string(o.PowerModel),
			PitchDeg:           o.Pitch,
			TrackingSmoothing:  o.TrackingSmoothing,
			SynthesisDurationS: o.SynthesisDuration,
			ProfileTopM:        o.ProfileTop,
			ProfileStepM:       o.ProfileStep,
			WeatherTurbulence:  o.WeatherTurbulence,
		},
		Turbine: turbine.Reference(),
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stderr"},
		Output:  OutputConfig{Format: "table"},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{Path: DefaultDBPath()},
			S3:     S3Config{Prefix: "windpower"},
		},
	}
}

// Load reads path over the defaults. An empty path means DefaultConfigPath,
// which may be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err != nil && !explicit && os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := decode(path, data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".yaml", ".yml", "":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// Encode renders cfg in the format implied by path's extension.
func Encode(path string, cfg Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml", "":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	data, err := Encode(path, cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.Storage.SQLite.Path = strings.TrimSpace(v)
	}

	if c.Storage.S3.Enabled {
		if v := os.Getenv(EnvAWSAccessKey); v != "" {
			c.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv(EnvAWSSecretKey); v != "" {
			c.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv(EnvAWSSessionToken); v != "" {
			c.Storage.S3.SessionToken = strings.TrimSpace(v)
		}
		if v := os.Getenv(EnvAWSRegion); v != "" {
			c.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv(EnvS3Bucket); v != "" {
			c.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
	c.Storage.S3.Bucket = strings.TrimSpace(c.Storage.S3.Bucket)
}

// Validate reports the first invalid key.
func (c *Config) Validate() error {
	a := c.Analysis
	if _, err := profile.ParseModel(a.ExtrapolationModel); err != nil {
		return fmt.Errorf("analysis.extrapolation_model: %w", err)
	}
	if a.Terrain == "" {
		return fmt.Errorf("analysis.terrain is required")
	}
	if a.TerrainOverride != nil {
		if err := a.TerrainOverride.Validate(); err != nil {
			return fmt.Errorf("analysis.terrain_override: %w", err)
		}
	}
	if a.EfficiencyVariant != "" {
		if _, err := aero.ParseVariant(a.EfficiencyVariant); err != nil {
			return fmt.Errorf("analysis.efficiency_variant: %w", err)
		}
	}
	if a.SamplingIntervalS <= 0 {
		return fmt.Errorf("analysis.sampling_interval_s must be > 0")
	}
	if a.HubHeightM < 0 {
		return fmt.Errorf("analysis.hub_height_m must be >= 0")
	}
	if a.AirDensity <= 0 {
		return fmt.Errorf("analysis.air_density must be > 0")
	}
	if _, err := analysis.ParsePowerModel(a.PowerModel); err != nil {
		return fmt.Errorf("analysis.power_model: %w", err)
	}
	if a.TrackingSmoothing <= 0 || a.TrackingSmoothing > 1 {
		return fmt.Errorf("analysis.tracking_smoothing must be in (0,1]")
	}
	if a.SynthesisDurationS < 0 {
		return fmt.Errorf("analysis.synthesis_duration_s must be >= 0")
	}
	if a.ProfileTopM < 0 || a.ProfileStepM < 0 {
		return fmt.Errorf("analysis.profile_top_m and analysis.profile_step_m must be >= 0")
	}

	if err := c.Turbine.Validate(); err != nil {
		return fmt.Errorf("turbine: %w", err)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}
	if c.Logging.MaxAge < 0 {
		return fmt.Errorf("logging.max_age must be >= 0")
	}

	switch c.Output.Format {
	case "", "table", "csv", "json", "html":
	default:
		return fmt.Errorf("output.format must be one of table, csv, json, html")
	}

	if c.Storage.SQLite.Enabled && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path is required when sqlite is enabled")
	}
	if c.Storage.S3.Enabled {
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if (c.Storage.S3.AccessKeyID == "") != (c.Storage.S3.SecretAccessKey == "") {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key must be set together")
		}
	}
	return nil
}

// Options converts the analysis section.
func (c *Config) Options() (analysis.Options, error) {
	a := c.Analysis
	model, err := profile.ParseModel(a.ExtrapolationModel)
	if err != nil {
		return analysis.Options{}, err
	}
	pm, err := analysis.ParsePowerModel(a.PowerModel)
	if err != nil {
		return analysis.Options{}, err
	}

	o := analysis.Options{
		Extrapolation:     model,
		Terrain:           wind.ParseTerrainClass(a.Terrain),
		TerrainOverride:   a.TerrainOverride,
		SamplingInterval:  a.SamplingIntervalS,
		Seed:              a.TurbulenceSeed,
		HubHeight:         a.HubHeightM,
		AirDensity:        a.AirDensity,
		PowerModel:        pm,
		Pitch:             a.PitchDeg,
		TrackingSmoothing: a.TrackingSmoothing,
		SynthesisDuration: a.SynthesisDurationS,
		ProfileTop:        a.ProfileTopM,
		ProfileStep:       a.ProfileStepM,
		WeatherTurbulence: a.WeatherTurbulence,
	}
	if a.EfficiencyVariant != "" {
		v, err := aero.ParseVariant(a.EfficiencyVariant)
		if err != nil {
			return analysis.Options{}, err
		}
		o.Efficiency = &v
	}
	return o, o.Validate()
}
