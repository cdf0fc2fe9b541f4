// Package config loads extraction settings from .env, an optional YAML config
// file, I18NEXTRACT_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variable of every key.
const EnvPrefix = "I18NEXTRACT"

var (
	ErrMissingPath       = errors.New("you need to provide the module search path")
	ErrPathNotFound      = errors.New("the specified path does not exist")
	ErrSiteZCMLNotFound  = errors.New("the specified location for site.zcml does not exist")
	ErrHeaderNotFound    = errors.New("the specified header template does not exist")
	ErrMissingDomain     = errors.New("domain must not be empty")
	ErrMissingMarker     = errors.New("marker must not be empty")
	ErrInvalidWorkers    = errors.New("workers must be at least 1")
	ErrMissingDatabase   = errors.New("recording runs needs a database URL")
	ErrMissingGraphStore = errors.New("exporting the graph needs a Neo4j URI")
)

type Config struct {
	Path                 string   `mapstructure:"path"`
	SiteZCML             string   `mapstructure:"site_zcml"`
	Domain               string   `mapstructure:"domain"`
	IncludeDefaultDomain bool     `mapstructure:"include_default_domain"`
	OutputDir            string   `mapstructure:"output_dir"`
	Exclude              []string `mapstructure:"exclude"`
	PythonOnly           bool     `mapstructure:"python_only"`
	HeaderTemplate       string   `mapstructure:"header_template"`
	Marker               string   `mapstructure:"marker"`
	Keyword              string   `mapstructure:"keyword"`
	VerifyDomain         bool     `mapstructure:"verify_domain"`
	Charset              string   `mapstructure:"charset"`
	PassNonASCII         bool     `mapstructure:"pass_non_ascii"`
	StrictDefaults       bool     `mapstructure:"strict_defaults"`
	Workers              int      `mapstructure:"workers"`
	TemplatePattern      string   `mapstructure:"template_pattern"`
	YAMLPattern          string   `mapstructure:"yaml_pattern"`
	Record               bool     `mapstructure:"record"`
	Graph                bool     `mapstructure:"graph"`
	Watch                bool     `mapstructure:"watch"`
	DatabaseURL          string   `mapstructure:"database_url"`
	Neo4jURI             string   `mapstructure:"neo4j_uri"`
	Neo4jUser            string   `mapstructure:"neo4j_user"`
	Neo4jPassword        string   `mapstructure:"neo4j_password"`
	LogLevel             string   `mapstructure:"log_level"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("path", "")
	v.SetDefault("site_zcml", "")
	v.SetDefault("domain", "zope")
	v.SetDefault("include_default_domain", true)
	v.SetDefault("output_dir", "")
	v.SetDefault("exclude", []string{})
	v.SetDefault("python_only", false)
	v.SetDefault("header_template", "")
	v.SetDefault("marker", "_")
	v.SetDefault("keyword", "mapping")
	v.SetDefault("verify_domain", false)
	v.SetDefault("charset", "UTF-8")
	v.SetDefault("pass_non_ascii", false)
	v.SetDefault("strict_defaults", false)
	v.SetDefault("workers", 1)
	v.SetDefault("template_pattern", "*.pt")
	v.SetDefault("yaml_pattern", "*.i18n.yaml")
	v.SetDefault("record", false)
	v.SetDefault("graph", false)
	v.SetDefault("watch", false)
	v.SetDefault("database_url", "postgres://localhost:5432/i18nextract?sslmode=disable")
	v.SetDefault("neo4j_uri", "bolt://localhost:7687")
	v.SetDefault("neo4j_user", "neo4j")
	v.SetDefault("neo4j_password", "password")
	v.SetDefault("log_level", "info")
}

// Load reads .env and the config file into v and decodes the result. An
// explicit file must exist; otherwise .i18nextract.yaml in the working
// directory is used when present.
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// The connection settings also honour the unprefixed names.
	for key, env := range map[string]string{
		"database_url":   "DATABASE_URL",
		"neo4j_uri":      "NEO4J_URI",
		"neo4j_user":     "NEO4J_USER",
		"neo4j_password": "NEO4J_PASSWORD",
	} {
		if err := v.BindEnv(key, EnvPrefix+"_"+env, env); err != nil {
			return nil, err
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName(".i18nextract")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug().Str("file", used).Msg("Loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// Slices set through flags or env arrive as a single string.
	if v.IsSet("exclude") && len(cfg.Exclude) == 0 {
		cfg.Exclude = v.GetStringSlice("exclude")
	}
	return &cfg, nil
}

// Validate resolves paths and checks the settings that make a run
// impossible.
func (c *Config) Validate() error {
	if c.Path == "" {
		return ErrMissingPath
	}
	c.Path = NormalizePath(c.Path)
	if !exists(c.Path) {
		return fmt.Errorf("%w: %s", ErrPathNotFound, c.Path)
	}
	if c.SiteZCML != "" {
		c.SiteZCML = NormalizePath(c.SiteZCML)
		if !exists(c.SiteZCML) {
			return fmt.Errorf("%w: %s", ErrSiteZCMLNotFound, c.SiteZCML)
		}
	}
	if c.HeaderTemplate != "" && !exists(c.HeaderTemplate) {
		abs, _ := filepath.Abs(c.HeaderTemplate)
		return fmt.Errorf("%w: %s", ErrHeaderNotFound, abs)
	}
	if c.Domain == "" {
		return ErrMissingDomain
	}
	if c.Marker == "" {
		return ErrMissingMarker
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Record && c.DatabaseURL == "" {
		return ErrMissingDatabase
	}
	if c.Graph && c.Neo4jURI == "" {
		return ErrMissingGraphStore
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// NormalizePath makes path absolute. Relative paths are resolved against
// $PWD when set so symlinked working directories keep their logical name.
func NormalizePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	cwd := os.Getenv("PWD")
	if cwd == "" || !filepath.IsAbs(cwd) {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return path
		}
	}
	return filepath.Join(cwd, path)
}

// BaseDir is the prefix stripped from recorded file names: everything before
// the last "src" element of the search path. Without such an element it is
// the search path itself.
func (c *Config) BaseDir() string {
	sep := string(filepath.Separator)
	parts := strings.Split(c.Path, sep)
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == "src" {
			return strings.Join(parts[:i], sep) + sep
		}
	}
	return strings.TrimSuffix(c.Path, sep) + sep
}

// OutputFile is <domain>.pot, inside OutputDir (relative to the search path)
// when one is set.
func (c *Config) OutputFile() string {
	name := c.Domain + ".pot"
	if c.OutputDir == "" {
		return name
	}
	return filepath.Join(c.Path, c.OutputDir, name)
}
